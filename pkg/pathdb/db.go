// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pathdb implements the core in-memory graph engine: the entity,
// relation, and equivalence stores composed behind one DB handle, plus the
// lazily-rebuilt fact, text, and path indexes and the bounded-depth,
// confidence-thresholded path evaluator.
package pathdb

import (
	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// DefaultIndexDepth is used when Config.IndexDepth is zero.
const DefaultIndexDepth = 4

// DefaultPathIndexLRUCapacity is used when Config.PathIndexLRUCapacity is
// zero.
const DefaultPathIndexLRUCapacity = 4096

// Config holds the options named in the external interface: index_depth,
// path_index_lru_capacity, index_sidecar_debounce, require_canonical.
type Config struct {
	// IndexDepth bounds how many hops PathIndex materializes eagerly.
	IndexDepth int
	// PathIndexLRUCapacity bounds the number of deeper path signatures
	// cached beyond IndexDepth.
	PathIndexLRUCapacity int
	// IndexSidecarDebounceSeconds is the sidecar writer's idle debounce,
	// in seconds (spec default: 2).
	IndexSidecarDebounceSeconds int
	// RequireCanonical is carried over from the CLI's require_canonical
	// setting. PathDB has no textual module import, and nothing in this
	// package reads the flag.
	RequireCanonical bool
}

// DefaultConfig returns sensible defaults, mirroring DefaultConfig()
// constructors used throughout the teacher repo's config types.
func DefaultConfig() Config {
	return Config{
		IndexDepth:                  DefaultIndexDepth,
		PathIndexLRUCapacity:        DefaultPathIndexLRUCapacity,
		IndexSidecarDebounceSeconds: 2,
		RequireCanonical:            false,
	}
}

// DB is the top-level PathDB handle: interner, columnar stores, and the
// lazily-rebuilt derived indexes, all branded with one process-local token.
type DB struct {
	token DbToken

	Interner     *interner.Interner
	Entities     *graph.EntityStore
	Relations    *graph.RelationStore
	Equivalences *graph.EquivalenceStore

	Config Config

	facts *FactIndex
	texts *TextIndex
	paths *PathIndex

	metrics metrics
}

// New creates an empty PathDB with the given config.
func New(cfg Config) *DB {
	if cfg.IndexDepth == 0 {
		cfg.IndexDepth = DefaultIndexDepth
	}
	if cfg.PathIndexLRUCapacity == 0 {
		cfg.PathIndexLRUCapacity = DefaultPathIndexLRUCapacity
	}
	db := &DB{
		token:        NewDbToken(),
		Interner:     interner.New(),
		Entities:     graph.NewEntityStore(),
		Relations:    graph.NewRelationStore(),
		Equivalences: graph.NewEquivalenceStore(),
		Config:       cfg,
	}
	db.facts = newFactIndex(db)
	db.texts = newTextIndex(db)
	db.paths = newPathIndex(db, cfg.IndexDepth, cfg.PathIndexLRUCapacity)
	return db
}

// Token returns the DB's branding token.
func (db *DB) Token() DbToken { return db.token }

// FactIndex returns the (possibly stale) fact index; callers that need a
// fresh view should call RebuildIfDirty first, which every FactIndex query
// method already does internally.
func (db *DB) FactIndex() *FactIndex { return db.facts }

// TextIndex returns the text index.
func (db *DB) TextIndex() *TextIndex { return db.texts }

// PathIndex returns the path index.
func (db *DB) PathIndex() *PathIndex { return db.paths }

// AddEntity creates an entity and marks the fact/text indexes dirty, since
// a new entity can introduce a new fact node or new indexable text.
func (db *DB) AddEntity(typeID interner.StrId, attrs map[interner.StrId]graph.Value) graph.EntityID {
	id := db.Entities.Add(typeID, attrs)
	db.facts.markDirty()
	db.texts.markDirty()
	db.paths.Invalidate()
	return id
}

// AddRelation creates a relation and invalidates the path index, per the
// spec's deliberately imprecise invalidation rule: any mutation clears the
// path LRU regardless of whether it could have affected a given signature.
func (db *DB) AddRelation(relType interner.StrId, source, target graph.EntityID, confidence fixedprob.FixedProb, attrs map[interner.StrId]graph.Value) graph.RelationID {
	id := db.Relations.AddRelation(relType, source, target, confidence, attrs)
	db.paths.Invalidate()
	db.facts.markDirty()
	return id
}

// AddEquivalence records a symmetric equivalence pair and invalidates the
// path index.
func (db *DB) AddEquivalence(label interner.StrId, a, b graph.EntityID) {
	db.Equivalences.Add(label, a, b)
	db.paths.Invalidate()
}

// SetEntityAttr updates an attribute and marks dependent indexes dirty.
func (db *DB) SetEntityAttr(id graph.EntityID, key interner.StrId, value graph.Value) error {
	if err := db.Entities.SetAttr(id, key, value); err != nil {
		return err
	}
	db.facts.markDirty()
	db.texts.markDirty()
	db.paths.Invalidate()
	return nil
}
