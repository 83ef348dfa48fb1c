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

package pathdb

import (
	"container/list"

	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// FactIndexSnapshot is the portable (interner-id-free) shape of FactIndex's
// derived maps, what pkg/sidecar persists under the snapshot's
// "fact_index" key. Keys are rendered through the interner so the
// snapshot survives a process restart, where string ids are not stable.
type FactIndexSnapshot struct {
	BySchemaRelation map[string]map[string]*bitmap.Bitmap
	ByContext        map[graph.EntityID]*bitmap.Bitmap
}

// Snapshot renders the current (rebuilt-if-dirty) FactIndex state in
// portable form.
func (fi *FactIndex) Snapshot() FactIndexSnapshot {
	fi.RebuildIfDirty()
	fi.mu.Lock()
	defer fi.mu.Unlock()

	out := FactIndexSnapshot{
		BySchemaRelation: make(map[string]map[string]*bitmap.Bitmap),
		ByContext:        make(map[graph.EntityID]*bitmap.Bitmap),
	}
	for k, b := range fi.bySchemaRelation {
		schemaName, _ := fi.db.Interner.Lookup(k.schema)
		relName, _ := fi.db.Interner.Lookup(k.relation)
		m, ok := out.BySchemaRelation[schemaName]
		if !ok {
			m = make(map[string]*bitmap.Bitmap)
			out.BySchemaRelation[schemaName] = m
		}
		m[relName] = b.Clone()
	}
	for ctx, b := range fi.byContext {
		out.ByContext[ctx] = b.Clone()
	}
	return out
}

// RestoreSnapshot installs a previously captured FactIndexSnapshot as the
// current index state, re-interning the schema/relation/context strings so
// they resolve against this process's interner. Callers skip the O(n)
// entity scan RebuildIfDirty would otherwise pay on first query.
func (fi *FactIndex) RestoreSnapshot(snap FactIndexSnapshot) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	bySchemaRelation := make(map[factKey]*bitmap.Bitmap)
	for schemaName, rels := range snap.BySchemaRelation {
		schemaID := fi.db.Interner.Intern(schemaName)
		for relName, b := range rels {
			relID := fi.db.Interner.Intern(relName)
			bySchemaRelation[factKey{schema: schemaID, relation: relID}] = b.Clone()
		}
	}
	byContext := make(map[graph.EntityID]*bitmap.Bitmap, len(snap.ByContext))
	for ctx, b := range snap.ByContext {
		byContext[ctx] = b.Clone()
	}
	fi.bySchemaRelation = bySchemaRelation
	fi.byContext = byContext
	fi.dirty = false
}

// TextIndexSnapshot is TextIndex's portable shape, keyed by attribute key
// name and token instead of interned string ids.
type TextIndexSnapshot struct {
	ByAttrKey map[string]map[string]*bitmap.Bitmap
}

// Snapshot renders the current (rebuilt-if-dirty) TextIndex state in
// portable form.
func (ti *TextIndex) Snapshot() TextIndexSnapshot {
	ti.RebuildIfDirty()
	ti.mu.Lock()
	defer ti.mu.Unlock()

	out := TextIndexSnapshot{ByAttrKey: make(map[string]map[string]*bitmap.Bitmap)}
	for key, tokens := range ti.byAttrKey {
		keyName, _ := ti.db.Interner.Lookup(key)
		m := make(map[string]*bitmap.Bitmap, len(tokens))
		for tok, b := range tokens {
			m[tok] = b.Clone()
		}
		out.ByAttrKey[keyName] = m
	}
	return out
}

// RestoreSnapshot installs a previously captured TextIndexSnapshot,
// re-interning attribute key names against this process's interner.
func (ti *TextIndex) RestoreSnapshot(snap TextIndexSnapshot) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	byAttrKey := make(map[interner.StrId]map[string]*bitmap.Bitmap, len(snap.ByAttrKey))
	for keyName, tokens := range snap.ByAttrKey {
		keyID := ti.db.Interner.Intern(keyName)
		m := make(map[string]*bitmap.Bitmap, len(tokens))
		for tok, b := range tokens {
			m[tok] = b.Clone()
		}
		byAttrKey[keyID] = m
	}
	ti.byAttrKey = byAttrKey
	ti.dirty = false
}

// PathLRUEntry is one cached deeper-than-eager path frontier, the unit
// pkg/sidecar persists under the snapshot's "path_lru" key.
type PathLRUEntry struct {
	Sig         PathSig
	Frontier    *bitmap.Bitmap
	Confidences map[graph.EntityID]uint32
}

// PathLRUSnapshot is the LRU tier's portable shape: capacity plus entries
// in most-recently-used-first order, matching spec's
// "{capacity, order: [sig...], entries: sig -> (source_id -> bitmap)}"
// shape (confidences travel alongside each frontier here, since
// PathEvaluator needs both to answer a cached query without recomputing).
type PathLRUSnapshot struct {
	Capacity int
	Entries  []PathLRUEntry // front (most recently used) to back
}

// Snapshot renders the current LRU tier (not the eager, always-fresh
// sub-depth cache, which is cheap to rebuild from a live DB) in
// most-recently-used-first order.
func (pi *PathIndex) Snapshot() PathLRUSnapshot {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	out := PathLRUSnapshot{Capacity: pi.lruCap}
	for el := pi.lruList.Front(); el != nil; el = el.Next() {
		sig := el.Value.(PathSig)
		entry := pi.lruEntries[sig]
		if entry == nil {
			continue
		}
		confidences := make(map[graph.EntityID]uint32, len(entry.confidences))
		for id, c := range entry.confidences {
			confidences[id] = c
		}
		out.Entries = append(out.Entries, PathLRUEntry{
			Sig:         sig,
			Frontier:    entry.frontier.Clone(),
			Confidences: confidences,
		})
	}
	return out
}

// RestoreSnapshot repopulates the LRU tier from a previously captured
// PathLRUSnapshot, preserving MRU-first order. The eager tier is left
// untouched; it rebuilds itself lazily on the next query within
// IndexDepth hops.
func (pi *PathIndex) RestoreSnapshot(snap PathLRUSnapshot) {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	pi.lruList.Init()
	pi.lruElements = make(map[PathSig]*list.Element)
	pi.lruEntries = make(map[PathSig]*pathEntry)
	for _, e := range snap.Entries {
		confidences := make(map[graph.EntityID]uint32, len(e.Confidences))
		for id, c := range e.Confidences {
			confidences[id] = c
		}
		el := pi.lruList.PushBack(e.Sig)
		pi.lruElements[e.Sig] = el
		pi.lruEntries[e.Sig] = &pathEntry{frontier: e.Frontier.Clone(), confidences: confidences}
	}
}
