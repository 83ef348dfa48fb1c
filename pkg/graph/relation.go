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

package graph

import (
	"fmt"
	"sync"

	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// RelationID identifies a single directed edge record.
type RelationID uint32

// Relation is one directed, labeled, attribute-carrying, confidence-scored
// edge. Source and Target are EntityIDs; RelTypeID names the edge label.
type Relation struct {
	ID         RelationID
	RelTypeID  interner.StrId
	Source     EntityID
	Target     EntityID
	Confidence fixedprob.FixedProb
	Attrs      map[interner.StrId]Value
}

type edgeKey struct {
	source EntityID
	relT   interner.StrId
	target EntityID
}

// RelationStore holds all relations plus forward/reverse adjacency bitmaps
// per relation type, giving O(1) membership tests and O(popcount) fan-out.
type RelationStore struct {
	mu sync.RWMutex

	relations []Relation
	forward   map[interner.StrId]map[EntityID]*bitmap.Bitmap // relType -> source -> targets
	reverse   map[interner.StrId]map[EntityID]*bitmap.Bitmap // relType -> target -> sources
	edgeIndex map[edgeKey]RelationID
}

// NewRelationStore creates an empty store.
func NewRelationStore() *RelationStore {
	return &RelationStore{
		forward:   make(map[interner.StrId]map[EntityID]*bitmap.Bitmap),
		reverse:   make(map[interner.StrId]map[EntityID]*bitmap.Bitmap),
		edgeIndex: make(map[edgeKey]RelationID),
	}
}

// AddRelation appends a new edge, updating adjacency in both directions.
// Referential integrity of Source/Target (that they name entities that
// exist) is the caller's responsibility: RelationStore does not reach into
// EntityStore.
func (s *RelationStore) AddRelation(relType interner.StrId, source, target EntityID, confidence fixedprob.FixedProb, attrs map[interner.StrId]Value) RelationID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := RelationID(len(s.relations))
	if attrs == nil {
		attrs = make(map[interner.StrId]Value)
	}
	s.relations = append(s.relations, Relation{
		ID: id, RelTypeID: relType, Source: source, Target: target,
		Confidence: confidence, Attrs: attrs,
	})

	if _, ok := s.forward[relType]; !ok {
		s.forward[relType] = make(map[EntityID]*bitmap.Bitmap)
	}
	if _, ok := s.forward[relType][source]; !ok {
		s.forward[relType][source] = bitmap.New()
	}
	s.forward[relType][source].Add(uint32(target))

	if _, ok := s.reverse[relType]; !ok {
		s.reverse[relType] = make(map[EntityID]*bitmap.Bitmap)
	}
	if _, ok := s.reverse[relType][target]; !ok {
		s.reverse[relType][target] = bitmap.New()
	}
	s.reverse[relType][target].Add(uint32(source))

	s.edgeIndex[edgeKey{source, relType, target}] = id
	return id
}

// HasEdge reports whether any relation of relType connects source to
// target.
func (s *RelationStore) HasEdge(relType interner.StrId, source, target EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edgeIndex[edgeKey{source, relType, target}]
	return ok
}

// Targets returns the bitmap of entities reachable from source via one
// relType edge.
func (s *RelationStore) Targets(relType interner.StrId, source EntityID) *bitmap.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.forward[relType]; ok {
		if b, ok := m[source]; ok {
			return b
		}
	}
	return bitmap.New()
}

// Sources returns the bitmap of entities that reach target via one relType
// edge.
func (s *RelationStore) Sources(relType interner.StrId, target EntityID) *bitmap.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.reverse[relType]; ok {
		if b, ok := m[target]; ok {
			return b
		}
	}
	return bitmap.New()
}

// EdgeRelationID resolves the RelationID of the edge (source, relType,
// target), if any exists.
func (s *RelationStore) EdgeRelationID(relType interner.StrId, source, target EntityID) (RelationID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.edgeIndex[edgeKey{source, relType, target}]
	return id, ok
}

// Get returns the relation record by id.
func (s *RelationStore) Get(id RelationID) (Relation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.relations) {
		return Relation{}, false
	}
	return s.relations[int(id)], true
}

// All returns a snapshot of every relation, used by full export and by
// ConstraintChecker closures that must scan a relation type.
func (s *RelationStore) All() []Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Relation, len(s.relations))
	copy(out, s.relations)
	return out
}

// ByRelType returns a snapshot of every relation with the given type.
func (s *RelationStore) ByRelType(relType interner.StrId) []Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Relation, 0)
	for _, r := range s.relations {
		if r.RelTypeID == relType {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the total number of relations ever created.
func (s *RelationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relations)
}

// ValidateChain checks that a sequence of relation ids forms a connected
// chain: for consecutive ids rel[i] -> rel[i+1], rel[i].Target must equal
// rel[i+1].Source. It returns the chain's overall (start, end) entities.
// This grounds the forward-validation pass used before building a
// reachability witness.
func (s *RelationStore) ValidateChain(relationIDs []RelationID) (start, end EntityID, err error) {
	if len(relationIDs) == 0 {
		return 0, 0, fmt.Errorf("graph: empty relation chain")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	first, ok := s.relGet(relationIDs[0])
	if !ok {
		return 0, 0, fmt.Errorf("graph: relation %d does not exist", relationIDs[0])
	}
	current := first.Source
	for _, relID := range relationIDs {
		rel, ok := s.relGet(relID)
		if !ok {
			return 0, 0, fmt.Errorf("graph: relation %d does not exist", relID)
		}
		if rel.Source != current {
			return 0, 0, fmt.Errorf("relation_id %d chain mismatch: expected source=%d, got %d", relID, current, rel.Source)
		}
		current = rel.Target
	}
	return first.Source, current, nil
}

func (s *RelationStore) relGet(id RelationID) (Relation, bool) {
	if int(id) >= len(s.relations) {
		return Relation{}, false
	}
	return s.relations[int(id)], true
}
