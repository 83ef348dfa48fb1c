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
	"sync"

	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// EquivalenceStore holds symmetric labeled pairs, e.g. "these two entities
// denote the same real-world thing under label L". Adding (a, b) under L
// always makes (b, a) visible too.
type EquivalenceStore struct {
	mu    sync.RWMutex
	pairs map[interner.StrId]map[EntityID]*bitmap.Bitmap // label -> entity -> equivalent entities
}

// NewEquivalenceStore creates an empty store.
func NewEquivalenceStore() *EquivalenceStore {
	return &EquivalenceStore{pairs: make(map[interner.StrId]map[EntityID]*bitmap.Bitmap)}
}

// Add records that a and b are equivalent under label, symmetrically.
// Adding a self-pair (a, a) is permitted and is a no-op beyond recording
// reflexivity explicitly, matching the free-groupoid's Reflexive identity.
func (s *EquivalenceStore) Add(label interner.StrId, a, b EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkLocked(label, a, b)
	s.linkLocked(label, b, a)
}

func (s *EquivalenceStore) linkLocked(label interner.StrId, from, to EntityID) {
	m, ok := s.pairs[label]
	if !ok {
		m = make(map[EntityID]*bitmap.Bitmap)
		s.pairs[label] = m
	}
	b, ok := m[from]
	if !ok {
		b = bitmap.New()
		m[from] = b
	}
	b.Add(uint32(to))
}

// EquivalentTo returns the bitmap of entities recorded as equivalent to e
// under label.
func (s *EquivalenceStore) EquivalentTo(label interner.StrId, e EntityID) *bitmap.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.pairs[label]; ok {
		if b, ok := m[e]; ok {
			return b
		}
	}
	return bitmap.New()
}

// AreEquivalent reports whether a and b are linked under label.
func (s *EquivalenceStore) AreEquivalent(label interner.StrId, a, b EntityID) bool {
	return s.EquivalentTo(label, a).Contains(uint32(b))
}
