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

// Package interner implements a dense, insertion-ordered string interner.
// Every string PathDB stores repeatedly (entity type names, relation
// labels, attribute keys, meta-plane vocabulary) is interned once and
// referenced everywhere else by a StrId.
package interner

import "sync"

// StrId is a dense, zero-based string id. Ids are assigned in insertion
// order and are stable for the lifetime of the interner: once assigned, an
// id is never reused or reassigned to a different string.
type StrId uint32

// Interner maps strings to StrIds and back. It is safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	strToID map[string]StrId
	idToStr []string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		strToID: make(map[string]StrId),
	}
}

// Intern returns the StrId for s, assigning a new one if s has not been
// seen before. The bijection between strings and ids is exact: interning
// the same string always returns the same id, and every assigned id
// resolves back to exactly the string that produced it.
func (in *Interner) Intern(s string) StrId {
	in.mu.RLock()
	if id, ok := in.strToID[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.strToID[s]; ok {
		return id
	}
	id := StrId(len(in.idToStr))
	in.idToStr = append(in.idToStr, s)
	in.strToID[s] = id
	return id
}

// IDOf looks up the id of a previously-interned string without inserting it.
func (in *Interner) IDOf(s string) (StrId, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.strToID[s]
	return id, ok
}

// Lookup resolves an id back to its string.
func (in *Interner) Lookup(id StrId) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.idToStr) {
		return "", false
	}
	return in.idToStr[id], true
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.idToStr)
}

// Strings returns a snapshot of all interned strings in id order. The
// returned slice's index i holds the string for StrId(i).
func (in *Interner) Strings() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]string, len(in.idToStr))
	copy(out, in.idToStr)
	return out
}
