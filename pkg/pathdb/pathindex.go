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
	"sync"

	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// PathSig identifies a cached path materialization: a starting entity, a
// relation-type chain, and the depth actually computed.
type PathSig struct {
	Source  graph.EntityID
	RelPath string // relation type names joined by "/", in traversal order
	Depth   int
}

// pathEntry is one cached frontier: the set of entities reached and, for
// each, the confidence of the best path found to it so far.
type pathEntry struct {
	frontier    *bitmap.Bitmap
	confidences map[graph.EntityID]uint32 // FixedProb numerator per reached entity
}

// PathIndex materializes path frontiers up to IndexDepth hops eagerly, and
// caches deeper queries in a bounded LRU. Any graph mutation invalidates
// the whole index: the spec deliberately does not attempt to determine
// whether a given mutation could have invalidated a specific cached
// signature, trading precision for simplicity.
type PathIndex struct {
	db    *DB
	depth int

	mu          sync.Mutex
	eager       map[PathSig]*pathEntry
	lruCap      int
	lruList     *list.List
	lruElements map[PathSig]*list.Element
	lruEntries  map[PathSig]*pathEntry
}

func newPathIndex(db *DB, depth, lruCapacity int) *PathIndex {
	return &PathIndex{
		db:          db,
		depth:       depth,
		eager:       make(map[PathSig]*pathEntry),
		lruCap:      lruCapacity,
		lruList:     list.New(),
		lruElements: make(map[PathSig]*list.Element),
		lruEntries:  make(map[PathSig]*pathEntry),
	}
}

// Invalidate clears both the eager cache and the LRU. Called on every
// mutation.
func (pi *PathIndex) Invalidate() {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.eager = make(map[PathSig]*pathEntry)
	pi.lruList.Init()
	pi.lruElements = make(map[PathSig]*list.Element)
	pi.lruEntries = make(map[PathSig]*pathEntry)
}

// get looks up a cached entry, promoting it in the LRU if found there.
func (pi *PathIndex) get(sig PathSig) (*pathEntry, bool) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if e, ok := pi.eager[sig]; ok {
		return e, true
	}
	if el, ok := pi.lruElements[sig]; ok {
		pi.lruList.MoveToFront(el)
		return pi.lruEntries[sig], true
	}
	return nil, false
}

// put stores a computed entry. Signatures at or under IndexDepth are
// cached eagerly and never evicted by depth pressure; deeper signatures go
// through the bounded LRU.
func (pi *PathIndex) put(sig PathSig, entry *pathEntry) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if sig.Depth <= pi.depth {
		pi.eager[sig] = entry
		return
	}
	if el, ok := pi.lruElements[sig]; ok {
		pi.lruList.MoveToFront(el)
		pi.lruEntries[sig] = entry
		return
	}
	el := pi.lruList.PushFront(sig)
	pi.lruElements[sig] = el
	pi.lruEntries[sig] = entry
	for pi.lruList.Len() > pi.lruCap {
		back := pi.lruList.Back()
		if back == nil {
			break
		}
		evictSig := back.Value.(PathSig)
		pi.lruList.Remove(back)
		delete(pi.lruElements, evictSig)
		delete(pi.lruEntries, evictSig)
	}
}

// Len reports the total number of cached signatures across both tiers,
// exposed as a Prometheus gauge by the metrics registrar.
func (pi *PathIndex) Len() int {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	return len(pi.eager) + pi.lruList.Len()
}

// RelPathKey joins a relation-type chain into the canonical RelPath string
// used in PathSig, keeping the interner out of the cache key so
// serialization (the sidecar's LruSnapshot) stays stable across runs.
func RelPathKey(in *interner.Interner, relTypes []interner.StrId) string {
	var sb []byte
	for i, rt := range relTypes {
		if i > 0 {
			sb = append(sb, '/')
		}
		name, _ := in.Lookup(rt)
		sb = append(sb, name...)
	}
	return string(sb)
}
