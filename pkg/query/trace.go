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

package query

import (
	"fmt"

	"github.com/kraklabs/pathdb/pkg/certificate"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// DefaultTraceMaxDepth bounds a TracePath BFS when TraceArgs.MaxDepth is
// zero, mirroring the teacher's TracePathArgs.MaxDepth default of a small
// fixed bound rather than an unbounded search.
const DefaultTraceMaxDepth = 6

// TraceArgs holds arguments for TracePath, the reachability counterpart of
// the teacher's TracePathArgs (pkg/tools/trace.go): a source and target
// entity, an optional relation-type allowlist, and a depth bound.
type TraceArgs struct {
	Source   graph.EntityID
	Target   graph.EntityID
	RelTypes []interner.StrId // empty = traverse every relation type in db
	MaxDepth int
}

// TracePath runs a breadth-first search from Source to Target, bounded by
// MaxDepth and (if non-empty) restricted to RelTypes, and on success
// packages the shortest witness chain found as a reachability certificate
// via pkg/certificate, branded to db's token. A caller receiving the
// DbBranded value can only unwrap it against the same db it was built
// from, catching a witness being checked against the wrong DB at runtime.
func TracePath(db *pathdb.DB, args TraceArgs) (pathdb.DbBranded[certificate.Certificate], error) {
	maxDepth := args.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultTraceMaxDepth
	}
	relTypes := args.RelTypes
	if len(relTypes) == 0 {
		relTypes = allRelationTypes(db)
	}

	relationIDs, found := bfsShortestPath(db, args.Source, args.Target, relTypes, maxDepth)
	if !found {
		return pathdb.DbBranded[certificate.Certificate]{}, fmt.Errorf("query: no path from %d to %d within %d hops", args.Source, args.Target, maxDepth)
	}

	proof, err := certificate.NewReachabilityProofV2FromRelationIDs(db.Relations, args.Source, relationIDs)
	if err != nil {
		return pathdb.DbBranded[certificate.Certificate]{}, err
	}
	cert, err := certificate.NewReachability(proof)
	if err != nil {
		return pathdb.DbBranded[certificate.Certificate]{}, err
	}
	return pathdb.NewDbBranded(db.Token(), cert), nil
}

func allRelationTypes(db *pathdb.DB) []interner.StrId {
	seen := make(map[interner.StrId]bool)
	var out []interner.StrId
	for _, r := range db.Relations.All() {
		if !seen[r.RelTypeID] {
			seen[r.RelTypeID] = true
			out = append(out, r.RelTypeID)
		}
	}
	return out
}

type bfsFrame struct {
	entity     graph.EntityID
	relationID graph.RelationID
	parent     int // index into the visited-order slice, -1 for the start node
}

// bfsShortestPath finds the shortest (fewest-hop) chain of relation ids
// from source to target, exploring only relTypes and never past maxDepth
// hops. Returns found=false if target is unreachable within those bounds.
func bfsShortestPath(db *pathdb.DB, source, target graph.EntityID, relTypes []interner.StrId, maxDepth int) ([]graph.RelationID, bool) {
	if source == target {
		return nil, true
	}

	visited := map[graph.EntityID]bool{source: true}
	order := []bfsFrame{{entity: source, parent: -1}}
	frontier := []int{0} // indexes into order

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []int
		for _, fIdx := range frontier {
			from := order[fIdx].entity
			for _, relType := range relTypes {
				targets := db.Relations.Targets(relType, from)
				for _, targetRaw := range targets.ToSlice() {
					to := graph.EntityID(targetRaw)
					if visited[to] {
						continue
					}
					relID, ok := db.Relations.EdgeRelationID(relType, from, to)
					if !ok {
						continue
					}
					visited[to] = true
					order = append(order, bfsFrame{entity: to, relationID: relID, parent: fIdx})
					leafIdx := len(order) - 1
					next = append(next, leafIdx)
					if to == target {
						return reconstructChain(order, leafIdx), true
					}
				}
			}
		}
		frontier = next
	}
	return nil, false
}

func reconstructChain(order []bfsFrame, leafIdx int) []graph.RelationID {
	var chain []graph.RelationID
	for idx := leafIdx; idx > 0; {
		f := order[idx]
		chain = append([]graph.RelationID{f.relationID}, chain...)
		idx = f.parent
	}
	return chain
}
