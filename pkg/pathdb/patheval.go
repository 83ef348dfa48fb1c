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
	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// PathEvaluator walks fixed relation-type sequences and regular-path
// expressions over the DB's RelationStore, tracking the best (maximum)
// confidence found to each reached entity and the index it consults.
type PathEvaluator struct {
	db *DB
}

// NewPathEvaluator binds an evaluator to db.
func NewPathEvaluator(db *DB) *PathEvaluator {
	return &PathEvaluator{db: db}
}

// FollowOne advances a single relation-type hop from every entity in
// frontier, returning the reached entities and the confidence of reaching
// each (the maximum confidence edge into that entity from the frontier,
// composed with the frontier's own incoming confidence).
func (pe *PathEvaluator) FollowOne(frontier *bitmap.Bitmap, confidences map[graph.EntityID]fixedprob.FixedProb, relType interner.StrId) (*bitmap.Bitmap, map[graph.EntityID]fixedprob.FixedProb) {
	out := bitmap.New()
	outConf := make(map[graph.EntityID]fixedprob.FixedProb)

	it := frontier.Iterator()
	for it.HasNext() {
		source := graph.EntityID(it.Next())
		inbound, ok := confidences[source]
		if !ok {
			inbound = fixedprob.One
		}
		targets := pe.db.Relations.Targets(relType, source)
		tit := targets.Iterator()
		for tit.HasNext() {
			target := graph.EntityID(tit.Next())
			relID, ok := pe.db.Relations.EdgeRelationID(relType, source, target)
			edgeConf := fixedprob.One
			if ok {
				if rel, ok := pe.db.Relations.Get(relID); ok {
					edgeConf = rel.Confidence
				}
			}
			composed := inbound.Mul(edgeConf)
			out.Add(uint32(target))
			if existing, ok := outConf[target]; !ok || composed.Numerator > existing.Numerator {
				outConf[target] = composed
			}
		}
	}
	return out, outConf
}

// FollowPath evaluates a fixed sequence of relation-type hops from start,
// caching intermediate frontiers in the DB's PathIndex.
func (pe *PathEvaluator) FollowPath(start graph.EntityID, relTypes []interner.StrId) (*bitmap.Bitmap, map[graph.EntityID]fixedprob.FixedProb) {
	frontier := bitmap.Of(uint32(start))
	confidences := map[graph.EntityID]fixedprob.FixedProb{start: fixedprob.One}

	for depth, relType := range relTypes {
		sig := PathSig{Source: start, RelPath: RelPathKey(pe.db.Interner, relTypes[:depth+1]), Depth: depth + 1}
		if entry, ok := pe.db.paths.get(sig); ok {
			frontier = entry.frontier
			confidences = decodeConfidences(entry.confidences)
			continue
		}
		frontier, confidences = pe.FollowOne(frontier, confidences, relType)
		pe.db.paths.put(sig, &pathEntry{frontier: frontier.Clone(), confidences: encodeConfidences(confidences)})
	}
	return frontier, confidences
}

// FollowPathWithMinConfidence evaluates the path and filters the result to
// entities reached with confidence >= threshold. Raising theta can only
// shrink or hold the result set, never grow it.
func (pe *PathEvaluator) FollowPathWithMinConfidence(start graph.EntityID, relTypes []interner.StrId, threshold fixedprob.FixedProb) (*bitmap.Bitmap, map[graph.EntityID]fixedprob.FixedProb) {
	frontier, confidences := pe.FollowPath(start, relTypes)
	filtered := bitmap.New()
	filteredConf := make(map[graph.EntityID]fixedprob.FixedProb)
	it := frontier.Iterator()
	for it.HasNext() {
		id := graph.EntityID(it.Next())
		if c, ok := confidences[id]; ok && c.GTE(threshold) {
			filtered.Add(uint32(id))
			filteredConf[id] = c
		}
	}
	return filtered, filteredConf
}

func encodeConfidences(m map[graph.EntityID]fixedprob.FixedProb) map[graph.EntityID]uint32 {
	out := make(map[graph.EntityID]uint32, len(m))
	for k, v := range m {
		out[k] = v.Numerator
	}
	return out
}

func decodeConfidences(m map[graph.EntityID]uint32) map[graph.EntityID]fixedprob.FixedProb {
	out := make(map[graph.EntityID]fixedprob.FixedProb, len(m))
	for k, v := range m {
		out[k] = fixedprob.FixedProb{Numerator: v}
	}
	return out
}
