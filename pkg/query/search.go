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

// Package query provides the user-facing conveniences layered over PathDB's
// indexes and evaluator: full-text search, reachability tracing, and
// typed learning-graph extraction. It is the one place the `fts` query
// operator spec.md §4.6 names actually lives; everything here is a thin,
// argument-validating wrapper over pkg/pathdb and pkg/metaplane so a CLI or
// embedder never has to reach past this package into the index internals.
package query

import (
	"fmt"
	"sort"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// SearchArgs holds arguments for EntitiesWithAttrFTS, mirroring the
// teacher's SearchTextArgs shape (pkg/tools/search.go): a bounded,
// validated query plus a result cap.
type SearchArgs struct {
	AttrKey string
	Query   string
	Limit   int
}

// SearchResult is EntitiesWithAttrFTS's answer: the matched entities in
// ascending id order, capped at Limit, plus whether the cap actually
// truncated the full match set.
type SearchResult struct {
	Matches   []graph.EntityID
	Truncated bool
}

// DefaultSearchLimit caps SearchResult.Matches when SearchArgs.Limit is
// zero, mirroring the teacher's default of 20.
const DefaultSearchLimit = 20

// EntitiesWithAttrFTS is the query-side entities_with_attr_fts(attr, query)
// operator spec.md §4.6 requires share tokenization with the TextIndex: it
// is a direct call into TextIndex.Search, which in turn calls the same
// Tokenize function the TextIndex builder uses, so index-time and
// query-time tokenization can never drift apart by construction.
func EntitiesWithAttrFTS(db *pathdb.DB, args SearchArgs) (SearchResult, error) {
	if args.AttrKey == "" {
		return SearchResult{}, fmt.Errorf("query: attr key is required")
	}
	if args.Query == "" {
		return SearchResult{}, fmt.Errorf("query: search text is required")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	attrKeyID, ok := db.Interner.IDOf(args.AttrKey)
	if !ok {
		return SearchResult{}, nil
	}

	matched := db.TextIndex().Search(attrKeyID, args.Query)
	ids := matched.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := SearchResult{}
	for _, id := range ids {
		if len(result.Matches) >= limit {
			result.Truncated = true
			break
		}
		result.Matches = append(result.Matches, graph.EntityID(id))
	}
	return result, nil
}

// FactsOfRelation is the query-side convenience over FactIndex.FactsOf,
// returning every fact-node entity id for (schema, relation) in ascending
// order.
func FactsOfRelation(db *pathdb.DB, schema, relation string) []graph.EntityID {
	bits := db.FactIndex().FactsOf(schema, relation)
	ids := bits.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]graph.EntityID, len(ids))
	for i, id := range ids {
		out[i] = graph.EntityID(id)
	}
	return out
}
