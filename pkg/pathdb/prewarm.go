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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// PrewarmQuery names one path signature a caller expects to query soon
// (e.g. "every node's outgoing call-graph to depth 6"), allowing the LRU
// tier of PathIndex to be populated ahead of the request that needs it.
type PrewarmQuery struct {
	Start    graph.EntityID
	RelTypes []interner.StrId
}

// Prewarm evaluates queries concurrently, populating PathIndex (eager tier
// for signatures within Config.IndexDepth, LRU tier beyond it) without
// blocking the caller on one query at a time. Each query is independent --
// FollowPath only reads Relations and writes to its own PathSig cache
// entry -- so this fans the batch out across an errgroup bounded by ctx,
// returning the first error encountered (if any) after every goroutine has
// finished. A nil error does not guarantee every signature landed in the
// LRU tier: PathIndex.put may still evict entries evaluated earlier in the
// batch once lruCap is exceeded.
func (db *DB) Prewarm(ctx context.Context, queries []PrewarmQuery) error {
	g, ctx := errgroup.WithContext(ctx)
	evaluator := NewPathEvaluator(db)

	for _, q := range queries {
		q := q
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			evaluator.FollowPath(q.Start, q.RelTypes)
			return nil
		})
	}
	return g.Wait()
}
