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
	"sync"

	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// TextIndex is a per-attribute-key inverted index over string-valued
// attributes, rebuilt lazily on the same dirty-flag discipline as
// FactIndex. Its tokenizer is Tokenize, the exact function the `fts` query
// operator must also call so index-time and query-time tokenization never
// disagree.
type TextIndex struct {
	db *DB

	mu    sync.Mutex
	dirty bool

	// byAttrKey[key][token] -> entity ids whose key-valued attribute
	// contains token.
	byAttrKey map[interner.StrId]map[string]*bitmap.Bitmap
}

func newTextIndex(db *DB) *TextIndex {
	return &TextIndex{db: db, dirty: true, byAttrKey: make(map[interner.StrId]map[string]*bitmap.Bitmap)}
}

func (ti *TextIndex) markDirty() {
	ti.mu.Lock()
	ti.dirty = true
	ti.mu.Unlock()
}

// RebuildIfDirty rebuilds the inverted index if stale.
func (ti *TextIndex) RebuildIfDirty() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if !ti.dirty {
		return
	}
	byAttrKey := make(map[interner.StrId]map[string]*bitmap.Bitmap)
	for _, e := range ti.db.Entities.All() {
		for key, val := range e.Attrs {
			if val.Kind != 0 { // KindString == 0
				continue
			}
			tokens := Tokenize(val.Str)
			if len(tokens) == 0 {
				continue
			}
			m, ok := byAttrKey[key]
			if !ok {
				m = make(map[string]*bitmap.Bitmap)
				byAttrKey[key] = m
			}
			for _, tok := range tokens {
				b, ok := m[tok]
				if !ok {
					b = bitmap.New()
					m[tok] = b
				}
				b.Add(uint32(e.ID))
			}
		}
	}
	ti.byAttrKey = byAttrKey
	ti.dirty = false
	if ti.db.metrics.textIndexRebuilds != nil {
		ti.db.metrics.textIndexRebuilds.Inc()
	}
}

// Search returns the bitmap of entity ids whose attrKey-valued attribute
// matches every token of the tokenized query (a conjunctive AND of terms).
func (ti *TextIndex) Search(attrKey interner.StrId, query string) *bitmap.Bitmap {
	ti.RebuildIfDirty()
	ti.mu.Lock()
	defer ti.mu.Unlock()

	tokens := Tokenize(query)
	m, ok := ti.byAttrKey[attrKey]
	if !ok || len(tokens) == 0 {
		return bitmap.New()
	}
	var result *bitmap.Bitmap
	for _, tok := range tokens {
		b, ok := m[tok]
		if !ok {
			return bitmap.New()
		}
		if result == nil {
			result = b.Clone()
		} else {
			result = result.And(b)
		}
	}
	if result == nil {
		return bitmap.New()
	}
	return result
}
