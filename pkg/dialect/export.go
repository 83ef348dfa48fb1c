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

package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// ExportVersionV1 is the header line of a PathDBExportV1 snapshot. Grounded
// on `export_pathdb_to_axi_v1`/`import_pathdb_from_axi_v1` (axi_export.rs,
// confirmed by axi_export_tests.rs and axi_export_property_tests.rs): a
// reversible, line-oriented textual dump, not the lower-level opaque binary
// format spec.md's external-interfaces section also mentions for on-disk
// persistence — this is the interchange format certificates anchor to via
// axi_digest_v1.
const ExportVersionV1 = "pathdb_export_v1"

// ExportSnapshot renders a full, reversible textual dump of db: every
// interned string, entity, relation (with its fixed-point confidence), and
// equivalence pair, in deterministic (ascending id) order. Calling
// ExportSnapshot on the result of ImportSnapshot applied to a prior export
// reproduces the same bytes, satisfying the round-trip law:
// Export(Import(Export(db))) == Export(db).
func ExportSnapshot(db *pathdb.DB) (string, error) {
	var b strings.Builder
	b.WriteString(ExportVersionV1)
	b.WriteByte('\n')

	strs := db.Interner.Strings()
	fmt.Fprintf(&b, "[strings]\n")
	for i, s := range strs {
		fmt.Fprintf(&b, "%d %s\n", i, escape(s))
	}

	entities := db.Entities.All()
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	fmt.Fprintf(&b, "[entities]\n")
	for _, e := range entities {
		fmt.Fprintf(&b, "%d %d %s\n", e.ID, e.TypeID, encodeAttrs(e.Attrs))
	}

	relations := db.Relations.All()
	sort.Slice(relations, func(i, j int) bool { return relations[i].ID < relations[j].ID })
	fmt.Fprintf(&b, "[relations]\n")
	for _, r := range relations {
		fmt.Fprintf(&b, "%d %d %d %d %d %s\n", r.ID, r.RelTypeID, r.Source, r.Target, r.Confidence.Numerator, encodeAttrs(r.Attrs))
	}

	fmt.Fprintf(&b, "[equivalences]\n")
	for _, eq := range exportEquivalences(db) {
		fmt.Fprintf(&b, "%d %d %d\n", eq.label, eq.a, eq.b)
	}

	return b.String(), nil
}

type equivPair struct {
	label interner.StrId
	a, b  graph.EntityID
}

// exportEquivalences re-derives a deterministic, deduplicated list of
// equivalence pairs from db. EquivalenceStore.Add always links both
// directions, so to avoid doubling every pair on re-export we only emit
// (a, b) where a < b: the import side re-adds both directions via Add.
func exportEquivalences(db *pathdb.DB) []equivPair {
	var out []equivPair
	seen := make(map[equivPair]bool)
	entities := db.Entities.All()
	for _, s := range db.Interner.Strings() {
		labelID, ok := db.Interner.IDOf(s)
		if !ok {
			continue
		}
		for _, e := range entities {
			others := db.Equivalences.EquivalentTo(labelID, e.ID)
			for _, otherRaw := range others.ToSlice() {
				other := graph.EntityID(otherRaw)
				if e.ID >= other {
					continue
				}
				p := equivPair{label: labelID, a: e.ID, b: other}
				if seen[p] {
					continue
				}
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].label != out[j].label {
			return out[i].label < out[j].label
		}
		if out[i].a != out[j].a {
			return out[i].a < out[j].a
		}
		return out[i].b < out[j].b
	})
	return out
}

func encodeAttrs(attrs map[interner.StrId]graph.Value) string {
	keys := make([]int, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		key := interner.StrId(k)
		parts = append(parts, fmt.Sprintf("%d=%s", key, encodeValue(attrs[key])))
	}
	return strings.Join(parts, ";")
}

func encodeValue(v graph.Value) string {
	switch v.Kind {
	case graph.KindString:
		return "s:" + escape(v.Str)
	case graph.KindInt:
		return "i:" + strconv.FormatInt(v.Int, 10)
	case graph.KindFloat:
		return "f:" + strconv.FormatFloat(v.Flt, 'g', -1, 64)
	case graph.KindBool:
		return "b:" + strconv.FormatBool(v.Bool)
	case graph.KindEntityRef:
		return "r:" + strconv.FormatUint(uint64(v.Ref), 10)
	default:
		return "s:"
	}
}

// escape makes s safe to embed in a single space/semicolon/equals-delimited
// line: backslash, newline, space, '=', and ';' are backslash-escaped.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '\n', ' ', '=', ';':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescape(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
