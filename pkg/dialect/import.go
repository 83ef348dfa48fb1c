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
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// ImportSnapshot parses a PathDBExportV1 text produced by ExportSnapshot
// and rebuilds an equivalent DB: same interned strings at the same ids,
// same entities, relations, and equivalences. The result's own
// ExportSnapshot output is byte-identical to the input.
func ImportSnapshot(text string, cfg pathdb.Config) (*pathdb.DB, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("dialect: empty snapshot")
	}
	if sc.Text() != ExportVersionV1 {
		return nil, fmt.Errorf("dialect: unrecognized snapshot version %q", sc.Text())
	}

	db := pathdb.New(cfg)
	section := ""
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line
			continue
		}
		switch section {
		case "[strings]":
			if err := importStringLine(db, line); err != nil {
				return nil, err
			}
		case "[entities]":
			if err := importEntityLine(db, line); err != nil {
				return nil, err
			}
		case "[relations]":
			if err := importRelationLine(db, line); err != nil {
				return nil, err
			}
		case "[equivalences]":
			if err := importEquivalenceLine(db, line); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("dialect: data line outside any section: %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dialect: scan snapshot: %w", err)
	}
	return db, nil
}

// splitUnescaped splits s on unescaped occurrences of sep, honoring the
// same backslash-escaping convention as escape/unescape.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			cur.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			cur.WriteByte(c)
			escaped = true
			continue
		}
		if c == sep {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	parts = append(parts, cur.String())
	return parts
}

func importStringLine(db *pathdb.DB, line string) error {
	parts := splitUnescaped(line, ' ')
	if len(parts) < 2 {
		return fmt.Errorf("dialect: malformed [strings] line: %q", line)
	}
	wantID, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("dialect: malformed [strings] index in %q: %w", line, err)
	}
	value := unescape(strings.Join(parts[1:], " "))
	gotID := db.Interner.Intern(value)
	if int(gotID) != wantID {
		return fmt.Errorf("dialect: interner id mismatch for %q: expected %d, got %d (import order must match export order)", value, wantID, gotID)
	}
	return nil
}

func importEntityLine(db *pathdb.DB, line string) error {
	parts := splitUnescaped(line, ' ')
	if len(parts) < 2 {
		return fmt.Errorf("dialect: malformed [entities] line: %q", line)
	}
	typeID, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("dialect: malformed entity type id in %q: %w", line, err)
	}
	attrsText := ""
	if len(parts) >= 3 {
		attrsText = strings.Join(parts[2:], " ")
	}
	attrs, err := decodeAttrs(attrsText)
	if err != nil {
		return fmt.Errorf("dialect: entity %q: %w", line, err)
	}
	db.AddEntity(interner.StrId(typeID), attrs)
	return nil
}

func importRelationLine(db *pathdb.DB, line string) error {
	parts := splitUnescaped(line, ' ')
	if len(parts) < 5 {
		return fmt.Errorf("dialect: malformed [relations] line: %q", line)
	}
	relTypeID, err1 := strconv.Atoi(parts[1])
	source, err2 := strconv.Atoi(parts[2])
	target, err3 := strconv.Atoi(parts[3])
	numerator, err4 := strconv.ParseUint(parts[4], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return fmt.Errorf("dialect: malformed relation fields in %q", line)
	}
	attrsText := ""
	if len(parts) >= 6 {
		attrsText = strings.Join(parts[5:], " ")
	}
	attrs, err := decodeAttrs(attrsText)
	if err != nil {
		return fmt.Errorf("dialect: relation %q: %w", line, err)
	}
	confidence, err := fixedprob.TryNew(uint32(numerator))
	if err != nil {
		return fmt.Errorf("dialect: relation %q: %w", line, err)
	}
	db.AddRelation(interner.StrId(relTypeID), graph.EntityID(source), graph.EntityID(target), confidence, attrs)
	return nil
}

func importEquivalenceLine(db *pathdb.DB, line string) error {
	parts := splitUnescaped(line, ' ')
	if len(parts) != 3 {
		return fmt.Errorf("dialect: malformed [equivalences] line: %q", line)
	}
	labelID, err1 := strconv.Atoi(parts[0])
	a, err2 := strconv.Atoi(parts[1])
	b, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return fmt.Errorf("dialect: malformed equivalence fields in %q", line)
	}
	db.AddEquivalence(interner.StrId(labelID), graph.EntityID(a), graph.EntityID(b))
	return nil
}

func decodeAttrs(s string) (map[interner.StrId]graph.Value, error) {
	attrs := make(map[interner.StrId]graph.Value)
	if s == "" {
		return attrs, nil
	}
	for _, kv := range splitUnescaped(s, ';') {
		if kv == "" {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			return nil, fmt.Errorf("malformed attribute %q", kv)
		}
		keyID, err := strconv.Atoi(kv[:eq])
		if err != nil {
			return nil, fmt.Errorf("malformed attribute key %q: %w", kv, err)
		}
		val, err := decodeValue(kv[eq+1:])
		if err != nil {
			return nil, fmt.Errorf("malformed attribute value %q: %w", kv, err)
		}
		attrs[interner.StrId(keyID)] = val
	}
	return attrs, nil
}

func decodeValue(s string) (graph.Value, error) {
	if len(s) < 2 || s[1] != ':' {
		return graph.Value{}, fmt.Errorf("malformed value %q", s)
	}
	tag, rest := s[0], s[2:]
	switch tag {
	case 's':
		return graph.StringValue(unescape(rest)), nil
	case 'i':
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.IntValue(n), nil
	case 'f':
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.FloatValue(f), nil
	case 'b':
		bv, err := strconv.ParseBool(rest)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.BoolValue(bv), nil
	case 'r':
		n, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.EntityRefValue(uint32(n)), nil
	default:
		return graph.Value{}, fmt.Errorf("unknown value tag %q", string(tag))
	}
}
