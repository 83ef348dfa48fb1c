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

package metaplane

import (
	"strings"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// ConstraintKind discriminates a declared theory constraint. Grounded on
// the `ConstraintDecl` variants exercised by meta_plane_constraints_param_tests.rs
// and axi_constraints_ok_unit_tests.rs (symmetric/transitive with optional
// `param (...)` fiber fields, key, functional, plus a fail-closed unknown
// form and a preserved-but-inert named block).
type ConstraintKind string

const (
	ConstraintKey         ConstraintKind = "key"
	ConstraintFunctional  ConstraintKind = "functional"
	ConstraintSymmetric   ConstraintKind = "symmetric"
	ConstraintTransitive  ConstraintKind = "transitive"
	ConstraintWhereIn     ConstraintKind = "where_in"
	ConstraintCardinality ConstraintKind = "cardinality"
	// ConstraintNamedBlock is a human-authored prose block
	// (`constraint Name: ...`) preserved verbatim but never executed or
	// certified — it must not trip the fail-closed unknown-constraint
	// rule.
	ConstraintNamedBlock ConstraintKind = "named_block"
	// ConstraintUnknown is any constraint clause this checker does not
	// recognize. ConstraintChecker fails closed on these: an unrecognized
	// constraint is treated as a theory the checker cannot enforce, not as
	// one that is vacuously satisfied.
	ConstraintUnknown ConstraintKind = "unknown"
)

// ConstraintDecl is one constraint declared in a theory, scoped to the
// relation it governs.
type ConstraintDecl struct {
	Kind     ConstraintKind
	Relation string

	// Key: Fields names the key's field set.
	Fields []string
	// Functional: SrcField -> DstField.
	SrcField string
	DstField string
	// Symmetric/Transitive: OnFrom/OnTo name the pair of fields the
	// closure is computed over; Params, if non-empty, names the fiber
	// fields the closure must not mix across (the "param (...)" clause).
	OnFrom string
	OnTo   string
	Params []string
	// WhereIn: WhereField must take one of WhereInValues.
	WhereField    string
	WhereInValues []string
	// Cardinality: at most Max tuples sharing Fields.
	Max int
	// NamedBlock/Unknown: Name and raw Text, preserved for round-tripping
	// and error messages.
	Name string
	Text string
}

func (m *MetaPlaneIndex) loadConstraintDecls(db *pathdb.DB, schemaByName map[string]graph.EntityID) error {
	constraintTypeID, ok := db.Interner.IDOf(TypeConstraint)
	if !ok {
		return nil
	}
	theoryHasConstraintID, ok := db.Interner.IDOf(RelTheoryHasConstraint)
	if !ok {
		return nil
	}
	hasTheoryID, ok := db.Interner.IDOf(RelSchemaHasTheory)
	if !ok {
		return nil
	}

	kindKeyID, _ := db.Interner.IDOf(AttrConstraintKind)
	relKeyID, _ := db.Interner.IDOf(AttrConstraintRelation)
	fieldsKeyID, _ := db.Interner.IDOf(AttrConstraintFields)
	srcKeyID, _ := db.Interner.IDOf(AttrConstraintSrcField)
	dstKeyID, _ := db.Interner.IDOf(AttrConstraintDstField)
	paramKeyID, _ := db.Interner.IDOf(AttrConstraintParamFields)
	whereFieldKeyID, _ := db.Interner.IDOf(AttrConstraintWhereField)
	whereValuesKeyID, _ := db.Interner.IDOf(AttrConstraintWhereInValues)
	maxKeyID, _ := db.Interner.IDOf(AttrConstraintMax)
	nameKeyID, _ := db.Interner.IDOf(AttrConstraintName)
	textKeyID, _ := db.Interner.IDOf(AttrConstraintText)

	for schemaNameStr, schemaEntity := range schemaByName {
		idx := m.Schemas[schemaNameStr]
		for _, theoryID := range db.Relations.Targets(hasTheoryID, schemaEntity).ToSlice() {
			for _, declID := range db.Relations.Targets(theoryHasConstraintID, graph.EntityID(theoryID)).ToSlice() {
				e, ok := db.Entities.Get(graph.EntityID(declID))
				if !ok || e.TypeID != constraintTypeID {
					continue
				}
				decl := ConstraintDecl{Kind: ConstraintUnknown}
				if v, ok := e.Attrs[kindKeyID]; ok {
					decl.Kind = ConstraintKind(v.Str)
				}
				if v, ok := e.Attrs[relKeyID]; ok {
					decl.Relation = v.Str
				}
				if v, ok := e.Attrs[fieldsKeyID]; ok {
					decl.Fields = splitCSV(v.Str)
				}
				if v, ok := e.Attrs[srcKeyID]; ok {
					decl.SrcField = v.Str
				}
				if v, ok := e.Attrs[dstKeyID]; ok {
					decl.DstField = v.Str
				}
				if v, ok := e.Attrs[paramKeyID]; ok && v.Str != "" {
					decl.Params = splitCSV(v.Str)
				}
				if v, ok := e.Attrs[whereFieldKeyID]; ok {
					decl.WhereField = v.Str
				}
				if v, ok := e.Attrs[whereValuesKeyID]; ok {
					decl.WhereInValues = splitCSV(v.Str)
				}
				if v, ok := e.Attrs[maxKeyID]; ok {
					decl.Max = int(v.Int)
				}
				if v, ok := e.Attrs[nameKeyID]; ok {
					decl.Name = v.Str
				}
				if v, ok := e.Attrs[textKeyID]; ok {
					decl.Text = v.Str
				}
				if len(decl.Fields) >= 2 && decl.Kind == "" {
					// defensive fallback, never expected given kindKeyID above
				}
				if decl.Kind == ConstraintSymmetric || decl.Kind == ConstraintTransitive {
					if len(decl.Fields) == 2 {
						decl.OnFrom, decl.OnTo = decl.Fields[0], decl.Fields[1]
					}
				}
				if idx.ConstraintsByRelation == nil {
					idx.ConstraintsByRelation = make(map[string][]ConstraintDecl)
				}
				idx.ConstraintsByRelation[decl.Relation] = append(idx.ConstraintsByRelation[decl.Relation], decl)
			}
		}
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
