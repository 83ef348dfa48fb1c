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
	"fmt"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// FieldDecl is one declared field of a relation: its name, the name of the
// object type it is typed at, and its declaration order (used for
// positional rendering in the textual dialect).
type FieldDecl struct {
	Name  string
	Type  string
	Index int
}

// RelationDecl is one declared n-ary relation within a schema.
type RelationDecl struct {
	Name   string
	Fields []FieldDecl
}

// FieldByName finds a field declaration by name.
func (r RelationDecl) FieldByName(name string) (FieldDecl, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDecl{}, false
}

// SchemaIndex is the in-memory view of one axi schema: its object types and
// relation declarations, keyed by name for O(1) typing lookups. Grounded on
// the `SchemaIndex::new(schema)` constructor referenced by
// axi_module_import.rs, reconstructed here from the meta-plane graph shape
// rather than from a schema_v1 AST (PathDB has no module parser; the
// meta-plane entities this index reads are built directly through the DB
// API).
type SchemaIndex struct {
	Name        string
	ObjectTypes map[string]bool
	Relations   map[string]RelationDecl
	// Subtypes maps a sub type name to the set of its direct supertypes.
	Subtypes map[string]map[string]bool
	// ConstraintsByRelation maps a relation name to every constraint
	// declared against it in the schema's theory.
	ConstraintsByRelation map[string][]ConstraintDecl
}

func newSchemaIndex(name string) *SchemaIndex {
	return &SchemaIndex{
		Name:                  name,
		ObjectTypes:           make(map[string]bool),
		Relations:             make(map[string]RelationDecl),
		Subtypes:              make(map[string]map[string]bool),
		ConstraintsByRelation: make(map[string][]ConstraintDecl),
	}
}

// IsSubtypeOf reports whether sub is sub <= sup transitively, including the
// reflexive case sub == sup.
func (s *SchemaIndex) IsSubtypeOf(sub, sup string) bool {
	if sub == sup {
		return true
	}
	visited := make(map[string]bool)
	var walk func(t string) bool
	walk = func(t string) bool {
		if visited[t] {
			return false
		}
		visited[t] = true
		for parent := range s.Subtypes[t] {
			if parent == sup || walk(parent) {
				return true
			}
		}
		return false
	}
	return walk(sub)
}

// MetaPlaneIndex is the in-memory representation of every schema declared
// in a PathDB's meta-plane, built once and reused across typing/constraint
// operations. Grounded on MetaPlaneIndex::from_db (axi_type.rs,
// axi_semantics_tests.rs).
type MetaPlaneIndex struct {
	Schemas map[string]*SchemaIndex
}

// FromDB scans db's meta-plane entities and relations (AxiMetaSchema,
// AxiMetaObjectType, AxiMetaRelationDecl, AxiMetaFieldDecl,
// AxiMetaSubtypeDecl and their connecting edges) and builds the
// corresponding in-memory index.
func FromDB(db *pathdb.DB) (*MetaPlaneIndex, error) {
	m := &MetaPlaneIndex{Schemas: make(map[string]*SchemaIndex)}

	schemaTypeID, ok := db.Interner.IDOf(TypeSchema)
	if !ok {
		// No schemas imported yet; an empty index is valid.
		return m, nil
	}
	nameKeyID, hasNameKey := db.Interner.IDOf(AttrName)

	schemaEntityByName := make(map[string]graph.EntityID)
	for _, id := range db.Entities.ByType(schemaTypeID).ToSlice() {
		e, ok := db.Entities.Get(graph.EntityID(id))
		if !ok {
			continue
		}
		name, ok := schemaName(db, e, hasNameKey, nameKeyID)
		if !ok {
			continue
		}
		idx := newSchemaIndex(name)
		m.Schemas[name] = idx
		schemaEntityByName[name] = e.ID
	}

	if err := m.loadObjectTypes(db, schemaEntityByName); err != nil {
		return nil, err
	}
	if err := m.loadRelationDecls(db, schemaEntityByName); err != nil {
		return nil, err
	}
	if err := m.loadSubtypeDecls(db, schemaEntityByName); err != nil {
		return nil, err
	}
	if err := m.loadConstraintDecls(db, schemaEntityByName); err != nil {
		return nil, err
	}
	return m, nil
}

func schemaName(db *pathdb.DB, e graph.Entity, hasNameKey bool, nameKeyID interner.StrId) (string, bool) {
	if !hasNameKey {
		return "", false
	}
	v, ok := e.Attrs[nameKeyID]
	if !ok || v.Kind != graph.KindString {
		return "", false
	}
	return v.Str, true
}

func (m *MetaPlaneIndex) loadObjectTypes(db *pathdb.DB, schemaByName map[string]graph.EntityID) error {
	typeID, ok := db.Interner.IDOf(TypeObjectType)
	if !ok {
		return nil
	}
	relID, ok := db.Interner.IDOf(RelSchemaHasObject)
	if !ok {
		return nil
	}
	nameKeyID, ok := db.Interner.IDOf(AttrName)
	if !ok {
		return nil
	}

	for schemaNameStr, schemaEntity := range schemaByName {
		idx := m.Schemas[schemaNameStr]
		for _, objID := range db.Relations.Targets(relID, schemaEntity).ToSlice() {
			e, ok := db.Entities.Get(graph.EntityID(objID))
			if !ok || e.TypeID != typeID {
				continue
			}
			v, ok := e.Attrs[nameKeyID]
			if !ok || v.Kind != graph.KindString {
				continue
			}
			idx.ObjectTypes[v.Str] = true
		}
	}
	return nil
}

func (m *MetaPlaneIndex) loadRelationDecls(db *pathdb.DB, schemaByName map[string]graph.EntityID) error {
	relDeclTypeID, ok := db.Interner.IDOf(TypeRelationDecl)
	if !ok {
		return nil
	}
	hasRelID, ok := db.Interner.IDOf(RelSchemaHasRelation)
	if !ok {
		return nil
	}
	fieldRelID, hasFieldRel := db.Interner.IDOf(RelRelationHasField)
	nameKeyID, _ := db.Interner.IDOf(AttrName)
	fieldNameKeyID, _ := db.Interner.IDOf(AttrFieldName)
	fieldTypeKeyID, _ := db.Interner.IDOf(AttrFieldType)
	fieldIndexKeyID, _ := db.Interner.IDOf(AttrFieldIndex)

	for schemaNameStr, schemaEntity := range schemaByName {
		idx := m.Schemas[schemaNameStr]
		for _, relDeclID := range db.Relations.Targets(hasRelID, schemaEntity).ToSlice() {
			e, ok := db.Entities.Get(graph.EntityID(relDeclID))
			if !ok || e.TypeID != relDeclTypeID {
				continue
			}
			nameVal, ok := e.Attrs[nameKeyID]
			if !ok || nameVal.Kind != graph.KindString {
				continue
			}
			decl := RelationDecl{Name: nameVal.Str}

			if hasFieldRel {
				for _, fieldID := range db.Relations.Targets(fieldRelID, e.ID).ToSlice() {
					fe, ok := db.Entities.Get(graph.EntityID(fieldID))
					if !ok {
						continue
					}
					fNameVal, ok1 := fe.Attrs[fieldNameKeyID]
					fTypeVal, ok2 := fe.Attrs[fieldTypeKeyID]
					if !ok1 || !ok2 {
						continue
					}
					idx2 := 0
					if iv, ok := fe.Attrs[fieldIndexKeyID]; ok && iv.Kind == graph.KindInt {
						idx2 = int(iv.Int)
					}
					decl.Fields = append(decl.Fields, FieldDecl{
						Name:  fNameVal.Str,
						Type:  fTypeVal.Str,
						Index: idx2,
					})
				}
			}
			idx.Relations[decl.Name] = decl
		}
	}
	return nil
}

func (m *MetaPlaneIndex) loadSubtypeDecls(db *pathdb.DB, schemaByName map[string]graph.EntityID) error {
	subtypeDeclTypeID, ok := db.Interner.IDOf(TypeSubtypeDecl)
	if !ok {
		return nil
	}
	hasSubtypeRelID, ok := db.Interner.IDOf(RelSchemaHasSubtype)
	if !ok {
		return nil
	}
	subKeyID, _ := db.Interner.IDOf(AttrSubtypeSub)
	supKeyID, _ := db.Interner.IDOf(AttrSubtypeSup)

	for schemaNameStr, schemaEntity := range schemaByName {
		idx := m.Schemas[schemaNameStr]
		for _, declID := range db.Relations.Targets(hasSubtypeRelID, schemaEntity).ToSlice() {
			e, ok := db.Entities.Get(graph.EntityID(declID))
			if !ok || e.TypeID != subtypeDeclTypeID {
				continue
			}
			subVal, ok1 := e.Attrs[subKeyID]
			supVal, ok2 := e.Attrs[supKeyID]
			if !ok1 || !ok2 {
				continue
			}
			if idx.Subtypes[subVal.Str] == nil {
				idx.Subtypes[subVal.Str] = make(map[string]bool)
			}
			idx.Subtypes[subVal.Str][supVal.Str] = true
		}
	}
	return nil
}

// Schema looks up a schema by name.
func (m *MetaPlaneIndex) Schema(name string) (*SchemaIndex, bool) {
	s, ok := m.Schemas[name]
	return s, ok
}

// AxiType is the small runtime type algebra over PathDB entities: either an
// object type, a reified relation-tuple (fact) type, or a path type between
// two object types. Grounded on axi_type.rs's AxiType enum.
type AxiType struct {
	Kind     AxiTypeKind
	Schema   string
	Name     string // ObjectType
	Relation string // FactType
	FromType string // PathType
	ToType   string // PathType
}

// AxiTypeKind discriminates AxiType's variant.
type AxiTypeKind uint8

const (
	AxiTypeObject AxiTypeKind = iota
	AxiTypeFact
	AxiTypePath
)

func (t AxiType) String() string {
	switch t.Kind {
	case AxiTypeObject:
		return fmt.Sprintf("%s.%s", t.Schema, t.Name)
	case AxiTypeFact:
		return fmt.Sprintf("%s.%s(fact)", t.Schema, t.Relation)
	case AxiTypePath:
		return fmt.Sprintf("%s.Path(%s,%s)", t.Schema, t.FromType, t.ToType)
	default:
		return "?"
	}
}
