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
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// TypeCheckErrorKind discriminates AxiTypeCheckError's variant, mirroring
// AxiTypeCheckError from axi_semantics_tests.rs's usage (FieldTypeMismatch,
// plus the UnknownField/MissingField/UnknownRelation/UnknownSchema cases
// SPEC_FULL.md names alongside it).
type TypeCheckErrorKind string

const (
	ErrFieldTypeMismatch TypeCheckErrorKind = "field_type_mismatch"
	ErrUnknownField      TypeCheckErrorKind = "unknown_field"
	ErrMissingField      TypeCheckErrorKind = "missing_field"
	ErrUnknownRelation   TypeCheckErrorKind = "unknown_relation"
	ErrUnknownSchema     TypeCheckErrorKind = "unknown_schema"
)

// AxiTypeCheckError is one fact type-checking failure.
type AxiTypeCheckError struct {
	Kind         TypeCheckErrorKind
	Fact         graph.EntityID
	Schema       string
	Relation     string
	Field        string
	ExpectedType string
	ActualType   string
}

func (e AxiTypeCheckError) Error() string {
	switch e.Kind {
	case ErrFieldTypeMismatch:
		return fmt.Sprintf("fact %d: relation %q field %q: expected type %q, got %q", e.Fact, e.Relation, e.Field, e.ExpectedType, e.ActualType)
	case ErrUnknownField:
		return fmt.Sprintf("fact %d: relation %q has no field %q", e.Fact, e.Relation, e.Field)
	case ErrMissingField:
		return fmt.Sprintf("fact %d: relation %q is missing required field %q", e.Fact, e.Relation, e.Field)
	case ErrUnknownRelation:
		return fmt.Sprintf("fact %d: schema %q has no relation %q", e.Fact, e.Schema, e.Relation)
	case ErrUnknownSchema:
		return fmt.Sprintf("fact %d: unknown schema %q", e.Fact, e.Schema)
	default:
		return fmt.Sprintf("fact %d: type check error", e.Fact)
	}
}

// TypeCheckReport summarizes a typecheck_axi_facts run.
type TypeCheckReport struct {
	CheckedFacts int
	Errors       []AxiTypeCheckError
}

// Ok reports whether the run found zero errors.
func (r TypeCheckReport) Ok() bool { return len(r.Errors) == 0 }

// AxiTypingContext is the runtime typing environment derived from a
// MetaPlaneIndex, grounded on axi_type.rs's TypingEnv.
type AxiTypingContext struct {
	Meta *MetaPlaneIndex
}

// NewAxiTypingContext builds a typing context from db's meta-plane.
func NewAxiTypingContext(db *pathdb.DB) (*AxiTypingContext, error) {
	meta, err := FromDB(db)
	if err != nil {
		return nil, err
	}
	return &AxiTypingContext{Meta: meta}, nil
}

// SchemaOfEntity resolves the axi_schema attribute of an entity.
func (t *AxiTypingContext) SchemaOfEntity(db *pathdb.DB, entity graph.EntityID) (string, bool) {
	return stringAttr(db, entity, AttrAxiSchemaName)
}

// RelationOfFact resolves the axi_relation attribute of a fact entity.
func (t *AxiTypingContext) RelationOfFact(db *pathdb.DB, entity graph.EntityID) (string, bool) {
	return stringAttr(db, entity, AttrAxiRelation)
}

func stringAttr(db *pathdb.DB, entity graph.EntityID, attr string) (string, bool) {
	keyID, ok := db.Interner.IDOf(attr)
	if !ok {
		return "", false
	}
	e, ok := db.Entities.Get(entity)
	if !ok {
		return "", false
	}
	v, ok := e.Attrs[keyID]
	if !ok || v.Kind != graph.KindString {
		return "", false
	}
	return v.Str, true
}

// TypeOfEntity computes the best-effort AxiType of entity: a FactType if it
// carries axi_relation, otherwise an ObjectType named by its PathDB type.
// Matches axi_type.rs's axi_type_of_entity.
func (t *AxiTypingContext) TypeOfEntity(db *pathdb.DB, entity graph.EntityID) (AxiType, bool) {
	schema, ok := t.SchemaOfEntity(db, entity)
	if !ok {
		return AxiType{}, false
	}
	if relation, ok := t.RelationOfFact(db, entity); ok {
		return AxiType{Kind: AxiTypeFact, Schema: schema, Relation: relation}, true
	}
	e, ok := db.Entities.Get(entity)
	if !ok {
		return AxiType{}, false
	}
	typeName, ok := db.Interner.Lookup(e.TypeID)
	if !ok {
		return AxiType{}, false
	}
	return AxiType{Kind: AxiTypeObject, Schema: schema, Name: typeName}, true
}

// TypedEntity pairs an entity with the schema-scoped object type name it
// was resolved under, including a match via subtyping (e.g. a SafetyTip
// entity returned from a FindByAxiType(db, "Concept") scan because
// SafetyTip subtypes Concept). Grounded on axi_typed.rs's AxiTypedEntity.
type TypedEntity struct {
	Entity   graph.EntityID
	Schema   string
	TypeName string
}

// FindByAxiType returns every entity in schemaName whose object type equals
// typeName or subtypes it, paired with its own (possibly more specific)
// type name. Grounded on AxiSchemaContext::find_by_axi_type (learning.rs's
// build_typed_entity_map), the lookup pkg/query/learning.go drives its
// concept/guideline/example/text extraction from.
func (t *AxiTypingContext) FindByAxiType(db *pathdb.DB, schemaName, typeName string) []TypedEntity {
	schemaIdx, ok := t.Meta.Schema(schemaName)
	if !ok {
		return nil
	}
	var out []TypedEntity
	for _, e := range db.Entities.All() {
		schema, ok := t.SchemaOfEntity(db, e.ID)
		if !ok || schema != schemaName {
			continue
		}
		if _, isFact := t.RelationOfFact(db, e.ID); isFact {
			continue
		}
		entityTypeName, ok := db.Interner.Lookup(e.TypeID)
		if !ok {
			continue
		}
		if !schemaIdx.IsSubtypeOf(entityTypeName, typeName) {
			continue
		}
		out = append(out, TypedEntity{Entity: e.ID, Schema: schemaName, TypeName: entityTypeName})
	}
	return out
}

// TypecheckAxiFacts scans every fact node in db and verifies each of its
// declared fields resolves to an edge whose target's object type matches
// (or subtypes) the field's declared type. Grounded on
// axi_semantics_tests.rs's typecheck_axi_facts contract: it returns a
// report counting checked facts and collecting every FieldTypeMismatch (and
// related) error rather than stopping at the first one, so a module import
// can report every problem in one pass.
func (t *AxiTypingContext) TypecheckAxiFacts(db *pathdb.DB) TypeCheckReport {
	var report TypeCheckReport

	relKeyID, ok := db.Interner.IDOf(AttrAxiRelation)
	if !ok {
		return report
	}

	for _, e := range db.Entities.All() {
		relVal, ok := e.Attrs[relKeyID]
		if !ok {
			continue
		}
		report.CheckedFacts++

		schema, ok := t.SchemaOfEntity(db, e.ID)
		if !ok {
			report.Errors = append(report.Errors, AxiTypeCheckError{Kind: ErrUnknownSchema, Fact: e.ID})
			continue
		}
		schemaIdx, ok := t.Meta.Schema(schema)
		if !ok {
			report.Errors = append(report.Errors, AxiTypeCheckError{Kind: ErrUnknownSchema, Fact: e.ID, Schema: schema})
			continue
		}
		relDecl, ok := schemaIdx.Relations[relVal.Str]
		if !ok {
			report.Errors = append(report.Errors, AxiTypeCheckError{Kind: ErrUnknownRelation, Fact: e.ID, Schema: schema, Relation: relVal.Str})
			continue
		}

		for _, field := range relDecl.Fields {
			fieldRelID, ok := db.Interner.IDOf(field.Name)
			if !ok {
				report.Errors = append(report.Errors, AxiTypeCheckError{Kind: ErrMissingField, Fact: e.ID, Schema: schema, Relation: relDecl.Name, Field: field.Name})
				continue
			}
			targets := db.Relations.Targets(fieldRelID, e.ID)
			if targets.IsEmpty() {
				report.Errors = append(report.Errors, AxiTypeCheckError{Kind: ErrMissingField, Fact: e.ID, Schema: schema, Relation: relDecl.Name, Field: field.Name})
				continue
			}
			for _, targetRaw := range targets.ToSlice() {
				targetID := graph.EntityID(targetRaw)
				targetEntity, ok := db.Entities.Get(targetID)
				if !ok {
					continue
				}
				actualTypeName, ok := db.Interner.Lookup(targetEntity.TypeID)
				if !ok {
					continue
				}
				if actualTypeName == field.Type || schemaIdx.IsSubtypeOf(actualTypeName, field.Type) {
					continue
				}
				report.Errors = append(report.Errors, AxiTypeCheckError{
					Kind: ErrFieldTypeMismatch, Fact: e.ID, Schema: schema, Relation: relDecl.Name,
					Field: field.Name, ExpectedType: field.Type, ActualType: actualTypeName,
				})
			}
		}
	}
	return report
}
