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

package constraints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/constraints"
	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/metaplane"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// fixture builds a minimal meta-plane graph: schema S with object type
// Person and an n-ary relation, plus a theory entity that declares
// constraints against it. Each test adds its own constraint declaration(s)
// and fact tuples on top of this shared scaffold.
type fixture struct {
	db       *pathdb.DB
	schemaID graph.EntityID
	theoryID graph.EntityID
	personID graph.EntityID
	relName  string
	relID    graph.EntityID
}

func newFixture(t *testing.T, relName string, fieldNames []string) *fixture {
	t.Helper()
	db := pathdb.New(pathdb.DefaultConfig())
	in := db.Interner

	schemaType := in.Intern(metaplane.TypeSchema)
	objectTypeType := in.Intern(metaplane.TypeObjectType)
	relDeclType := in.Intern(metaplane.TypeRelationDecl)
	fieldDeclType := in.Intern(metaplane.TypeFieldDecl)
	theoryType := in.Intern(metaplane.TypeTheory)

	nameKey := in.Intern(metaplane.AttrName)
	fieldNameKey := in.Intern(metaplane.AttrFieldName)
	fieldTypeKey := in.Intern(metaplane.AttrFieldType)
	fieldIndexKey := in.Intern(metaplane.AttrFieldIndex)

	hasObjectRel := in.Intern(metaplane.RelSchemaHasObject)
	hasRelationRel := in.Intern(metaplane.RelSchemaHasRelation)
	hasFieldRel := in.Intern(metaplane.RelRelationHasField)
	hasTheoryRel := in.Intern(metaplane.RelSchemaHasTheory)

	schemaS := db.AddEntity(schemaType, map[interner.StrId]graph.Value{nameKey: graph.StringValue("S")})
	person := db.AddEntity(objectTypeType, map[interner.StrId]graph.Value{nameKey: graph.StringValue("Person")})
	db.AddRelation(hasObjectRel, schemaS, person, fixedprob.One, nil)

	relDecl := db.AddEntity(relDeclType, map[interner.StrId]graph.Value{nameKey: graph.StringValue(relName)})
	db.AddRelation(hasRelationRel, schemaS, relDecl, fixedprob.One, nil)
	for i, fn := range fieldNames {
		field := db.AddEntity(fieldDeclType, map[interner.StrId]graph.Value{
			fieldNameKey:  graph.StringValue(fn),
			fieldTypeKey:  graph.StringValue("Person"),
			fieldIndexKey: graph.IntValue(i),
		})
		db.AddRelation(hasFieldRel, relDecl, field, fixedprob.One, nil)
	}

	theory := db.AddEntity(theoryType, map[interner.StrId]graph.Value{nameKey: graph.StringValue("T")})
	db.AddRelation(hasTheoryRel, schemaS, theory, fixedprob.One, nil)

	return &fixture{db: db, schemaID: schemaS, theoryID: theory, personID: person, relName: relName, relID: relDecl}
}

func (f *fixture) addConstraint(kind metaplane.ConstraintKind, attrs map[interner.StrId]graph.Value) {
	in := f.db.Interner
	constraintType := in.Intern(metaplane.TypeConstraint)
	hasConstraintRel := in.Intern(metaplane.RelTheoryHasConstraint)
	kindKey := in.Intern(metaplane.AttrConstraintKind)
	relKey := in.Intern(metaplane.AttrConstraintRelation)

	full := map[interner.StrId]graph.Value{
		kindKey: graph.StringValue(string(kind)),
		relKey:  graph.StringValue(f.relName),
	}
	for k, v := range attrs {
		full[k] = v
	}
	c := f.db.AddEntity(constraintType, full)
	f.db.AddRelation(hasConstraintRel, f.theoryID, c, fixedprob.One, nil)
}

func (f *fixture) addTuple(fieldNames []string, values []graph.EntityID) graph.EntityID {
	in := f.db.Interner
	schemaKey := in.Intern(metaplane.AttrAxiSchemaName)
	relKey := in.Intern(metaplane.AttrAxiRelation)
	factType := in.Intern(f.relName)

	fact := f.db.AddEntity(factType, map[interner.StrId]graph.Value{
		schemaKey: graph.StringValue("S"),
		relKey:    graph.StringValue(f.relName),
	})
	for i, fn := range fieldNames {
		rel := in.Intern(fn)
		f.db.AddRelation(rel, fact, values[i], fixedprob.One, nil)
	}
	return fact
}

func (f *fixture) meta(t *testing.T) *metaplane.MetaPlaneIndex {
	t.Helper()
	m, err := metaplane.FromDB(f.db)
	require.NoError(t, err)
	return m
}

func TestKeyConstraintDetectsDuplicateKey(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	in := f.db.Interner
	fieldsKey := in.Intern(metaplane.AttrConstraintFields)
	f.addConstraint(metaplane.ConstraintKey, map[interner.StrId]graph.Value{fieldsKey: graph.StringValue("a")})

	p1 := f.db.AddEntity(in.Intern("Person"), nil)
	p2 := f.db.AddEntity(in.Intern("Person"), nil)
	p3 := f.db.AddEntity(in.Intern("Person"), nil)
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p2})
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p3})

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0].Message, "key violation")
}

func TestFunctionalConstraintDetectsViolation(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	in := f.db.Interner
	srcKey := in.Intern(metaplane.AttrConstraintSrcField)
	dstKey := in.Intern(metaplane.AttrConstraintDstField)
	f.addConstraint(metaplane.ConstraintFunctional, map[interner.StrId]graph.Value{
		srcKey: graph.StringValue("a"),
		dstKey: graph.StringValue("b"),
	})

	p1 := f.db.AddEntity(in.Intern("Person"), nil)
	p2 := f.db.AddEntity(in.Intern("Person"), nil)
	p3 := f.db.AddEntity(in.Intern("Person"), nil)
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p2})
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p3})

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0].Message, "functional violation")
}

func TestSymmetricParamClosureIntroducesFunctionalViolation(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b", "ctx"})
	in := f.db.Interner
	fieldsKey := in.Intern(metaplane.AttrConstraintFields)
	paramKey := in.Intern(metaplane.AttrConstraintParamFields)
	srcKey := in.Intern(metaplane.AttrConstraintSrcField)
	dstKey := in.Intern(metaplane.AttrConstraintDstField)

	f.addConstraint(metaplane.ConstraintSymmetric, map[interner.StrId]graph.Value{
		fieldsKey: graph.StringValue("a,b"),
		paramKey:  graph.StringValue("ctx"),
	})
	f.addConstraint(metaplane.ConstraintFunctional, map[interner.StrId]graph.Value{
		srcKey: graph.StringValue("a"),
		dstKey: graph.StringValue("b"),
	})

	p1 := f.db.AddEntity(in.Intern("Person"), nil)
	p2 := f.db.AddEntity(in.Intern("Person"), nil)
	p3 := f.db.AddEntity(in.Intern("Person"), nil)
	ctx := f.db.AddEntity(in.Intern("Context"), nil)

	// (p1, p2, ctx) symmetric-closes to (p2, p1, ctx); adding (p2, p3, ctx)
	// then makes p2 -> {p1, p3} under the functional constraint.
	f.addTuple([]string{"a", "b", "ctx"}, []graph.EntityID{p1, p2, ctx})
	f.addTuple([]string{"a", "b", "ctx"}, []graph.EntityID{p2, p3, ctx})

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	found := false
	for _, v := range violations {
		if v.Kind == metaplane.ConstraintFunctional {
			found = true
		}
	}
	assert.True(t, found, "expected the symmetric closure to surface a functional violation, got %v", violations)
}

func TestTransitiveParamDoesNotMixContextFibers(t *testing.T) {
	f := newFixture(t, "Accessible", []string{"from", "to", "ctx"})
	in := f.db.Interner
	fieldsKey := in.Intern(metaplane.AttrConstraintFields)
	paramKey := in.Intern(metaplane.AttrConstraintParamFields)

	f.addConstraint(metaplane.ConstraintTransitive, map[interner.StrId]graph.Value{
		fieldsKey: graph.StringValue("from,to"),
		paramKey:  graph.StringValue("ctx"),
	})
	f.addConstraint(metaplane.ConstraintKey, map[interner.StrId]graph.Value{
		fieldsKey: graph.StringValue("from,ctx"),
	})

	p1 := f.db.AddEntity(in.Intern("Person"), nil)
	p2 := f.db.AddEntity(in.Intern("Person"), nil)
	p3 := f.db.AddEntity(in.Intern("Person"), nil)
	c0 := f.db.AddEntity(in.Intern("Context"), nil)
	c1 := f.db.AddEntity(in.Intern("Context"), nil)

	// p1->p2 in c0, p2->p3 in c1: different fibers, so the transitive
	// closure must not introduce p1->p3 in either fiber, and the key
	// constraint on (from, ctx) must pass.
	f.addTuple([]string{"from", "to", "ctx"}, []graph.EntityID{p1, p2, c0})
	f.addTuple([]string{"from", "to", "ctx"}, []graph.EntityID{p2, p3, c1})

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	for _, v := range violations {
		assert.NotContains(t, v.Message, "key violation")
	}
}

func TestUnknownConstraintKindFailsClosed(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	f.addConstraint(metaplane.ConstraintUnknown, nil)

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0].Message, "refused")
	assert.Contains(t, violations[0].Message, "unknown/unsupported")
}

func TestNamedBlockConstraintIsInert(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	in := f.db.Interner
	nameKey := in.Intern(metaplane.AttrConstraintName)
	textKey := in.Intern(metaplane.AttrConstraintText)
	f.addConstraint(metaplane.ConstraintNamedBlock, map[interner.StrId]graph.Value{
		nameKey: graph.StringValue("FutureRule"),
		textKey: graph.StringValue("someday we will check this by hand"),
	})

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	assert.Empty(t, violations)
}

func TestCardinalityConstraintDetectsOverflow(t *testing.T) {
	f := newFixture(t, "Mentors", []string{"mentor", "mentee"})
	in := f.db.Interner
	fieldsKey := in.Intern(metaplane.AttrConstraintFields)
	maxKey := in.Intern(metaplane.AttrConstraintMax)
	f.addConstraint(metaplane.ConstraintCardinality, map[interner.StrId]graph.Value{
		fieldsKey: graph.StringValue("mentor"),
		maxKey:    graph.IntValue(1),
	})

	mentor := f.db.AddEntity(in.Intern("Person"), nil)
	m1 := f.db.AddEntity(in.Intern("Person"), nil)
	m2 := f.db.AddEntity(in.Intern("Person"), nil)
	f.addTuple([]string{"mentor", "mentee"}, []graph.EntityID{mentor, m1})
	f.addTuple([]string{"mentor", "mentee"}, []graph.EntityID{mentor, m2})

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckAll()
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0].Message, "cardinality violation")
}
