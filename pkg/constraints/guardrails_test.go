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
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/metaplane"
)

func TestCheckProposedFactFlagsKeyViolationBeforeCommit(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	in := f.db.Interner
	fieldsKey := in.Intern(metaplane.AttrConstraintFields)
	f.addConstraint(metaplane.ConstraintKey, map[interner.StrId]graph.Value{fieldsKey: graph.StringValue("a,b")})

	p1 := f.db.AddEntity(in.Intern("Person"), nil)
	p2 := f.db.AddEntity(in.Intern("Person"), nil)
	p3 := f.db.AddEntity(in.Intern("Person"), nil)
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p2})

	checker := constraints.New(f.db, f.meta(t), "S")

	// A fact that reuses the same (a, b) key as the existing tuple must be
	// flagged before it is ever written.
	violations := checker.CheckProposedFact("Spouse", map[string]graph.EntityID{"a": p1, "b": p2})
	require.NotEmpty(t, violations)
	assert.Equal(t, constraints.SeverityCritical, violations[0].Severity)
	assert.NotEmpty(t, violations[0].Hint)

	// A fact with a fresh key is not flagged.
	clean := checker.CheckProposedFact("Spouse", map[string]graph.EntityID{"a": p1, "b": p3})
	assert.Empty(t, clean)
}

func TestCheckProposedFactFlagsCardinalityOverflowBeforeCommit(t *testing.T) {
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

	checker := constraints.New(f.db, f.meta(t), "S")
	violations := checker.CheckProposedFact("Mentors", map[string]graph.EntityID{"mentor": mentor, "mentee": m2})
	require.NotEmpty(t, violations)
	assert.Equal(t, constraints.SeverityCritical, violations[0].Severity)
}

func TestCheckProposedFactDoesNotFlagPreExistingViolations(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	in := f.db.Interner
	fieldsKey := in.Intern(metaplane.AttrConstraintFields)
	f.addConstraint(metaplane.ConstraintKey, map[interner.StrId]graph.Value{fieldsKey: graph.StringValue("a,b")})

	p1 := f.db.AddEntity(in.Intern("Person"), nil)
	p2 := f.db.AddEntity(in.Intern("Person"), nil)
	p3 := f.db.AddEntity(in.Intern("Person"), nil)
	p4 := f.db.AddEntity(in.Intern("Person"), nil)
	// Already-committed data that violates the key constraint on its own.
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p2})
	f.addTuple([]string{"a", "b"}, []graph.EntityID{p1, p2})

	checker := constraints.New(f.db, f.meta(t), "S")
	// A proposal unrelated to the pre-existing duplicate must not be
	// blamed for it.
	violations := checker.CheckProposedFact("Spouse", map[string]graph.EntityID{"a": p3, "b": p4})
	assert.Empty(t, violations)
}

func TestCheckProposedFactOnUnknownSchemaIsCritical(t *testing.T) {
	f := newFixture(t, "Spouse", []string{"a", "b"})
	checker := constraints.New(f.db, f.meta(t), "DoesNotExist")
	violations := checker.CheckProposedFact("Spouse", nil)
	require.Len(t, violations, 1)
	assert.Equal(t, constraints.SeverityCritical, violations[0].Severity)
}
