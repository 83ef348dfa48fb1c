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

package certificate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/certificate"
	"github.com/kraklabs/pathdb/pkg/graph"
)

// buildPersonToIndividualMorphism models renaming a small HR-ish schema's
// Person/employedBy shape to a World-ish Individual/affiliatedWith shape --
// enough structure to exercise object and relation renaming.
func buildPersonToIndividualMorphism() certificate.SchemaMorphismV1 {
	return certificate.SchemaMorphismV1{
		Name:   "PersonToIndividual",
		Source: "HR",
		Target: "World",
		Arrows: certificate.ArrowMapV1{
			ObjectMap:   map[string]string{"Person": "Individual", "Org": "Org"},
			RelationMap: map[string]string{"employedBy": "affiliatedWith"},
		},
	}
}

func TestApplyMorphismRenamesObjectsAndRelations(t *testing.T) {
	morphism := buildPersonToIndividualMorphism()
	source := certificate.InstanceV1{
		Schema: "HR",
		Objects: []certificate.ObjectV1{
			{ID: 1, Type: "Person"},
			{ID: 2, Type: "Org"},
		},
		Facts: []certificate.FactV1{
			{Relation: "employedBy", Fields: map[string]graph.EntityID{"from": 1, "to": 2}},
		},
	}

	target := certificate.ApplyMorphism(morphism, "World", source)

	assert.Equal(t, "World", target.Schema)
	require.Len(t, target.Objects, 2)
	assert.Equal(t, "Individual", target.Objects[0].Type)
	assert.Equal(t, "Org", target.Objects[1].Type)
	require.Len(t, target.Facts, 1)
	assert.Equal(t, "affiliatedWith", target.Facts[0].Relation)
	assert.Equal(t, graph.EntityID(1), target.Facts[0].Fields["from"])
}

func TestDeltaFMigrationRoundTripsAndVerifies(t *testing.T) {
	morphism := buildPersonToIndividualMorphism()
	sourceSchema := certificate.SchemaV1{Name: "HR", ObjectTypes: []string{"Person", "Org"}}
	targetSchema := certificate.SchemaV1{Name: "World", ObjectTypes: []string{"Individual", "Org"}}

	source := certificate.InstanceV1{
		Schema:  "HR",
		Objects: []certificate.ObjectV1{{ID: 1, Type: "Person"}, {ID: 2, Type: "Org"}},
		Facts:   []certificate.FactV1{{Relation: "employedBy", Fields: map[string]graph.EntityID{"from": 1, "to": 2}}},
	}
	computed := certificate.ApplyMorphism(morphism, "World", source)

	cert, err := certificate.NewDeltaFMigration(morphism, sourceSchema, targetSchema, source, computed)
	require.NoError(t, err)
	assert.Equal(t, certificate.KindDeltaFMigration, cert.Kind)

	decoded, err := certificate.DecodeMigration(cert)
	require.NoError(t, err)
	assert.Equal(t, certificate.DirectionDeltaF, decoded.Direction)
	require.NoError(t, certificate.VerifyMigration(decoded))
}

func TestVerifyMigrationRejectsTamperedComputedInstance(t *testing.T) {
	morphism := buildPersonToIndividualMorphism()
	sourceSchema := certificate.SchemaV1{Name: "HR"}
	targetSchema := certificate.SchemaV1{Name: "World"}

	source := certificate.InstanceV1{
		Schema:  "HR",
		Objects: []certificate.ObjectV1{{ID: 1, Type: "Person"}},
	}
	computed := certificate.ApplyMorphism(morphism, "World", source)
	// Tamper: claim a different object type than the morphism actually
	// produces.
	computed.Objects[0].Type = "NotWhatTheMorphismSays"

	cert, err := certificate.NewDeltaFMigration(morphism, sourceSchema, targetSchema, source, computed)
	require.NoError(t, err)

	decoded, err := certificate.DecodeMigration(cert)
	require.NoError(t, err)
	assert.Error(t, certificate.VerifyMigration(decoded))
}

func TestSigmaFMigrationPullsBackToSourceSchema(t *testing.T) {
	morphism := buildPersonToIndividualMorphism()
	sourceSchema := certificate.SchemaV1{Name: "HR"}
	targetSchema := certificate.SchemaV1{Name: "World"}

	// Σ_F direction: given target-schema data, pull back along the inverse
	// naming (here just re-using ApplyMorphism in the reverse-labeled
	// direction for the fixture -- exercising the stored Direction tag is
	// what matters, not a real inverse functor).
	target := certificate.InstanceV1{
		Schema:  "World",
		Objects: []certificate.ObjectV1{{ID: 1, Type: "Individual"}},
	}
	computedSource := certificate.InstanceV1{
		Schema:  "HR",
		Objects: []certificate.ObjectV1{{ID: 1, Type: "Individual"}},
	}

	cert, err := certificate.NewSigmaFMigration(morphism, sourceSchema, targetSchema, target, computedSource)
	require.NoError(t, err)

	decoded, err := certificate.DecodeMigration(cert)
	require.NoError(t, err)
	assert.Equal(t, certificate.DirectionSigmaF, decoded.Direction)
	assert.Equal(t, "HR", decoded.ComputedInstance.Schema)
}
