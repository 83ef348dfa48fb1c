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
	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathalgebra"
)

func TestReachabilityProofV2RoundTripsThroughJSON(t *testing.T) {
	relations := graph.NewRelationStore()
	knows := interner.StrId(1)
	a := graph.EntityID(1)
	b := graph.EntityID(2)
	c := graph.EntityID(3)
	r1 := relations.AddRelation(knows, a, b, fixedprob.FromF32(0.9), nil)
	r2 := relations.AddRelation(knows, b, c, fixedprob.FromF32(0.8), nil)

	proof, err := certificate.NewReachabilityProofV2FromRelationIDs(relations, a, []graph.RelationID{r1, r2})
	require.NoError(t, err)

	end, err := proof.EndEntity()
	require.NoError(t, err)
	assert.Equal(t, c, end)
	assert.Equal(t, uint32(720_000), proof.CombinedConfidence().Numerator)

	cert, err := certificate.NewReachability(proof)
	require.NoError(t, err)
	assert.Equal(t, certificate.KindReachability, cert.Kind)

	decoded, err := certificate.DecodeReachability(cert)
	require.NoError(t, err)
	decodedEnd, err := decoded.EndEntity()
	require.NoError(t, err)
	assert.Equal(t, c, decodedEnd)
}

func TestReachabilityProofRejectsBrokenChain(t *testing.T) {
	relations := graph.NewRelationStore()
	knows := interner.StrId(1)
	a := graph.EntityID(1)
	b := graph.EntityID(2)
	c := graph.EntityID(3)
	d := graph.EntityID(4)
	r1 := relations.AddRelation(knows, a, b, fixedprob.One, nil)
	r2 := relations.AddRelation(knows, c, d, fixedprob.One, nil) // does not chain from b

	_, err := certificate.NewReachabilityProofV2FromRelationIDs(relations, a, []graph.RelationID{r1, r2})
	assert.Error(t, err)
}

func TestVerifyNormalizePathReplaysTrace(t *testing.T) {
	e := pathalgebra.NewInv(pathalgebra.NewInv(pathalgebra.NewStep("r")))
	normal, trace, err := pathalgebra.Normalize(e)
	require.NoError(t, err)

	payload := certificate.NormalizePathPayload{
		Before: e.String(),
		After:  normal.String(),
		Trace:  trace,
	}
	require.NoError(t, certificate.VerifyNormalizePath(&payload))

	payload.After = "not-the-real-answer"
	assert.Error(t, certificate.VerifyNormalizePath(&payload))
}
