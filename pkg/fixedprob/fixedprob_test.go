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

package fixedprob_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
)

func TestTryNewRejectsAboveDenominator(t *testing.T) {
	_, err := fixedprob.TryNew(fixedprob.D + 1)
	require.Error(t, err)

	p, err := fixedprob.TryNew(fixedprob.D)
	require.NoError(t, err)
	assert.Equal(t, fixedprob.One, p)
}

func TestMulChainMatchesSpecExample(t *testing.T) {
	// 0.9 * 0.8 -> numerator 720_000, the canonical end-to-end example.
	a := fixedprob.FromF32(0.9)
	b := fixedprob.FromF32(0.8)
	got := a.Mul(b)
	assert.Equal(t, uint32(720_000), got.Numerator)
}

func TestMulIsMonotoneNonIncreasing(t *testing.T) {
	a := fixedprob.FromF32(0.5)
	b := fixedprob.FromF32(0.5)
	got := a.Mul(b)
	assert.LessOrEqual(t, got.Numerator, a.Numerator)
	assert.LessOrEqual(t, got.Numerator, b.Numerator)
}

func TestFromF32Clamps(t *testing.T) {
	assert.Equal(t, fixedprob.Zero, fixedprob.FromF32(-1))
	assert.Equal(t, fixedprob.One, fixedprob.FromF32(2))
}

func TestRoundTripF32(t *testing.T) {
	p := fixedprob.FromF32(0.42)
	assert.InDelta(t, 0.42, p.ToF32(), 0.001)
}
