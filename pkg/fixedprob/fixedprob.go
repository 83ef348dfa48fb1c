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

// Package fixedprob implements an unsigned fixed-point probability type in
// the closed interval [0, D] with D = 1_000_000, used everywhere PathDB
// needs a deterministic, serialization-stable confidence value instead of a
// floating point one.
package fixedprob

import "fmt"

// D is the fixed-point denominator. A FixedProb's Numerator ranges over
// [0, D]; Numerator == D represents probability 1.0.
const D uint32 = 1_000_000

// FixedProb is an unsigned fixed-point value in [0, D].
type FixedProb struct {
	Numerator uint32
}

// Zero is the additive identity, probability 0.0.
var Zero = FixedProb{Numerator: 0}

// One is probability 1.0.
var One = FixedProb{Numerator: D}

// TryNew constructs a FixedProb from a raw numerator, rejecting values above D.
func TryNew(numerator uint32) (FixedProb, error) {
	if numerator > D {
		return FixedProb{}, fmt.Errorf("fixedprob: numerator %d exceeds denominator %d", numerator, D)
	}
	return FixedProb{Numerator: numerator}, nil
}

// FromF32 clamps a float32 probability into [0, D], rounding to the nearest
// representable fixed-point value. Values outside [0, 1] are clamped.
func FromF32(p float32) FixedProb {
	if p <= 0 {
		return Zero
	}
	if p >= 1 {
		return One
	}
	n := uint32(p*float32(D) + 0.5)
	if n > D {
		n = D
	}
	return FixedProb{Numerator: n}
}

// ToF32 converts back to a float32 in [0, 1].
func (p FixedProb) ToF32() float32 {
	return float32(p.Numerator) / float32(D)
}

// Mul computes the fixed-point product floor(a*b/D), which is monotone
// non-increasing: composing confidences along a path never increases
// confidence.
func (p FixedProb) Mul(other FixedProb) FixedProb {
	product := uint64(p.Numerator) * uint64(other.Numerator)
	return FixedProb{Numerator: uint32(product / uint64(D))}
}

// GTE reports whether p >= threshold.
func (p FixedProb) GTE(threshold FixedProb) bool {
	return p.Numerator >= threshold.Numerator
}

func (p FixedProb) String() string {
	return fmt.Sprintf("%d/%d", p.Numerator, D)
}
