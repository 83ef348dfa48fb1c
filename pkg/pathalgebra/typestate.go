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

package pathalgebra

import "fmt"

// Unnormalized wraps a PathExpr that has not been proven to be in normal
// form. Its Normalize method is one of the two public ways to construct a
// Normalized value; the other is NewNormalizedChecked.
type Unnormalized struct {
	expr *PathExpr
}

// NewUnnormalized wraps expr without any normal-form claim.
func NewUnnormalized(expr *PathExpr) Unnormalized {
	return Unnormalized{expr: expr}
}

// AsExpr exposes the wrapped expression without consuming the wrapper.
func (u Unnormalized) AsExpr() *PathExpr { return u.expr }

// IntoExpr consumes the wrapper, returning the raw expression.
func (u Unnormalized) IntoExpr() *PathExpr { return u.expr }

// Normalize runs the rewrite system to a fixed point and returns the
// result as a Normalized value along with its derivation trace. Because
// Normalize always produces its own output, the result is trusted without
// re-checking.
func (u Unnormalized) Normalize() (Normalized, []DerivationStep, error) {
	normal, trace, err := Normalize(u.expr)
	if err != nil {
		return Normalized{}, nil, err
	}
	return Normalized{expr: normal}, trace, nil
}

// Normalized wraps a PathExpr that is known to be in normal form. The
// invariant is encoded at the type level: the only public constructors
// are Unnormalized.Normalize (trusted, since it derives the value itself)
// and NewNormalizedChecked (verified, for values arriving from outside,
// e.g. a deserialized certificate).
type Normalized struct {
	expr *PathExpr
}

// newNormalizedUnchecked is the internal escape hatch used only where the
// caller has already established normal form by construction.
func newNormalizedUnchecked(expr *PathExpr) Normalized {
	return Normalized{expr: expr}
}

// NewNormalizedChecked verifies that expr is already a fixed point of
// Normalize before wrapping it, returning an error otherwise. Use this at
// trust boundaries (deserializing an externally-supplied normal-form
// claim); use Unnormalized.Normalize when deriving normal form locally.
func NewNormalizedChecked(expr *PathExpr) (Normalized, error) {
	normal, _, err := Normalize(expr)
	if err != nil {
		return Normalized{}, err
	}
	if !normal.Equal(expr) {
		return Normalized{}, fmt.Errorf("pathalgebra: path expression is not normalized")
	}
	return newNormalizedUnchecked(expr), nil
}

// AsExpr exposes the wrapped expression without consuming the wrapper.
func (n Normalized) AsExpr() *PathExpr { return n.expr }

// IntoExpr consumes the wrapper, returning the raw expression.
func (n Normalized) IntoExpr() *PathExpr { return n.expr }
