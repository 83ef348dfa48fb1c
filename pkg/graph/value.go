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

package graph

import "fmt"

// ValueKind tags the active field of a Value.
type ValueKind uint8

const (
	// KindString holds a UTF-8 string.
	KindString ValueKind = iota
	// KindInt holds a signed 64-bit integer.
	KindInt
	// KindFloat holds a 64-bit float.
	KindFloat
	// KindBool holds a boolean.
	KindBool
	// KindEntityRef holds a reference to another entity by id, used by
	// fact-node field edges that the textual dialect renders as a value
	// rather than a traversable relation.
	KindEntityRef
)

// Value is an attribute value attached to an entity, relation, or fact
// field. It is a small tagged union rather than an interface{} so that the
// textual dialect and CBOR sidecar can serialize it deterministically.
type Value struct {
	Kind ValueKind   `json:"kind" cbor:"kind"`
	Str  string      `json:"str,omitempty" cbor:"str,omitempty"`
	Int  int64       `json:"int,omitempty" cbor:"int,omitempty"`
	Flt  float64     `json:"flt,omitempty" cbor:"flt,omitempty"`
	Bool bool        `json:"bool,omitempty" cbor:"bool,omitempty"`
	Ref  uint32      `json:"ref,omitempty" cbor:"ref,omitempty"`
}

// StringValue builds a string-kinded Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue builds an int-kinded Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue builds a float-kinded Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// BoolValue builds a bool-kinded Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// EntityRefValue builds an entity-reference Value.
func EntityRefValue(id uint32) Value { return Value{Kind: KindEntityRef, Ref: id} }

// CanonicalString renders a deterministic textual form used as the map key
// for EntityStore's by_attr_value inverse index and for constraint
// key-equality comparisons.
func (v Value) CanonicalString() string {
	switch v.Kind {
	case KindString:
		return "s:" + v.Str
	case KindInt:
		return fmt.Sprintf("i:%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("f:%g", v.Flt)
	case KindBool:
		return fmt.Sprintf("b:%t", v.Bool)
	case KindEntityRef:
		return fmt.Sprintf("r:%d", v.Ref)
	default:
		return "?"
	}
}

// Equal reports value equality, used by functional/key constraint checks.
func (v Value) Equal(other Value) bool {
	return v.CanonicalString() == other.CanonicalString()
}
