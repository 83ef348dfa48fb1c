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

// Package bitmap provides the compressed, sorted-set-of-uint32 bitmap type
// used for adjacency sets, frontiers, and index membership sets throughout
// PathDB. It is a thin wrapper over github.com/RoaringBitmap/roaring/v2 so
// the rest of the codebase depends on one narrow interface instead of the
// roaring package directly.
package bitmap

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/fxamacker/cbor/v2"
)

// Bitmap is a compressed sorted set of uint32 ids.
type Bitmap struct {
	rb *roaring.Bitmap
}

// New returns an empty bitmap.
func New() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Of returns a bitmap containing exactly the given ids.
func Of(ids ...uint32) *Bitmap {
	return &Bitmap{rb: roaring.BitmapOf(ids...)}
}

// Add inserts id into the set.
func (b *Bitmap) Add(id uint32) {
	b.rb.Add(id)
}

// Remove deletes id from the set, a no-op if absent.
func (b *Bitmap) Remove(id uint32) {
	b.rb.Remove(id)
}

// Contains reports whether id is a member of the set.
func (b *Bitmap) Contains(id uint32) bool {
	return b.rb.Contains(id)
}

// Cardinality returns the number of members.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// IsEmpty reports whether the set has no members.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// ToSlice returns the set's members in ascending order.
func (b *Bitmap) ToSlice() []uint32 {
	return b.rb.ToArray()
}

// Clone returns an independent copy.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{rb: b.rb.Clone()}
}

// Or returns the union of b and other, leaving both unmodified.
func (b *Bitmap) Or(other *Bitmap) *Bitmap {
	return &Bitmap{rb: roaring.Or(b.rb, other.rb)}
}

// And returns the intersection of b and other, leaving both unmodified.
func (b *Bitmap) And(other *Bitmap) *Bitmap {
	return &Bitmap{rb: roaring.And(b.rb, other.rb)}
}

// AndCardinality returns the cardinality of the intersection without
// materializing it, the common fast path for confidence-threshold joins.
func (b *Bitmap) AndCardinality(other *Bitmap) uint64 {
	return b.rb.AndCardinality(other.rb)
}

// Iterator returns an ascending iterator over the set's members.
func (b *Bitmap) Iterator() roaring.IntPeekable {
	return b.rb.Iterator()
}

// MarshalBinary serializes the bitmap using roaring's portable binary
// format, used by the binary snapshot format and the CBOR sidecar.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	return b.rb.ToBytes()
}

// UnmarshalBinary deserializes a bitmap previously produced by
// MarshalBinary.
func (b *Bitmap) UnmarshalBinary(data []byte) error {
	if b.rb == nil {
		b.rb = roaring.New()
	}
	return b.rb.UnmarshalBinary(data)
}

// MarshalCBOR implements cbor.Marshaler, encoding the bitmap as a CBOR byte
// string holding roaring's portable binary format. The sidecar's LRU and
// fact-index snapshots embed bitmaps this way.
func (b *Bitmap) MarshalCBOR() ([]byte, error) {
	raw, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(raw)
}

// UnmarshalCBOR implements cbor.Unmarshaler, the inverse of MarshalCBOR.
func (b *Bitmap) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.UnmarshalBinary(raw)
}
