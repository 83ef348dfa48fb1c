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

// Package dialect implements PathDB's textual formats: the FNV-1a 64
// module-text and per-fact digests, and the PathDBExportV1 snapshot
// export/import of a whole DB. It does not parse or write schema/instance
// module source text.
package dialect

import "fmt"

// DigestV1Prefix marks a module-text digest.
const DigestV1Prefix = "fnv1a64:"

// FactIDV1Prefix marks a per-fact stable identifier.
const FactIDV1Prefix = "factfnv1a64:"

const fnvOffsetBasis uint64 = 0xcbf29ce484222325
const fnvPrime uint64 = 0x00000100000001b3

func fnv1a64(seed uint64, s string) uint64 {
	hash := seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= fnvPrime
	}
	return hash
}

// DigestBytes computes a v1 digest (FNV-1a 64-bit) over arbitrary bytes,
// encoded the same way as DigestV1 but not restricted to UTF-8 module
// text. Used for snapshot keys and other internal stability ids that
// don't need cryptographic guarantees.
func DigestBytes(data []byte) string {
	hash := fnvOffsetBasis
	for _, b := range data {
		hash ^= uint64(b)
		hash *= fnvPrime
	}
	return fmt.Sprintf("%s%016x", DigestV1Prefix, hash)
}

// DigestV1 computes the canonical digest of a module's source text.
func DigestV1(text string) string {
	return fmt.Sprintf("%s%016x", DigestV1Prefix, fnv1a64(fnvOffsetBasis, text))
}

// FieldValue is one (field name, rendered value) pair in schema-declared
// field order, the unit FactIDV1 hashes over.
type FieldValue struct {
	Field string
	Value string
}

// FactIDV1 computes a stable id for one fact/tuple extracted from an
// instance, deterministic and stable under field reordering since the
// caller supplies fields already in declaration order.
func FactIDV1(moduleName, schemaName, instanceName, relationName string, fields []FieldValue) string {
	hash := fnvOffsetBasis
	add := func(s string) { hash = fnv1a64(hash, s) }

	add("module=")
	add(moduleName)
	add("|schema=")
	add(schemaName)
	add("|instance=")
	add(instanceName)
	add("|relation=")
	add(relationName)
	add("|fields=")
	for _, fv := range fields {
		add(fv.Field)
		add("=")
		add(fv.Value)
		add(";")
	}
	return fmt.Sprintf("%s%016x", FactIDV1Prefix, hash)
}
