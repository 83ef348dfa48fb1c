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

package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/pathdb/pkg/dialect"
)

func TestDigestV1HasExpectedPrefixAndWidth(t *testing.T) {
	d := dialect.DigestV1("module X\n")
	assert.True(t, len(d) == len(dialect.DigestV1Prefix)+16)
	assert.Equal(t, dialect.DigestV1Prefix, d[:len(dialect.DigestV1Prefix)])
}

func TestDigestV1IsDeterministic(t *testing.T) {
	assert.Equal(t, dialect.DigestV1("same text"), dialect.DigestV1("same text"))
	assert.NotEqual(t, dialect.DigestV1("a"), dialect.DigestV1("b"))
}

func TestFactIDV1HasExpectedPrefixAndWidth(t *testing.T) {
	id := dialect.FactIDV1("M", "S", "I", "R", []dialect.FieldValue{{Field: "a", Value: "A"}, {Field: "b", Value: "B"}})
	assert.True(t, len(id) == len(dialect.FactIDV1Prefix)+16)
	assert.Equal(t, dialect.FactIDV1Prefix, id[:len(dialect.FactIDV1Prefix)])
}

func TestFactIDV1ChangesWhenFieldsChange(t *testing.T) {
	id1 := dialect.FactIDV1("M", "S", "I", "R", []dialect.FieldValue{{Field: "a", Value: "A"}, {Field: "b", Value: "B"}})
	id2 := dialect.FactIDV1("M", "S", "I", "R", []dialect.FieldValue{{Field: "a", Value: "A"}, {Field: "b", Value: "C"}})
	assert.NotEqual(t, id1, id2)
}
