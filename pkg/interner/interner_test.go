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

package interner_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/interner"
)

func TestInternIsIdempotent(t *testing.T) {
	in := interner.New()
	a := in.Intern("hello")
	b := in.Intern("hello")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, in.Len())
}

func TestInternAssignsDenseIncreasingIDs(t *testing.T) {
	in := interner.New()
	a := in.Intern("a")
	b := in.Intern("b")
	c := in.Intern("a")
	assert.Equal(t, interner.StrId(0), a)
	assert.Equal(t, interner.StrId(1), b)
	assert.Equal(t, a, c)
}

func TestLookupIsBijective(t *testing.T) {
	in := interner.New()
	id := in.Intern("foo")
	s, ok := in.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "foo", s)

	_, ok = in.Lookup(interner.StrId(999))
	assert.False(t, ok)
}

func TestIDOfDoesNotInsert(t *testing.T) {
	in := interner.New()
	_, ok := in.IDOf("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, in.Len())
}

func TestInternConcurrentSafe(t *testing.T) {
	in := interner.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.Intern("shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, in.Len())
}
