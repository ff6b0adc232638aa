// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := Make[string](4)
	assert.Len(t, s, 0)

	s.Insert("64x64x32", "32x32x16")
	assert.True(t, s.Has("64x64x32"))
	assert.False(t, s.Has("128x128x64"))

	assert.False(t, s.InsertNew("64x64x32"))
	assert.True(t, s.InsertNew("128x128x64"))
	assert.Equal(t, []string{"128x128x64", "32x32x16", "64x64x32"}, Sorted(s))

	backends := MakeWith("ATEN", "TRITON", "ATEN")
	assert.Len(t, backends, 2)
	assert.True(t, backends.Has("TRITON"))
	assert.Empty(t, Sorted(Make[int]()))
}
