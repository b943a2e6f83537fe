// Copyright 2026 shelfwise Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreqDict(t *testing.T) {
	dict := NewFreqDict()
	assert.Zero(t, dict.Count())
	assert.Equal(t, 0, dict.Id("a"))
	assert.Equal(t, 1, dict.Id("b"))
	assert.Equal(t, 0, dict.Id("a"))
	assert.Equal(t, 2, dict.Count())
	assert.Equal(t, 2, dict.Freq(0))
	assert.Equal(t, 1, dict.Freq(1))
	// NotCount assigns ids without counting
	assert.Equal(t, 2, dict.NotCount("c"))
	assert.Equal(t, 2, dict.NotCount("c"))
	assert.Zero(t, dict.Freq(2))
	// Lookup never assigns
	assert.Equal(t, 1, dict.Lookup("b"))
	assert.Equal(t, -1, dict.Lookup("d"))
	assert.Equal(t, 3, dict.Count())
	// reverse lookup
	s, ok := dict.String(1)
	assert.True(t, ok)
	assert.Equal(t, "b", s)
	_, ok = dict.String(3)
	assert.False(t, ok)
}
