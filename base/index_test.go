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

package base

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex(t *testing.T) {
	index := NewIndex()
	assert.Zero(t, index.Len())
	// add
	assert.Equal(t, int32(0), index.Add("1"))
	assert.Equal(t, int32(1), index.Add("2"))
	assert.Equal(t, int32(2), index.Add("4"))
	assert.Equal(t, int32(3), index.Add("8"))
	assert.Equal(t, int32(4), index.Len())
	// a re-added ID keeps its index
	assert.Equal(t, int32(1), index.Add("2"))
	assert.Equal(t, int32(4), index.Len())
	// get index
	assert.Equal(t, int32(0), index.ToNumber("1"))
	assert.Equal(t, int32(1), index.ToNumber("2"))
	assert.Equal(t, int32(2), index.ToNumber("4"))
	assert.Equal(t, int32(3), index.ToNumber("8"))
	assert.Equal(t, NotId, index.ToNumber("16"))
	// get name
	name, err := index.ToName(0)
	assert.NoError(t, err)
	assert.Equal(t, "1", name)
	name, err = index.ToName(3)
	assert.NoError(t, err)
	assert.Equal(t, "8", name)
	_, err = index.ToName(4)
	assert.ErrorIs(t, err, ErrUnknownIndex)
	_, err = index.ToName(-1)
	assert.ErrorIs(t, err, ErrUnknownIndex)
	// get names
	assert.Equal(t, []string{"1", "2", "4", "8"}, index.GetNames())
}

func TestIndex_Marshal(t *testing.T) {
	index := NewIndex()
	index.Add("1")
	index.Add("2")
	index.Add("4")
	index.Add("8")
	// marshal
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, index.Marshal(buf))
	// unmarshal
	indexCopy := NewIndex()
	assert.NoError(t, indexCopy.Unmarshal(buf))
	assert.Equal(t, index, indexCopy)
}
