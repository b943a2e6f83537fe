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

package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	matrix := [][]float32{{1, 2, 3}, {4, 5, 6}}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteMatrix(buf, matrix))
	matrixCopy := [][]float32{{0, 0, 0}, {0, 0, 0}}
	assert.NoError(t, ReadMatrix(buf, matrixCopy))
	assert.Equal(t, matrix, matrixCopy)
}

func TestString(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteString(buf, "hello"))
	assert.NoError(t, WriteString(buf, ""))
	s, err := ReadString(buf)
	assert.NoError(t, err)
	assert.Equal(t, "hello", s)
	s, err = ReadString(buf)
	assert.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestBytes(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteBytes(buf, []byte{1, 2, 3}))
	data, err := ReadBytes(buf)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestGob(t *testing.T) {
	value := map[string][]int{"a": {1, 2}, "b": {3}}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteGob(buf, value))
	var valueCopy map[string][]int
	assert.NoError(t, ReadGob(buf, &valueCopy))
	assert.Equal(t, value, valueCopy)
}
