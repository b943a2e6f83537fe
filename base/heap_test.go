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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopKFilter(t *testing.T) {
	filter := NewTopKFilter(3)
	filter.Add(10, 1)
	filter.Add(20, 8)
	filter.Add(30, 2)
	filter.Add(40, 9)
	filter.Add(50, 3)
	elem, score := filter.ToSorted()
	assert.Equal(t, []int32{40, 20, 50}, elem)
	assert.Equal(t, []float32{9, 8, 3}, score)
}

func TestTopKFilter_Ties(t *testing.T) {
	// Equal scores keep the smallest elements and order them ascending.
	filter := NewTopKFilter(2)
	filter.Add(3, 1)
	filter.Add(1, 1)
	filter.Add(2, 1)
	elem, score := filter.ToSorted()
	assert.Equal(t, []int32{1, 2}, elem)
	assert.Equal(t, []float32{1, 1}, score)
}

func TestTopKFilter_Underfull(t *testing.T) {
	filter := NewTopKFilter(10)
	filter.Add(1, 0.5)
	filter.Add(2, 0.7)
	elem, score := filter.ToSorted()
	assert.Equal(t, []int32{2, 1}, elem)
	assert.Equal(t, []float32{0.7, 0.5}, score)
}
