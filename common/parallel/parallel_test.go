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

package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	a := make([]int32, 1000)
	err := Parallel(context.Background(), len(a), 4, func(workerId, jobId int) error {
		atomic.StoreInt32(&a[jobId], int32(jobId))
		return nil
	})
	assert.NoError(t, err)
	for i := range a {
		assert.Equal(t, int32(i), a[i])
	}
}

func TestParallel_Sequential(t *testing.T) {
	var jobs []int
	err := Parallel(context.Background(), 5, 1, func(workerId, jobId int) error {
		assert.Zero(t, workerId)
		jobs = append(jobs, jobId)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, jobs)
}

func TestParallel_Error(t *testing.T) {
	expected := errors.New("boom")
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		if jobId == 50 {
			return expected
		}
		return nil
	})
	assert.ErrorIs(t, err, expected)
}

func TestParallel_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 100, 4, func(workerId, jobId int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFor(t *testing.T) {
	a := make([]int32, 100)
	For(len(a), 4, func(i int) {
		atomic.StoreInt32(&a[i], int32(i))
	})
	for i := range a {
		assert.Equal(t, int32(i), a[i])
	}
}

func TestForEach(t *testing.T) {
	a := []int32{10, 20, 30, 40}
	sum := int32(0)
	ForEach(a, 2, func(i int, v int32) {
		atomic.AddInt32(&sum, v)
	})
	assert.Equal(t, int32(100), sum)
}

func TestSplit(t *testing.T) {
	a := []int{1, 2, 3, 4, 5}
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, Split(a, 2))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Split(a, 3))
	assert.Equal(t, [][]int{{1}, {2}, {3}, {4}, {5}}, Split(a, 10))
	assert.Nil(t, Split([]int{}, 3))
}
