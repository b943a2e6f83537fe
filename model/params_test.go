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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	params := Params{
		NEpochs:      10,
		Lr:           0.5,
		RandomState:  int64(42),
		HiddenLayers: []int{32, 16},
	}
	assert.Equal(t, 10, params.GetInt(NEpochs, 3))
	assert.Equal(t, 3, params.GetInt(BatchSize, 3))
	assert.Equal(t, float32(0.5), params.GetFloat32(Lr, 0.001))
	assert.Equal(t, float32(0.001), params.GetFloat32(Reg, 0.001))
	assert.Equal(t, int64(42), params.GetInt64(RandomState, 0))
	assert.Equal(t, []int{32, 16}, params.GetIntSlice(HiddenLayers, []int{8}))
	assert.Equal(t, []int{8}, params.GetIntSlice(DGMF, []int{8}))
	// int values convert where the target type is wider
	params = Params{Lr: 1, RandomState: 7}
	assert.Equal(t, float32(1), params.GetFloat32(Lr, 0))
	assert.Equal(t, int64(7), params.GetInt64(RandomState, 0))
	// mismatched types fall back to the default
	params = Params{NEpochs: "ten"}
	assert.Equal(t, 3, params.GetInt(NEpochs, 3))
}

func TestParams_Copy(t *testing.T) {
	params := Params{NEpochs: 10}
	clone := params.Copy()
	clone[NEpochs] = 20
	assert.Equal(t, 10, params.GetInt(NEpochs, 0))
	assert.Equal(t, 20, clone.GetInt(NEpochs, 0))
}

func TestBaseModel(t *testing.T) {
	a := new(BaseModel)
	a.SetParams(Params{RandomState: int64(42)})
	b := new(BaseModel)
	b.SetParams(Params{RandomState: int64(42)})
	assert.Equal(t, a.GetRandomGenerator().NormalVector(10, 0, 1), b.GetRandomGenerator().NormalVector(10, 0, 1))
	assert.Equal(t, Params{RandomState: int64(42)}, a.GetParams())
}
