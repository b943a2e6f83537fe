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
	"encoding/gob"

	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base/log"
)

// Slice-valued parameters travel through gob as interface values.
func init() {
	gob.Register([]int{})
}

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names.
const (
	Lr           ParamName = "Lr"           // learning rate
	Reg          ParamName = "Reg"          // regularization strength
	NEpochs      ParamName = "NEpochs"      // number of epochs
	BatchSize    ParamName = "BatchSize"    // mini-batch size
	RandomState  ParamName = "RandomState"  // random state (seed)
	InitStdDev   ParamName = "InitStdDev"   // standard deviation of gaussian initial parameters
	DGMF         ParamName = "DGMF"         // dimension of the GMF embedding space
	DMLP         ParamName = "DMLP"         // dimension of the MLP embedding space
	HiddenLayers ParamName = "HiddenLayers" // widths of the MLP hidden layers
)

// Params stores hyper-parameters for a model. It is a map between names and
// values. For example, hyper-parameters for the neural scorer are given by:
//
//	model.Params{
//		model.Lr:      0.001,
//		model.NEpochs: 3,
//		model.DGMF:    8,
//		model.DMLP:    8,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns defaultValue if not found
// or the type doesn't match.
func (parameters Params) GetInt(name ParamName, defaultValue int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		default:
			log.Logger().Error("type mismatch in params",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return defaultValue
}

// GetInt64 gets an int64 parameter by name. Returns defaultValue if not found
// or the type doesn't match. Int values are converted.
func (parameters Params) GetInt64(name ParamName, defaultValue int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("type mismatch in params",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return defaultValue
}

// GetFloat32 gets a float parameter by name. Returns defaultValue if not
// found or the type doesn't match. Float64 and int values are converted.
func (parameters Params) GetFloat32(name ParamName, defaultValue float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			log.Logger().Error("type mismatch in params",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return defaultValue
}

// GetIntSlice gets an integer slice parameter by name. Returns defaultValue
// if not found or the type doesn't match.
func (parameters Params) GetIntSlice(name ParamName, defaultValue []int) []int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case []int:
			return val
		default:
			log.Logger().Error("type mismatch in params",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return defaultValue
}
