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

package ncf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise-io/shelfwise/base"
	"github.com/shelfwise-io/shelfwise/base/log"
	"github.com/shelfwise-io/shelfwise/dataset"
	"github.com/shelfwise-io/shelfwise/model"
)

func TestMain(m *testing.M) {
	log.CloseLogger()
	os.Exit(m.Run())
}

const (
	numTestUsers = 8
	numTestItems = 8
)

// newTrainingSets builds a small block-structured catalog: users prefer the
// items of their own block.
func newTrainingSets() (trainSet, validSet *dataset.ImplicitSet) {
	data := dataset.NewDataset()
	for u := 0; u < numTestUsers; u++ {
		for i := 0; i < numTestItems; i++ {
			if u/4 == i/4 {
				data.AddInteraction(fmt.Sprintf("user%d", u), fmt.Sprintf("item%d", i), 5)
			}
		}
	}
	data.Freeze()
	return data.SampleImplicit(dataset.SamplerConfig{
		PositiveThreshold:   4,
		NegativeRatio:       1,
		MaxResampleAttempts: 100,
		RandomSeed:          42,
	})
}

func newTestParams() model.Params {
	return model.Params{
		model.NEpochs:      5,
		model.BatchSize:    16,
		model.Lr:           0.01,
		model.DGMF:         4,
		model.DMLP:         4,
		model.HiddenLayers: []int{8, 4},
		model.RandomState:  int64(42),
	}
}

func TestNeuMF_Fit(t *testing.T) {
	trainSet, validSet := newTrainingSets()
	m := NewNeuMF(newTestParams())
	assert.True(t, m.Invalid())
	score, err := m.Fit(context.Background(), trainSet, validSet, NewFitConfig().SetJobs(1).SetVerbose(5))
	assert.NoError(t, err)
	assert.False(t, m.Invalid())
	assert.False(t, math32.IsNaN(score.TrainLoss))
	assert.False(t, math32.IsNaN(score.ValidLoss))
	assert.Greater(t, score.TrainLoss, float32(0))
	// every prediction is a probability
	for u := int32(0); u < numTestUsers; u++ {
		for i := int32(0); i < numTestItems; i++ {
			prediction, err := m.Predict(u, i)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, prediction, float32(0))
			assert.LessOrEqual(t, prediction, float32(1))
		}
	}
}

func TestNeuMF_PredictUnknown(t *testing.T) {
	trainSet, validSet := newTrainingSets()
	m := NewNeuMF(newTestParams())
	_, err := m.Fit(context.Background(), trainSet, validSet, NewFitConfig())
	assert.NoError(t, err)
	_, err = m.Predict(-1, 0)
	assert.ErrorIs(t, err, base.ErrUnknownIndex)
	_, err = m.Predict(numTestUsers, 0)
	assert.ErrorIs(t, err, base.ErrUnknownIndex)
	_, err = m.Predict(0, numTestItems)
	assert.ErrorIs(t, err, base.ErrUnknownIndex)
	assert.False(t, m.IsUserPredictable(-1))
	assert.False(t, m.IsUserPredictable(numTestUsers))
	assert.False(t, m.IsItemPredictable(numTestItems))
	userIndex, itemIndex, _ := trainSet.Get(0)
	assert.True(t, m.IsUserPredictable(userIndex))
	assert.True(t, m.IsItemPredictable(itemIndex))
}

func TestNeuMF_Deterministic(t *testing.T) {
	trainSet, validSet := newTrainingSets()
	a := NewNeuMF(newTestParams())
	_, err := a.Fit(context.Background(), trainSet, validSet, NewFitConfig().SetJobs(1))
	assert.NoError(t, err)
	b := NewNeuMF(newTestParams())
	_, err = b.Fit(context.Background(), trainSet, validSet, NewFitConfig().SetJobs(1))
	assert.NoError(t, err)
	for u := int32(0); u < numTestUsers; u++ {
		for i := int32(0); i < numTestItems; i++ {
			pa, err := a.Predict(u, i)
			assert.NoError(t, err)
			pb, err := b.Predict(u, i)
			assert.NoError(t, err)
			assert.Equal(t, pa, pb)
		}
	}
}

func TestNeuMF_Marshal(t *testing.T) {
	trainSet, validSet := newTrainingSets()
	m := NewNeuMF(newTestParams())
	_, err := m.Fit(context.Background(), trainSet, validSet, NewFitConfig())
	assert.NoError(t, err)
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, m.Marshal(buf))
	mCopy := new(NeuMF)
	assert.NoError(t, mCopy.Unmarshal(buf))
	// predictions round-trip bit for bit
	for u := int32(0); u < numTestUsers; u++ {
		for i := int32(0); i < numTestItems; i++ {
			prediction, err := m.Predict(u, i)
			assert.NoError(t, err)
			predictionCopy, err := mCopy.Predict(u, i)
			assert.NoError(t, err)
			assert.Equal(t, prediction, predictionCopy)
		}
		assert.Equal(t, m.IsUserPredictable(u), mCopy.IsUserPredictable(u))
	}
	for i := int32(0); i < numTestItems; i++ {
		assert.Equal(t, m.IsItemPredictable(i), mCopy.IsItemPredictable(i))
	}
}

func TestNeuMF_Clear(t *testing.T) {
	trainSet, validSet := newTrainingSets()
	m := NewNeuMF(newTestParams())
	_, err := m.Fit(context.Background(), trainSet, validSet, NewFitConfig())
	assert.NoError(t, err)
	assert.False(t, m.Invalid())
	m.Clear()
	assert.True(t, m.Invalid())
}

func TestNeuMF_FitEmpty(t *testing.T) {
	// A catalog without positives produces empty label sets; Fit rejects them
	// up front instead of reporting a bogus divergence.
	data := dataset.NewDataset()
	data.AddInteraction("alice", "dune", 2)
	data.Freeze()
	trainSet, validSet := data.SampleImplicit(dataset.SamplerConfig{
		PositiveThreshold:   4,
		NegativeRatio:       1,
		MaxResampleAttempts: 10,
		RandomSeed:          0,
	})
	assert.Zero(t, trainSet.Count())
	m := NewNeuMF(newTestParams())
	_, err := m.Fit(context.Background(), trainSet, validSet, NewFitConfig())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, base.ErrDivergence)
}

func TestNeuMF_FitCancelled(t *testing.T) {
	trainSet, validSet := newTrainingSets()
	m := NewNeuMF(newTestParams())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Fit(ctx, trainSet, validSet, NewFitConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
