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

// Package ncf implements the dual-path embedding scorer. The GMF path takes
// the elementwise product of user and item embeddings, the MLP path feeds the
// concatenated embeddings through a stack of fully-connected layers, and a
// single logistic unit fuses both paths into a probability.
package ncf

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base"
	"github.com/shelfwise-io/shelfwise/base/encoding"
	"github.com/shelfwise-io/shelfwise/base/log"
	"github.com/shelfwise-io/shelfwise/base/progress"
	"github.com/shelfwise-io/shelfwise/common/floats"
	"github.com/shelfwise-io/shelfwise/common/parallel"
	"github.com/shelfwise-io/shelfwise/dataset"
	"github.com/shelfwise-io/shelfwise/model"
)

// Score reports training progress.
type Score struct {
	TrainLoss float32
	ValidLoss float32
}

// FitConfig carries runtime options for Fit.
type FitConfig struct {
	Jobs    int
	Verbose int
}

// NewFitConfig creates a default FitConfig.
func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 1,
	}
}

// SetJobs sets the number of jobs. Training is only bit-reproducible with a
// single job; more jobs trade determinism of the weights for speed, the
// seeded label set stays identical either way.
func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

// SetVerbose sets the validation period in epochs.
func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

// NeuMF is the dual-path embedding model.
//
// Hyper-parameters:
//
//	Lr           - The learning rate of SGD. Default is 0.001.
//	Reg          - The regularization strength. Default is 0.
//	NEpochs      - The number of passes over the training set. Default is 3.
//	BatchSize    - The size of a mini-batch. Default is 256.
//	DGMF         - The dimension of the GMF embedding space. Default is 8.
//	DMLP         - The dimension of the MLP embedding space. Default is 8.
//	HiddenLayers - The widths of the MLP stack. Default is [32, 16, 8].
//	InitStdDev   - The standard deviation of initial weights. Default is 0.01.
type NeuMF struct {
	model.BaseModel
	// Embedding tables. Two independent spaces per entity type.
	GMFUserFactor [][]float32
	GMFItemFactor [][]float32
	MLPUserFactor [][]float32
	MLPItemFactor [][]float32
	// MLP stack. Weight[l] has shape [width_l][width_{l-1}].
	MLPWeight [][][]float32
	MLPBias   [][]float32
	// Fusion unit over concat(GMF output, MLP output).
	FusionWeight []float32
	FusionBias   float32
	// Membership flags for the ranker's cold-start checks.
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet

	numUsers int
	numItems int

	// Hyper parameters
	nEpochs      int
	batchSize    int
	lr           float32
	reg          float32
	initStdDev   float32
	dGMF         int
	dMLP         int
	hiddenLayers []int
}

// NewNeuMF creates a NeuMF model.
func NewNeuMF(params model.Params) *NeuMF {
	m := new(NeuMF)
	m.SetParams(params)
	return m
}

// SetParams sets hyper-parameters of the NeuMF model.
func (m *NeuMF) SetParams(params model.Params) {
	m.BaseModel.SetParams(params)
	m.nEpochs = m.Params.GetInt(model.NEpochs, 3)
	m.batchSize = m.Params.GetInt(model.BatchSize, 256)
	m.lr = m.Params.GetFloat32(model.Lr, 0.001)
	m.reg = m.Params.GetFloat32(model.Reg, 0)
	m.initStdDev = m.Params.GetFloat32(model.InitStdDev, 0.01)
	m.dGMF = m.Params.GetInt(model.DGMF, 8)
	m.dMLP = m.Params.GetInt(model.DMLP, 8)
	m.hiddenLayers = m.Params.GetIntSlice(model.HiddenLayers, []int{32, 16, 8})
}

// Clear model weights.
func (m *NeuMF) Clear() {
	m.GMFUserFactor = nil
	m.GMFItemFactor = nil
	m.MLPUserFactor = nil
	m.MLPItemFactor = nil
	m.MLPWeight = nil
	m.MLPBias = nil
	m.FusionWeight = nil
	m.UserPredictable = nil
	m.ItemPredictable = nil
}

// Invalid reports whether the model holds no trained weights.
func (m *NeuMF) Invalid() bool {
	return m == nil ||
		m.GMFUserFactor == nil ||
		m.GMFItemFactor == nil ||
		m.MLPUserFactor == nil ||
		m.MLPItemFactor == nil ||
		m.FusionWeight == nil
}

// layerWidths returns the widths of every MLP activation including the input.
func (m *NeuMF) layerWidths() []int {
	widths := make([]int, 0, len(m.hiddenLayers)+1)
	widths = append(widths, 2*m.dMLP)
	widths = append(widths, m.hiddenLayers...)
	return widths
}

// Init initializes weights from the seeded generator and marks predictable
// users and items.
func (m *NeuMF) Init(trainSet *dataset.ImplicitSet) {
	rng := m.GetRandomGenerator()
	m.numUsers = trainSet.CountUsers()
	m.numItems = trainSet.CountItems()
	m.GMFUserFactor = rng.NormalMatrix(m.numUsers, m.dGMF, 0, m.initStdDev)
	m.GMFItemFactor = rng.NormalMatrix(m.numItems, m.dGMF, 0, m.initStdDev)
	m.MLPUserFactor = rng.NormalMatrix(m.numUsers, m.dMLP, 0, m.initStdDev)
	m.MLPItemFactor = rng.NormalMatrix(m.numItems, m.dMLP, 0, m.initStdDev)
	widths := m.layerWidths()
	m.MLPWeight = make([][][]float32, len(widths)-1)
	m.MLPBias = make([][]float32, len(widths)-1)
	for l := 1; l < len(widths); l++ {
		// He initialization keeps ReLU activations from vanishing.
		stdDev := math32.Sqrt(2 / float32(widths[l-1]))
		m.MLPWeight[l-1] = rng.NormalMatrix(widths[l], widths[l-1], 0, stdDev)
		m.MLPBias[l-1] = make([]float32, widths[l])
	}
	dOut := widths[len(widths)-1]
	m.FusionWeight = rng.NormalVector(m.dGMF+dOut, 0, m.initStdDev)
	m.FusionBias = 0
	m.UserPredictable = bitset.New(uint(m.numUsers))
	m.ItemPredictable = bitset.New(uint(m.numItems))
	for i := 0; i < trainSet.Count(); i++ {
		userIndex, itemIndex, _ := trainSet.Get(i)
		m.UserPredictable.Set(uint(userIndex))
		m.ItemPredictable.Set(uint(itemIndex))
	}
}

// scratch holds per-worker forward/backward buffers so parallel batches never
// share intermediate state.
type scratch struct {
	activations [][]float32 // a[0] = concat(mlp user, mlp item)
	preacts     [][]float32 // z[l] = W[l-1]*a[l-1] + b[l-1]
	deltas      [][]float32
	gmfOut      []float32
	gmfDelta    []float32
}

func (m *NeuMF) newScratch() *scratch {
	widths := m.layerWidths()
	s := &scratch{
		activations: make([][]float32, len(widths)),
		preacts:     make([][]float32, len(widths)),
		deltas:      make([][]float32, len(widths)),
		gmfOut:      make([]float32, m.dGMF),
		gmfDelta:    make([]float32, m.dGMF),
	}
	for l, width := range widths {
		s.activations[l] = make([]float32, width)
		s.preacts[l] = make([]float32, width)
		s.deltas[l] = make([]float32, width)
	}
	return s
}

// forward computes the predicted probability for a (user, item) pair using
// the given scratch buffers.
func (m *NeuMF) forward(userIndex, itemIndex int32, s *scratch) float32 {
	// GMF path: elementwise product.
	floats.MulTo(m.GMFUserFactor[userIndex], m.GMFItemFactor[itemIndex], s.gmfOut)
	// MLP path: concatenated embeddings through the stack.
	copy(s.activations[0][:m.dMLP], m.MLPUserFactor[userIndex])
	copy(s.activations[0][m.dMLP:], m.MLPItemFactor[itemIndex])
	for l := 0; l < len(m.MLPWeight); l++ {
		weight, bias := m.MLPWeight[l], m.MLPBias[l]
		in, z, a := s.activations[l], s.preacts[l+1], s.activations[l+1]
		for j := range weight {
			z[j] = floats.Dot(weight[j], in) + bias[j]
			if z[j] > 0 {
				a[j] = z[j]
			} else {
				a[j] = 0
			}
		}
	}
	// Fusion: single logistic unit over concat(GMF output, MLP output).
	mlpOut := s.activations[len(s.activations)-1]
	logit := m.FusionBias +
		floats.Dot(m.FusionWeight[:m.dGMF], s.gmfOut) +
		floats.Dot(m.FusionWeight[m.dGMF:], mlpOut)
	return 1 / (1 + math32.Exp(-logit))
}

// backward propagates the BCE gradient for one sample and applies an SGD
// update in place.
func (m *NeuMF) backward(userIndex, itemIndex int32, prediction, label float32, s *scratch) {
	deltaOut := prediction - label // dL/dlogit for BCE behind a sigmoid
	mlpOut := s.activations[len(s.activations)-1]
	// Fusion unit.
	fusionGMF := m.FusionWeight[:m.dGMF]
	fusionMLP := m.FusionWeight[m.dGMF:]
	floats.MulConstTo(fusionGMF, deltaOut, s.gmfDelta)
	deltaMLP := s.deltas[len(s.deltas)-1]
	floats.MulConstTo(fusionMLP, deltaOut, deltaMLP)
	floats.MulConstAdd(s.gmfOut, -m.lr*deltaOut, fusionGMF)
	floats.MulConstAdd(mlpOut, -m.lr*deltaOut, fusionMLP)
	if m.reg > 0 {
		floats.MulConst(m.FusionWeight, 1-m.lr*m.reg)
	}
	m.FusionBias -= m.lr * deltaOut
	// GMF embeddings. The product path splits the gradient across both
	// factors.
	gmfUser, gmfItem := m.GMFUserFactor[userIndex], m.GMFItemFactor[itemIndex]
	for k := 0; k < m.dGMF; k++ {
		gu, gi := gmfUser[k], gmfItem[k]
		gmfUser[k] -= m.lr * (s.gmfDelta[k]*gi + m.reg*gu)
		gmfItem[k] -= m.lr * (s.gmfDelta[k]*gu + m.reg*gi)
	}
	// MLP stack, from the top layer down.
	for l := len(m.MLPWeight) - 1; l >= 0; l-- {
		weight, bias := m.MLPWeight[l], m.MLPBias[l]
		in := s.activations[l]
		deltaA, z := s.deltas[l+1], s.preacts[l+1]
		deltaIn := s.deltas[l]
		floats.Zero(deltaIn)
		for j := range weight {
			if z[j] <= 0 { // ReLU gate
				continue
			}
			dz := deltaA[j]
			floats.MulConstAdd(weight[j], dz, deltaIn)
			floats.MulConstAdd(in, -m.lr*dz, weight[j])
			if m.reg > 0 {
				floats.MulConst(weight[j], 1-m.lr*m.reg)
			}
			bias[j] -= m.lr * dz
		}
	}
	// MLP embeddings receive the gradient of the stack input.
	deltaIn := s.deltas[0]
	mlpUser, mlpItem := m.MLPUserFactor[userIndex], m.MLPItemFactor[itemIndex]
	for k := 0; k < m.dMLP; k++ {
		mlpUser[k] -= m.lr * (deltaIn[k] + m.reg*mlpUser[k])
		mlpItem[k] -= m.lr * (deltaIn[m.dMLP+k] + m.reg*mlpItem[k])
	}
}

// Fit the NeuMF model by mini-batch SGD on binary cross-entropy. Fit aborts
// with ErrDivergence when the loss becomes non-finite and respects ctx
// cancellation between batches.
func (m *NeuMF) Fit(ctx context.Context, trainSet, validSet *dataset.ImplicitSet, config *FitConfig) (Score, error) {
	if config == nil {
		config = NewFitConfig()
	}
	if trainSet.Count() == 0 {
		return Score{}, errors.New("empty training set")
	}
	log.Logger().Info("fit neumf",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("valid_set_size", validSet.Count()),
		zap.Any("params", m.GetParams()),
		zap.Any("config", config))
	m.Init(trainSet)
	scratches := make([]*scratch, config.Jobs)
	for i := range scratches {
		scratches[i] = m.newScratch()
	}
	score := Score{ValidLoss: m.evaluate(validSet, scratches[0])}
	_, span := progress.Start(ctx, "NeuMF.Fit", m.nEpochs)
	for epoch := 1; epoch <= m.nEpochs; epoch++ {
		fitStart := time.Now()
		cost := make([]float32, config.Jobs)
		for start := 0; start < trainSet.Count(); start += m.batchSize {
			end := start + m.batchSize
			if end > trainSet.Count() {
				end = trainSet.Count()
			}
			offset := start
			if err := parallel.Parallel(ctx, end-start, config.Jobs, func(workerId, jobId int) error {
				userIndex, itemIndex, label := trainSet.Get(offset + jobId)
				s := scratches[workerId]
				prediction := m.forward(userIndex, itemIndex, s)
				cost[workerId] += bce(prediction, label)
				m.backward(userIndex, itemIndex, prediction, label, s)
				return nil
			}); err != nil {
				span.Fail(err)
				return score, errors.Trace(err)
			}
		}
		var totalCost float32
		for _, c := range cost {
			totalCost += c
		}
		score.TrainLoss = totalCost / float32(trainSet.Count())
		if math32.IsNaN(score.TrainLoss) || math32.IsInf(score.TrainLoss, 0) {
			span.Fail(base.ErrDivergence)
			return score, errors.Trace(base.ErrDivergence)
		}
		if epoch%config.Verbose == 0 || epoch == m.nEpochs {
			evalStart := time.Now()
			score.ValidLoss = m.evaluate(validSet, scratches[0])
			log.Logger().Info(fmt.Sprintf("fit neumf %v/%v", epoch, m.nEpochs),
				zap.String("fit_time", time.Since(fitStart).String()),
				zap.String("eval_time", time.Since(evalStart).String()),
				zap.Float32("train_loss", score.TrainLoss),
				zap.Float32("valid_loss", score.ValidLoss))
		}
		span.Add(1)
	}
	span.End()
	log.Logger().Info("fit neumf complete",
		zap.Float32("train_loss", score.TrainLoss),
		zap.Float32("valid_loss", score.ValidLoss))
	return score, nil
}

// evaluate returns the mean BCE loss over a labeled set.
func (m *NeuMF) evaluate(set *dataset.ImplicitSet, s *scratch) float32 {
	if set.Count() == 0 {
		return 0
	}
	var cost float32
	for i := 0; i < set.Count(); i++ {
		userIndex, itemIndex, label := set.Get(i)
		cost += bce(m.forward(userIndex, itemIndex, s), label)
	}
	return cost / float32(set.Count())
}

const epsilon = 1e-7

func bce(prediction, label float32) float32 {
	p := math32.Min(math32.Max(prediction, epsilon), 1-epsilon)
	return -label*math32.Log(p) - (1-label)*math32.Log(1-p)
}

// Predict returns the probability that the user interacts with the item.
// Indices outside the trained index spaces fail with ErrUnknownIndex; callers
// check membership first and substitute their fallback policy.
func (m *NeuMF) Predict(userIndex, itemIndex int32) (float32, error) {
	if userIndex < 0 || int(userIndex) >= m.numUsers {
		return 0, errors.Annotatef(base.ErrUnknownIndex, "user index %d", userIndex)
	}
	if itemIndex < 0 || int(itemIndex) >= m.numItems {
		return 0, errors.Annotatef(base.ErrUnknownIndex, "item index %d", itemIndex)
	}
	// Scratch per call keeps concurrent readers safe on frozen weights.
	return m.forward(userIndex, itemIndex, m.newScratch()), nil
}

// IsUserPredictable returns false if the user was absent from the training
// set and its embeddings were never trained.
func (m *NeuMF) IsUserPredictable(userIndex int32) bool {
	if userIndex < 0 || int(userIndex) >= m.numUsers {
		return false
	}
	return m.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if the item was absent from the training
// set and its embeddings were never trained.
func (m *NeuMF) IsItemPredictable(itemIndex int32) bool {
	if itemIndex < 0 || int(itemIndex) >= m.numItems {
		return false
	}
	return m.ItemPredictable.Test(uint(itemIndex))
}

// Marshal model into byte stream. The tables round-trip bit-for-bit.
func (m *NeuMF) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, m.Params); err != nil {
		return errors.Trace(err)
	}
	dims := []int32{int32(m.numUsers), int32(m.numItems)}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return errors.Trace(err)
	}
	for _, table := range [][][]float32{m.GMFUserFactor, m.GMFItemFactor, m.MLPUserFactor, m.MLPItemFactor} {
		if err := encoding.WriteMatrix(w, table); err != nil {
			return errors.Trace(err)
		}
	}
	for l := range m.MLPWeight {
		if err := encoding.WriteMatrix(w, m.MLPWeight[l]); err != nil {
			return errors.Trace(err)
		}
		if err := binary.Write(w, binary.LittleEndian, m.MLPBias[l]); err != nil {
			return errors.Trace(err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, m.FusionWeight); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.FusionBias); err != nil {
		return errors.Trace(err)
	}
	userBits, err := m.UserPredictable.MarshalBinary()
	if err != nil {
		return errors.Trace(err)
	}
	if err = encoding.WriteBytes(w, userBits); err != nil {
		return errors.Trace(err)
	}
	itemBits, err := m.ItemPredictable.MarshalBinary()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteBytes(w, itemBits))
}

// Unmarshal model from byte stream.
func (m *NeuMF) Unmarshal(r io.Reader) error {
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	m.SetParams(params)
	dims := make([]int32, 2)
	if err := binary.Read(r, binary.LittleEndian, dims); err != nil {
		return errors.Trace(err)
	}
	m.numUsers, m.numItems = int(dims[0]), int(dims[1])
	m.GMFUserFactor = newMatrix(m.numUsers, m.dGMF)
	m.GMFItemFactor = newMatrix(m.numItems, m.dGMF)
	m.MLPUserFactor = newMatrix(m.numUsers, m.dMLP)
	m.MLPItemFactor = newMatrix(m.numItems, m.dMLP)
	for _, table := range [][][]float32{m.GMFUserFactor, m.GMFItemFactor, m.MLPUserFactor, m.MLPItemFactor} {
		if err := encoding.ReadMatrix(r, table); err != nil {
			return errors.Trace(err)
		}
	}
	widths := m.layerWidths()
	m.MLPWeight = make([][][]float32, len(widths)-1)
	m.MLPBias = make([][]float32, len(widths)-1)
	for l := 1; l < len(widths); l++ {
		m.MLPWeight[l-1] = newMatrix(widths[l], widths[l-1])
		m.MLPBias[l-1] = make([]float32, widths[l])
		if err := encoding.ReadMatrix(r, m.MLPWeight[l-1]); err != nil {
			return errors.Trace(err)
		}
		if err := binary.Read(r, binary.LittleEndian, m.MLPBias[l-1]); err != nil {
			return errors.Trace(err)
		}
	}
	dOut := widths[len(widths)-1]
	m.FusionWeight = make([]float32, m.dGMF+dOut)
	if err := binary.Read(r, binary.LittleEndian, m.FusionWeight); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &m.FusionBias); err != nil {
		return errors.Trace(err)
	}
	userBits, err := encoding.ReadBytes(r)
	if err != nil {
		return errors.Trace(err)
	}
	m.UserPredictable = new(bitset.BitSet)
	if err = m.UserPredictable.UnmarshalBinary(userBits); err != nil {
		return errors.Trace(err)
	}
	itemBits, err := encoding.ReadBytes(r)
	if err != nil {
		return errors.Trace(err)
	}
	m.ItemPredictable = new(bitset.BitSet)
	return errors.Trace(m.ItemPredictable.UnmarshalBinary(itemBits))
}

func newMatrix(row, col int) [][]float32 {
	ret := make([][]float32, row)
	for i := range ret {
		ret[i] = make([]float32, col)
	}
	return ret
}
