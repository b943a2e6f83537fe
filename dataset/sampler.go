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
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base"
	"github.com/shelfwise-io/shelfwise/base/log"
)

// Origin tells where a labeled interaction came from.
type Origin uint8

const (
	// OriginObserved marks labels derived from ratings at or above the
	// positive threshold.
	OriginObserved Origin = iota
	// OriginSampledNegative marks synthesized negatives. A sampled negative
	// never duplicates an observed positive pair.
	OriginSampledNegative
)

// ImplicitSet is a list of labeled (user, item) pairs in a shared index space.
type ImplicitSet struct {
	Users   []int32
	Items   []int32
	Labels  []float32
	Origins []Origin

	numUsers int
	numItems int
}

// Count returns the number of labeled pairs.
func (s *ImplicitSet) Count() int {
	return len(s.Users)
}

// CountUsers returns the size of the user index space.
func (s *ImplicitSet) CountUsers() int {
	return s.numUsers
}

// CountItems returns the size of the item index space.
func (s *ImplicitSet) CountItems() int {
	return s.numItems
}

// Get returns the i-th labeled pair.
func (s *ImplicitSet) Get(i int) (userIndex, itemIndex int32, label float32) {
	return s.Users[i], s.Items[i], s.Labels[i]
}

func (s *ImplicitSet) append(userIndex, itemIndex int32, label float32, origin Origin) {
	s.Users = append(s.Users, userIndex)
	s.Items = append(s.Items, itemIndex)
	s.Labels = append(s.Labels, label)
	s.Origins = append(s.Origins, origin)
}

// SamplerConfig configures implicit-feedback label construction.
type SamplerConfig struct {
	// PositiveThreshold is the minimal rating treated as label 1. Ratings
	// strictly below are excluded to avoid label noise from mid-range
	// ratings; they are never treated as negative evidence.
	PositiveThreshold int
	// NegativeRatio is the number of negatives synthesized per positive.
	NegativeRatio int
	// MaxResampleAttempts bounds retries per negative before skipping it.
	MaxResampleAttempts int
	// RandomSeed drives sampling, shuffling and the train/validation split.
	RandomSeed int64
}

// SampleImplicit converts the observed ratings into binary labels,
// synthesizes negatives and returns a deterministic 80/20 train/validation
// split. The same seed yields byte-for-byte identical label sets.
func (d *Dataset) SampleImplicit(cfg SamplerConfig) (trainSet, validSet *ImplicitSet) {
	rng := base.NewRandomGenerator(cfg.RandomSeed)
	numItems := d.CountItems()
	all := &ImplicitSet{numUsers: d.CountUsers(), numItems: numItems}
	skipped := 0
	for userIndex := int32(0); userIndex < d.UserIndex.Len(); userIndex++ {
		positives := mapset.NewThreadUnsafeSet[int32]()
		for _, feedback := range d.GetUserFeedback(userIndex) {
			if feedback.Rating >= cfg.PositiveThreshold {
				positives.Add(feedback.ItemIndex)
			}
		}
		// Sampled negatives must not collide with observed positives nor
		// repeat within this pass for the same user.
		sampled := mapset.NewThreadUnsafeSet[int32]()
		for _, feedback := range d.GetUserFeedback(userIndex) {
			if feedback.Rating < cfg.PositiveThreshold {
				continue
			}
			all.append(userIndex, feedback.ItemIndex, 1, OriginObserved)
			for n := 0; n < cfg.NegativeRatio; n++ {
				negIndex := base.NotId
				for attempt := 0; attempt < cfg.MaxResampleAttempts; attempt++ {
					candidate := rng.Int31n(int32(numItems))
					if !positives.Contains(candidate) && !sampled.Contains(candidate) {
						negIndex = candidate
						break
					}
				}
				if negIndex == base.NotId {
					// Non-fatal: the user positives cover almost the whole
					// catalog, skip this negative and continue.
					skipped++
					continue
				}
				sampled.Add(negIndex)
				all.append(userIndex, negIndex, 0, OriginSampledNegative)
			}
		}
	}
	if skipped > 0 {
		log.Logger().Warn("negative sampling exhausted",
			zap.Int("skipped", skipped),
			zap.Int("max_resample_attempts", cfg.MaxResampleAttempts))
	}
	// Seeded shuffle, then 80/20 split. The shuffle and the split share the
	// generator with sampling so a seed fixes the whole label set.
	perm := rng.Perm(all.Count())
	shuffled := &ImplicitSet{numUsers: all.numUsers, numItems: all.numItems}
	for _, i := range perm {
		shuffled.append(all.Users[i], all.Items[i], all.Labels[i], all.Origins[i])
	}
	trainSize := shuffled.Count() * 4 / 5
	trainSet = &ImplicitSet{
		Users:    shuffled.Users[:trainSize],
		Items:    shuffled.Items[:trainSize],
		Labels:   shuffled.Labels[:trainSize],
		Origins:  shuffled.Origins[:trainSize],
		numUsers: shuffled.numUsers,
		numItems: shuffled.numItems,
	}
	validSet = &ImplicitSet{
		Users:    shuffled.Users[trainSize:],
		Items:    shuffled.Items[trainSize:],
		Labels:   shuffled.Labels[trainSize:],
		Origins:  shuffled.Origins[trainSize:],
		numUsers: shuffled.numUsers,
		numItems: shuffled.numItems,
	}
	log.Logger().Info("implicit feedback sampled",
		zap.Int("train_size", trainSet.Count()),
		zap.Int("valid_size", validSet.Count()),
		zap.Int("skipped_negatives", skipped))
	return
}
