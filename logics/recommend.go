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

// Package logics combines the trained scorer and the content index into
// ranked recommendations. The ranker is the boundary that converts unknown
// index failures into documented fallbacks: a cold user gets a neutral
// personalization score, a user without favorites gets zero content scores.
// Only a completely unknown user fails the request.
package logics

import (
	"sort"
	"sync/atomic"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base"
	"github.com/shelfwise-io/shelfwise/base/log"
	"github.com/shelfwise-io/shelfwise/content"
	"github.com/shelfwise-io/shelfwise/dataset"
	"github.com/shelfwise-io/shelfwise/model/ncf"
)

// Result is one ranked recommendation.
type Result struct {
	ItemId string
	Score  float64
}

// Weights are the fusion weights of the two scoring paths. They are not
// required to sum to 1.
type Weights struct {
	NCF float64
	CBF float64
}

// DefaultWeights weight personalization over content relevance.
var DefaultWeights = Weights{NCF: 0.7, CBF: 0.3}

// Scorer is the personalization model seen by the ranker. *ncf.NeuMF
// implements it.
type Scorer interface {
	// Predict returns the interaction probability for a (user, item) pair and
	// fails with base.ErrUnknownIndex outside the trained index spaces.
	Predict(userIndex, itemIndex int32) (float32, error)
	// IsUserPredictable returns false for users whose embeddings were never
	// trained.
	IsUserPredictable(userIndex int32) bool
	// IsItemPredictable returns false for items whose embeddings were never
	// trained.
	IsItemPredictable(itemIndex int32) bool
}

var _ Scorer = (*ncf.NeuMF)(nil)

// Artifacts is one immutable generation of trained state. All fields are
// read-only after construction, so any number of concurrent Recommend calls
// may share a generation without locking.
type Artifacts struct {
	// Snapshot is the frozen dataset the artifacts were built from. It
	// provides the index mappers, the exclusion sets and the favorites.
	Snapshot *dataset.Dataset
	// Scorer is the trained personalization model.
	Scorer Scorer
	// Content is the term-vector similarity index.
	Content *content.Index
	// PositiveThreshold selects favorites; it matches the threshold used for
	// label construction.
	PositiveThreshold int
}

// Recommender answers top-K queries against the newest artifact generation.
type Recommender struct {
	generation atomic.Pointer[Artifacts]
	weights    Weights
}

// NewRecommender creates a Recommender with the given default fusion weights.
func NewRecommender(weights Weights) *Recommender {
	return &Recommender{weights: weights}
}

// Swap atomically installs a new artifact generation. In-flight requests keep
// reading the previous generation; new requests see the new one. There are no
// partial-state reads.
func (r *Recommender) Swap(artifacts *Artifacts) {
	r.generation.Swap(artifacts)
	log.Logger().Info("artifacts swapped",
		zap.Int("n_users", artifacts.Snapshot.CountUsers()),
		zap.Int("n_items", artifacts.Snapshot.CountItems()))
}

// Recommend returns the top k items for a user, fused from both scoring
// paths with the recommender's default weights.
func (r *Recommender) Recommend(userId string, k int) ([]Result, error) {
	return r.RecommendWithWeights(userId, k, r.weights)
}

// RecommendWithWeights returns the top k items for a user.
//
// The candidate set is every item the user has no observed interaction with,
// regardless of rating. The returned list has length min(k, candidates), is
// ordered by descending hybrid score and breaks ties by ascending item index,
// so identical inputs against the same generation yield identical output. A
// user who interacted with every item gets an empty list, not an error; a
// user the mapper has never seen fails with base.ErrUnknownUser.
func (r *Recommender) RecommendWithWeights(userId string, k int, weights Weights) ([]Result, error) {
	artifacts := r.generation.Load()
	if artifacts == nil {
		return nil, errors.New("no artifacts installed")
	}
	userIndex := artifacts.Snapshot.UserIndex.ToNumber(userId)
	if userIndex == base.NotId {
		return nil, errors.Annotatef(base.ErrUnknownUser, "user %q", userId)
	}
	ranked := rank(artifacts, userIndex, k, weights)
	results := make([]Result, 0, len(ranked))
	for _, item := range ranked {
		itemId, err := artifacts.Snapshot.ItemIndex.ToName(item.itemIndex)
		if err != nil {
			return nil, errors.Trace(err)
		}
		results = append(results, Result{ItemId: itemId, Score: item.score})
	}
	return results, nil
}

type rankedItem struct {
	itemIndex int32
	score     float64
}

func rank(artifacts *Artifacts, userIndex int32, k int, weights Weights) []rankedItem {
	snapshot := artifacts.Snapshot
	interacted := snapshot.Interacted(userIndex)
	numItems := int32(snapshot.CountItems())
	// Cold users keep a neutral personalization score instead of failing the
	// whole request.
	predictable := artifacts.Scorer.IsUserPredictable(userIndex)
	favorites := snapshot.Favorites(userIndex, artifacts.PositiveThreshold)
	candidates := make([]rankedItem, 0, int(numItems)-interacted.Cardinality())
	for itemIndex := int32(0); itemIndex < numItems; itemIndex++ {
		if interacted.Contains(itemIndex) {
			continue
		}
		var ncfScore float64
		if predictable && artifacts.Scorer.IsItemPredictable(itemIndex) {
			prediction, err := artifacts.Scorer.Predict(userIndex, itemIndex)
			if err != nil {
				// Membership was checked; an error here is a programming
				// mistake, not a cold start.
				log.Logger().Error("predict failed", zap.Error(err),
					zap.Int32("user_index", userIndex), zap.Int32("item_index", itemIndex))
			} else {
				ncfScore = float64(prediction)
			}
		}
		var cbfScore float64
		if len(favorites) > 0 {
			var sum float64
			for _, favorite := range favorites {
				sum += float64(artifacts.Content.Similarity(itemIndex, favorite))
			}
			cbfScore = sum / float64(len(favorites))
		}
		candidates = append(candidates, rankedItem{
			itemIndex: itemIndex,
			score:     weights.NCF*ncfScore + weights.CBF*cbfScore,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].itemIndex < candidates[j].itemIndex
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
