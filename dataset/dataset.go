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

// Package dataset holds the interaction table consumed by training and
// serving. Records arrive already cleaned: interaction records carry a user
// id, an item id and an integer rating; document records carry an item id and
// a pre-assembled text document.
package dataset

import (
	"io"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base"
	"github.com/shelfwise-io/shelfwise/base/encoding"
	"github.com/shelfwise-io/shelfwise/base/log"
)

// Feedback is a single observed interaction of a user, by item index.
type Feedback struct {
	ItemIndex int32
	Rating    int
}

// Dataset owns the user and item index mappers and the observed interactions.
// It grows monotonically during ingestion and is frozen before training.
type Dataset struct {
	UserIndex *base.Index
	ItemIndex *base.Index

	userFeedback  [][]Feedback // observed interactions per user index
	itemFeedback  []int        // observed interaction count per item index
	itemDocuments []string     // tag-soup document per item index
	feedbackCount int
	frozen        bool
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		UserIndex: base.NewIndex(),
		ItemIndex: base.NewIndex(),
	}
}

// AddInteraction ingests one interaction record, assigning dense indices on
// first sight. Panics if the dataset is frozen: ingestion and training are
// separate phases by contract.
func (d *Dataset) AddInteraction(userId, itemId string, rating int) {
	if d.frozen {
		panic("dataset: add interaction after freeze")
	}
	userIndex := d.UserIndex.Add(userId)
	itemIndex := d.addItem(itemId)
	for int32(len(d.userFeedback)) <= userIndex {
		d.userFeedback = append(d.userFeedback, nil)
	}
	d.userFeedback[userIndex] = append(d.userFeedback[userIndex], Feedback{ItemIndex: itemIndex, Rating: rating})
	d.itemFeedback[itemIndex]++
	d.feedbackCount++
}

// AddDocument ingests one item document record. Items may carry a document
// without any observed interaction.
func (d *Dataset) AddDocument(itemId, text string) {
	if d.frozen {
		panic("dataset: add document after freeze")
	}
	itemIndex := d.addItem(itemId)
	d.itemDocuments[itemIndex] = text
}

func (d *Dataset) addItem(itemId string) int32 {
	itemIndex := d.ItemIndex.Add(itemId)
	for int32(len(d.itemFeedback)) <= itemIndex {
		d.itemFeedback = append(d.itemFeedback, 0)
		d.itemDocuments = append(d.itemDocuments, "")
	}
	return itemIndex
}

// Freeze ends ingestion. Index assignment and interactions are immutable
// afterwards, which makes concurrent reads safe without locking.
func (d *Dataset) Freeze() {
	d.frozen = true
	log.Logger().Info("dataset frozen",
		zap.Int32("n_users", d.UserIndex.Len()),
		zap.Int32("n_items", d.ItemIndex.Len()),
		zap.Int("n_feedback", d.feedbackCount))
}

// CountUsers returns the number of mapped users.
func (d *Dataset) CountUsers() int {
	return int(d.UserIndex.Len())
}

// CountItems returns the number of mapped items.
func (d *Dataset) CountItems() int {
	return int(d.ItemIndex.Len())
}

// CountFeedback returns the number of observed interactions.
func (d *Dataset) CountFeedback() int {
	return d.feedbackCount
}

// GetUserFeedback returns the observed interactions of a user. The slice is
// shared; callers must not mutate it.
func (d *Dataset) GetUserFeedback(userIndex int32) []Feedback {
	if userIndex < 0 || int(userIndex) >= len(d.userFeedback) {
		return nil
	}
	return d.userFeedback[userIndex]
}

// GetItemFeedbackCount returns the number of observed interactions of an item.
func (d *Dataset) GetItemFeedbackCount(itemIndex int32) int {
	if itemIndex < 0 || int(itemIndex) >= len(d.itemFeedback) {
		return 0
	}
	return d.itemFeedback[itemIndex]
}

// GetDocument returns the tag-soup document of an item. Items without a
// document yield the empty string.
func (d *Dataset) GetDocument(itemIndex int32) string {
	if itemIndex < 0 || int(itemIndex) >= len(d.itemDocuments) {
		return ""
	}
	return d.itemDocuments[itemIndex]
}

// Interacted returns the set of items a user has any observed interaction
// with, regardless of rating.
func (d *Dataset) Interacted(userIndex int32) mapset.Set[int32] {
	set := mapset.NewThreadUnsafeSet[int32]()
	for _, feedback := range d.GetUserFeedback(userIndex) {
		set.Add(feedback.ItemIndex)
	}
	return set
}

// Favorites returns the items a user rated at or above the positive
// threshold, ordered by insertion.
func (d *Dataset) Favorites(userIndex int32, positiveThreshold int) []int32 {
	var favorites []int32
	for _, feedback := range d.GetUserFeedback(userIndex) {
		if feedback.Rating >= positiveThreshold {
			favorites = append(favorites, feedback.ItemIndex)
		}
	}
	return favorites
}

// Marshal the dataset into a byte stream. Documents are not persisted; the
// content index owns the trained term vectors.
func (d *Dataset) Marshal(w io.Writer) error {
	if err := d.UserIndex.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := d.ItemIndex.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	feedback := make([][]Feedback, d.UserIndex.Len())
	for userIndex := range feedback {
		feedback[userIndex] = d.GetUserFeedback(int32(userIndex))
	}
	return errors.Trace(encoding.WriteGob(w, feedback))
}

// Unmarshal a dataset from a byte stream. The result is frozen.
func (d *Dataset) Unmarshal(r io.Reader) error {
	d.UserIndex = base.NewIndex()
	d.ItemIndex = base.NewIndex()
	if err := d.UserIndex.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	if err := d.ItemIndex.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	var feedback [][]Feedback
	if err := encoding.ReadGob(r, &feedback); err != nil {
		return errors.Trace(err)
	}
	d.userFeedback = feedback
	d.itemFeedback = make([]int, d.ItemIndex.Len())
	d.itemDocuments = make([]string, d.ItemIndex.Len())
	d.feedbackCount = 0
	for _, list := range feedback {
		for _, f := range list {
			d.itemFeedback[f.ItemIndex]++
			d.feedbackCount++
		}
	}
	d.frozen = true
	return nil
}
