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
	"container/heap"
	"sort"
)

// TopKFilter is designed to store the K maximal scored elements. A heap is
// used to reduce the time and memory complexity of top-K searching.
type TopKFilter struct {
	Elem  []int32   // store elements
	Score []float32 // store scores
	K     int       // the size of the filter
}

// NewTopKFilter creates a TopKFilter.
func NewTopKFilter(k int) *TopKFilter {
	filter := new(TopKFilter)
	filter.Elem = make([]int32, 0, k+1)
	filter.Score = make([]float32, 0, k+1)
	filter.K = k
	return filter
}

// Less returns true if the score of the i-th item is less than the score of
// the j-th item. Equal scores order by descending element so that eviction
// drops the largest element first, keeping top-K sets reproducible. It is a
// method of heap.Interface.
func (filter *TopKFilter) Less(i, j int) bool {
	if filter.Score[i] != filter.Score[j] {
		return filter.Score[i] < filter.Score[j]
	}
	return filter.Elem[i] > filter.Elem[j]
}

// Swap the i-th item with the j-th item. It is a method of heap.Interface.
func (filter *TopKFilter) Swap(i, j int) {
	filter.Elem[i], filter.Elem[j] = filter.Elem[j], filter.Elem[i]
	filter.Score[i], filter.Score[j] = filter.Score[j], filter.Score[i]
}

// Len returns the size of the heap. It is a method of heap.Interface.
func (filter *TopKFilter) Len() int {
	return len(filter.Elem)
}

type heapItem struct {
	Elem  int32
	Score float32
}

// Push an element into the heap. It is a method of heap.Interface.
func (filter *TopKFilter) Push(x interface{}) {
	item := x.(heapItem)
	filter.Elem = append(filter.Elem, item.Elem)
	filter.Score = append(filter.Score, item.Score)
}

// Pop the element with the minimal score. It is a method of heap.Interface.
func (filter *TopKFilter) Pop() interface{} {
	n := filter.Len()
	item := heapItem{Elem: filter.Elem[n-1], Score: filter.Score[n-1]}
	filter.Elem = filter.Elem[:n-1]
	filter.Score = filter.Score[:n-1]
	return item
}

// Add a new element to the filter, evicting the minimum when over capacity.
func (filter *TopKFilter) Add(elem int32, score float32) {
	heap.Push(filter, heapItem{elem, score})
	if filter.Len() > filter.K {
		heap.Pop(filter)
	}
}

// ToSorted returns elements and scores ordered by descending score. Equal
// scores order by ascending element for reproducibility.
func (filter *TopKFilter) ToSorted() ([]int32, []float32) {
	items := make([]heapItem, filter.Len())
	for i := range items {
		items[i] = heapItem{filter.Elem[i], filter.Score[i]}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Elem < items[j].Elem
	})
	elems := make([]int32, len(items))
	scores := make([]float32, len(items))
	for i, item := range items {
		elems[i] = item.Elem
		scores[i] = item.Score
	}
	return elems, scores
}
