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

// Package content builds a weighted term-vector per item from its tag-soup
// document and answers pairwise similarity queries. Vectors are L2-normalized
// TF-IDF, so cosine similarity reduces to a sparse dot product. The index is
// built once from the full corpus and is immutable during serving; corpus
// changes rebuild it wholesale.
package content

import (
	"context"
	"encoding/binary"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/shelfwise-io/shelfwise/base"
	"github.com/shelfwise-io/shelfwise/base/encoding"
	"github.com/shelfwise-io/shelfwise/base/log"
	"github.com/shelfwise-io/shelfwise/base/progress"
	"github.com/shelfwise-io/shelfwise/common/parallel"
	"github.com/shelfwise-io/shelfwise/dataset"
)

// Document is one item text record, already assembled upstream.
type Document struct {
	ItemIndex int32
	Text      string
}

// Neighbor is one entry of a top-K similar-items answer.
type Neighbor struct {
	ItemIndex  int32
	Similarity float32
}

// term is a single entry of a sparse vector, sorted by term id for merge-join
// dot products.
type term struct {
	Id     int32
	Weight float32
}

// Index is the content similarity index.
type Index struct {
	Vocabulary *dataset.FreqDict
	IDF        []float32
	Vectors    [][]term // per item index; empty documents yield nil vectors
}

// Build the index from the item documents. numItems fixes the item index
// space; items without a document get a zero vector. The build is parallel
// across documents and cancellable between units of work.
func Build(ctx context.Context, numItems int, docs []Document, jobs int) (*Index, error) {
	buildStart := time.Now()
	index := &Index{
		Vocabulary: dataset.NewFreqDict(),
		Vectors:    make([][]term, numItems),
	}
	// Vocabulary and document frequencies. Term ids must be assigned by a
	// single writer, so this pass is sequential.
	counts := make([]map[int32]int, len(docs))
	var df []int
	for d, doc := range docs {
		tokens := tokenize(doc.Text)
		termCount := make(map[int32]int, len(tokens))
		for _, token := range tokens {
			id := int32(index.Vocabulary.NotCount(token))
			if int(id) >= len(df) {
				df = append(df, 0)
			}
			if termCount[id] == 0 {
				df[id]++
			}
			termCount[id]++
		}
		counts[d] = termCount
	}
	// Smoothed inverse document frequency. The +1 terms keep weights positive
	// and defined for terms present in every or no document.
	n := float32(len(docs))
	index.IDF = make([]float32, len(df))
	for id := range df {
		index.IDF[id] = math32.Log((1+n)/(1+float32(df[id]))) + 1
	}
	// Weighting and normalization are embarrassingly parallel across
	// documents.
	_, span := progress.Start(ctx, "content.Build", len(docs))
	if err := parallel.Parallel(ctx, len(docs), jobs, func(_, jobId int) error {
		doc := docs[jobId]
		vector := make([]term, 0, len(counts[jobId]))
		for id, count := range counts[jobId] {
			vector = append(vector, term{Id: id, Weight: float32(count) * index.IDF[id]})
		}
		sort.Slice(vector, func(i, j int) bool { return vector[i].Id < vector[j].Id })
		var norm float32
		for _, t := range vector {
			norm += t.Weight * t.Weight
		}
		if norm > 0 {
			norm = math32.Sqrt(norm)
			for i := range vector {
				vector[i].Weight /= norm
			}
			index.Vectors[doc.ItemIndex] = vector
		}
		span.Add(1)
		return nil
	}); err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}
	span.End()
	log.Logger().Info("content index built",
		zap.Int("n_documents", len(docs)),
		zap.Int("n_items", numItems),
		zap.Int("vocabulary_size", index.Vocabulary.Count()),
		zap.String("build_time", time.Since(buildStart).String()))
	return index, nil
}

// tokenize lowercases the document and splits it into alphanumeric terms.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// CountItems returns the size of the item index space.
func (index *Index) CountItems() int {
	return len(index.Vectors)
}

// Similarity returns the cosine similarity between two items, clipped to
// [0, 1]. An item with an empty document has similarity 0 to every item,
// itself included; this is the documented exception to the unit diagonal.
func (index *Index) Similarity(a, b int32) float32 {
	va, vb := index.Vectors[a], index.Vectors[b]
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}
	if a == b {
		return 1
	}
	var dot float32
	i, j := 0, 0
	for i < len(va) && j < len(vb) {
		switch {
		case va[i].Id == vb[j].Id:
			dot += va[i].Weight * vb[j].Weight
			i++
			j++
		case va[i].Id < vb[j].Id:
			i++
		default:
			j++
		}
	}
	// Guard floating rounding on normalized vectors.
	return math32.Min(math32.Max(dot, 0), 1)
}

// TopKSimilar returns the k most similar items to the given item, ordered by
// descending similarity with ties broken by ascending item index. The item
// itself is excluded. The row is computed on demand; no dense matrix is
// materialized.
func (index *Index) TopKSimilar(itemIndex int32, k int) []Neighbor {
	filter := base.NewTopKFilter(k)
	for other := int32(0); other < int32(len(index.Vectors)); other++ {
		if other == itemIndex {
			continue
		}
		filter.Add(other, index.Similarity(itemIndex, other))
	}
	elems, scores := filter.ToSorted()
	neighbors := make([]Neighbor, len(elems))
	for i := range elems {
		neighbors[i] = Neighbor{ItemIndex: elems[i], Similarity: scores[i]}
	}
	return neighbors
}

// TopKAll computes the top-K neighbors of every item, row blocks in parallel
// with bounded peak memory. Cancelling ctx discards the partial result.
func (index *Index) TopKAll(ctx context.Context, k, jobs int) ([][]Neighbor, error) {
	neighbors := make([][]Neighbor, len(index.Vectors))
	_, span := progress.Start(ctx, "content.TopKAll", len(index.Vectors))
	if err := parallel.Parallel(ctx, len(index.Vectors), jobs, func(_, jobId int) error {
		neighbors[jobId] = index.TopKSimilar(int32(jobId), k)
		span.Add(1)
		return nil
	}); err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}
	span.End()
	return neighbors, nil
}

// Marshal index into byte stream. Vocabulary and IDF weights round-trip
// exactly.
func (index *Index) Marshal(w io.Writer) error {
	vocabulary := make([]string, index.Vocabulary.Count())
	for id := range vocabulary {
		vocabulary[id], _ = index.Vocabulary.String(id)
	}
	if err := encoding.WriteGob(w, vocabulary); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(index.IDF))); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, index.IDF); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(index.Vectors))); err != nil {
		return errors.Trace(err)
	}
	for _, vector := range index.Vectors {
		if err := binary.Write(w, binary.LittleEndian, int32(len(vector))); err != nil {
			return errors.Trace(err)
		}
		if err := binary.Write(w, binary.LittleEndian, vector); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal index from byte stream.
func (index *Index) Unmarshal(r io.Reader) error {
	var vocabulary []string
	if err := encoding.ReadGob(r, &vocabulary); err != nil {
		return errors.Trace(err)
	}
	index.Vocabulary = dataset.NewFreqDict()
	for _, s := range vocabulary {
		index.Vocabulary.NotCount(s)
	}
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return errors.Trace(err)
	}
	index.IDF = make([]float32, length)
	if err := binary.Read(r, binary.LittleEndian, index.IDF); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return errors.Trace(err)
	}
	index.Vectors = make([][]term, length)
	for i := range index.Vectors {
		var vectorLength int32
		if err := binary.Read(r, binary.LittleEndian, &vectorLength); err != nil {
			return errors.Trace(err)
		}
		if vectorLength == 0 {
			continue
		}
		index.Vectors[i] = make([]term, vectorLength)
		if err := binary.Read(r, binary.LittleEndian, index.Vectors[i]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
