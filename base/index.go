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
	"encoding/binary"
	"io"

	"github.com/juju/errors"

	"github.com/shelfwise-io/shelfwise/base/encoding"
)

// NotId represents an ID that doesn't exist.
const NotId = int32(-1)

// Index manages the map between sparse ids and dense indices. A sparse ID is
// a user ID or item ID from the catalog. The dense index is the internal user
// index or item index optimized for faster parameter access and less memory
// usage. Index assignment is append-only: the first sight of an ID assigns the
// next free index, later sights return the same index. Not safe for concurrent
// writers; ingestion is single-writer, reads after freezing are lock-free.
type Index struct {
	Numbers map[string]int32 // sparse ID -> dense index
	Names   []string         // dense index -> sparse ID
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	set := new(Index)
	set.Numbers = make(map[string]int32)
	set.Names = make([]string, 0)
	return set
}

// Len returns the number of indexed ids.
func (idx *Index) Len() int32 {
	if idx == nil {
		return 0
	}
	return int32(len(idx.Names))
}

// Add adds a new ID to the indexer and returns its dense index. If the ID has
// been seen before, the existing index is returned.
func (idx *Index) Add(name string) int32 {
	if denseId, exist := idx.Numbers[name]; exist {
		return denseId
	}
	denseId := int32(len(idx.Names))
	idx.Numbers[name] = denseId
	idx.Names = append(idx.Names, name)
	return denseId
}

// ToNumber converts a sparse ID to a dense index. Returns NotId for an ID
// never added.
func (idx *Index) ToNumber(name string) int32 {
	if denseId, exist := idx.Numbers[name]; exist {
		return denseId
	}
	return NotId
}

// ToName converts a dense index back to a sparse ID. It inverts ToNumber
// exactly and fails with ErrUnknownIndex for an index never assigned.
func (idx *Index) ToName(index int32) (string, error) {
	if index < 0 || index >= idx.Len() {
		return "", errors.Annotatef(ErrUnknownIndex, "index %d", index)
	}
	return idx.Names[index], nil
}

// GetNames returns all ids in the current index ordered by dense index.
func (idx *Index) GetNames() []string {
	return idx.Names
}

// Marshal index into byte stream.
func (idx *Index) Marshal(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(idx.Names))); err != nil {
		return errors.Trace(err)
	}
	for _, s := range idx.Names {
		if err := encoding.WriteString(w, s); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal index from byte stream.
func (idx *Index) Unmarshal(r io.Reader) error {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return errors.Trace(err)
	}
	idx.Names = make([]string, 0, n)
	idx.Numbers = make(map[string]int32, n)
	for i := 0; i < int(n); i++ {
		name, err := encoding.ReadString(r)
		if err != nil {
			return errors.Trace(err)
		}
		idx.Add(name)
	}
	return nil
}
