// Copyright 2020 gorse Project Authors
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

// Index manages the map between external user ids and dense row indices.
// Rows are assigned in first-seen order.
type Index struct {
	numbers map[int]int // external id -> row
	names   []int       // row -> external id
}

// NotId represents an id doesn't exist.
const NotId = -1

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{
		numbers: make(map[int]int),
		names:   make([]int, 0),
	}
}

// Len returns the number of indexed ids.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.names)
}

// Add adds a new id to the index. Known ids keep their row.
func (idx *Index) Add(id int) int {
	if row, exist := idx.numbers[id]; exist {
		return row
	}
	idx.numbers[id] = len(idx.names)
	idx.names = append(idx.names, id)
	return len(idx.names) - 1
}

// Contains reports whether id is indexed.
func (idx *Index) Contains(id int) bool {
	_, exist := idx.numbers[id]
	return exist
}

// ToNumber converts an external id to a row index.
func (idx *Index) ToNumber(id int) int {
	if row, exist := idx.numbers[id]; exist {
		return row
	}
	return NotId
}

// ToName converts a row index to an external id.
func (idx *Index) ToName(row int) int {
	return idx.names[row]
}

// Names returns all ids in row order.
func (idx *Index) Names() []int {
	names := make([]int, len(idx.names))
	copy(names, idx.names)
	return names
}

// Copy returns an independent copy.
func (idx *Index) Copy() *Index {
	c := &Index{
		numbers: make(map[int]int, len(idx.numbers)),
		names:   idx.Names(),
	}
	for k, v := range idx.numbers {
		c.numbers[k] = v
	}
	return c
}
