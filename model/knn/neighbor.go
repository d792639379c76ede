// Copyright 2025 gorse Project Authors
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

package knn

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/juju/errors"
	"golang.org/x/sync/singleflight"
)

// Neighbor is a candidate row with its weight.
type Neighbor struct {
	Index  int
	Weight float64
}

// Ranking is a sequence of neighbors in the order they are consumed.
type Ranking []Neighbor

// Indices returns neighbor indices in order.
func (r Ranking) Indices() []int {
	indices := make([]int, len(r))
	for i, n := range r {
		indices[i] = n.Index
	}
	return indices
}

// Weights returns neighbor weights in order.
func (r Ranking) Weights() []float64 {
	weights := make([]float64, len(r))
	for i, n := range r {
		weights[i] = n.Weight
	}
	return weights
}

func (r Ranking) clone() Ranking {
	c := make(Ranking, len(r))
	copy(c, r)
	return c
}

type rankKey struct {
	row     int
	hash    uint64
	preSort string
	postMap string
}

func (k rankKey) String() string {
	return fmt.Sprintf("%d/%x/%s/%s", k.row, k.hash, k.preSort, k.postMap)
}

// Selector ranks the neighbors of a row and memoizes rankings by row, content
// hash of the scores and transform names. Transforms sharing a name must behave
// the same. It is safe for concurrent use and computes every key at most once.
type Selector struct {
	mu    sync.RWMutex
	cache map[rankKey]Ranking
	group singleflight.Group
}

// NewSelector creates a selector with an empty cache.
func NewSelector() *Selector {
	return &Selector{cache: make(map[rankKey]Ranking)}
}

var defaultSelector = NewSelector()

// DefaultSelector returns the process-wide selector.
func DefaultSelector() *Selector {
	return defaultSelector
}

// Len returns the number of cached rankings.
func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Rank orders every column of row in scores by descending key. The key is
// preSort applied to a copy of the row, or the row itself. Ties keep ascending
// column order. postMap is applied to the sorted ranking. The returned ranking
// is owned by the caller.
func (s *Selector) Rank(row int, scores Scores, preSort Transform[[]float64], postMap Transform[Ranking]) (Ranking, error) {
	rows, cols := scores.Shape()
	if row < 0 || row >= rows {
		return nil, errors.NotFoundf("row %d in scores of shape (%d, %d)", row, rows, cols)
	}
	key := rankKey{row: row, hash: scores.Hash(), preSort: preSort.name(), postMap: postMap.name()}
	s.mu.RLock()
	ranking, exist := s.cache[key]
	s.mu.RUnlock()
	if exist {
		return ranking.clone(), nil
	}
	v, _, _ := s.group.Do(key.String(), func() (any, error) {
		s.mu.RLock()
		ranking, exist := s.cache[key]
		s.mu.RUnlock()
		if exist {
			return ranking, nil
		}
		ranking = rank(scores.Row(row), preSort, postMap)
		s.mu.Lock()
		s.cache[key] = ranking
		s.mu.Unlock()
		return ranking, nil
	})
	return v.(Ranking).clone(), nil
}

func rank(weights []float64, preSort Transform[[]float64], postMap Transform[Ranking]) Ranking {
	keys := weights
	if preSort.Apply != nil {
		buf := make([]float64, len(weights))
		copy(buf, weights)
		keys = preSort.Apply(buf)
	}
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	// NaN keys go last
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		return !math.IsNaN(ka) && (math.IsNaN(kb) || ka > kb)
	})
	ranking := make(Ranking, len(order))
	for i, j := range order {
		ranking[i] = Neighbor{Index: j, Weight: weights[j]}
	}
	if postMap.Apply != nil {
		ranking = postMap.Apply(ranking)
	}
	return ranking
}
