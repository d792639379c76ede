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

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMatrix() *RatingMatrix {
	return NewRatingMatrixFromDense([][]float64{
		{5, 3, 0, 1},
		{4, 0, 0, 1},
		{0, 0, 0, 0},
	})
}

func TestMatrixBuilder(t *testing.T) {
	b := NewMatrixBuilder(2, 3)
	b.Set(0, 1, 4)
	b.Set(1, 2, 2)
	m := b.Build()
	assert.Panics(t, func() { b.Set(0, 0, 1) })

	rows, cols := m.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.True(t, m.Valid(0, 1))
	assert.False(t, m.Valid(0, 0))
	v, ok := m.Get(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = m.Get(1, 0)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Count())
	assert.Panics(t, func() { m.At(2, 0) })
	assert.Panics(t, func() { m.Row(-1) })
}

func TestRatingMatrix_Row(t *testing.T) {
	m := newTestMatrix()
	row := m.Row(0)
	assert.Equal(t, 0, row.Index())
	assert.Equal(t, 4, row.Len())
	assert.Equal(t, 3, row.Count())
	assert.Equal(t, 3.0, row.Mean())
	// empty row
	assert.Zero(t, m.Row(2).Count())
	assert.Zero(t, m.Row(2).Mean())

	var cols []int
	row.ForEach(func(j int, v float64) {
		cols = append(cols, j)
	})
	assert.Equal(t, []int{0, 1, 3}, cols)

	var shared []int
	var products float64
	row.ForIntersection(m.Row(1), func(j int, a, b float64) {
		shared = append(shared, j)
		products += a * b
	})
	assert.Equal(t, []int{0, 3}, shared)
	assert.Equal(t, 21.0, products)
	assert.Equal(t, 2, row.IntersectionCount(m.Row(1)))
	assert.Zero(t, row.IntersectionCount(m.Row(2)))

	// masks are copies
	mask := row.Mask()
	mask.Clear(0)
	assert.True(t, row.Valid(0))
}

func TestRatingMatrix_Columns(t *testing.T) {
	m := newTestMatrix()
	assert.Equal(t, []int{2, 1, 0, 2}, m.ColumnCounts())
	assert.Equal(t, []float64{4.5, 3, 0, 1}, m.ColumnMeans())
}

func TestRatingMatrix_Transpose(t *testing.T) {
	m := newTestMatrix()
	tr := m.Transpose()
	rows, cols := tr.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, m.Valid(i, j), tr.Valid(j, i))
			if m.Valid(i, j) {
				assert.Equal(t, m.At(i, j), tr.At(j, i))
			}
		}
	}
	assert.Equal(t, 4.5, tr.Row(0).Mean())
}

func TestRatingMatrix_Weighted(t *testing.T) {
	m := newTestMatrix()
	w := m.Weighted(ColumnWeights{2, 1, 1, 0.5})
	assert.Equal(t, 10.0, w.At(0, 0))
	assert.Equal(t, 0.5, w.At(1, 3))
	assert.False(t, w.Valid(1, 1))
	// source untouched
	assert.Equal(t, 5.0, m.At(0, 0))

	r := m.Weighted(RowWeights{1, 3, 1})
	assert.Equal(t, 12.0, r.At(1, 0))
	assert.Equal(t, 3.0, r.At(0, 1))
}

func TestRatingMatrix_Stack(t *testing.T) {
	m := newTestMatrix()
	other := NewRatingMatrixFromDense([][]float64{
		{1, 1, 1, 1},
		{2, 0, 2, 0},
	})
	s := m.Stack(other, []int{1})
	rows, _ := s.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 2.0, s.At(3, 2))
	assert.False(t, s.Valid(3, 1))
	assert.Equal(t, 2.0, s.Row(3).Mean())
	assert.Equal(t, 3, s.Row(0).Count())

	taken := m.Take([]int{1, 0})
	rows, _ = taken.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4.0, taken.At(0, 0))
	assert.Equal(t, 5.0, taken.At(1, 0))

	assert.Panics(t, func() {
		m.Stack(NewMatrixBuilder(1, 2).Build(), []int{0})
	})
}

func TestNewRatingMatrixFromDense(t *testing.T) {
	assert.Panics(t, func() {
		NewRatingMatrixFromDense([][]float64{{1, 2}, {1}})
	})
	rows, cols := NewRatingMatrixFromDense(nil).Shape()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}
