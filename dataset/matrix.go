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
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// RatingMatrix is an immutable rows x cols grid of ratings. Every row carries a
// validity bitmap; values at invalid cells are undefined and never read.
type RatingMatrix struct {
	rows   int
	cols   int
	values []float64
	valid  []*bitset.BitSet
	counts []int
	means  []float64
}

// MatrixBuilder fills a RatingMatrix before it is frozen by Build.
type MatrixBuilder struct {
	m *RatingMatrix
}

// NewMatrixBuilder creates a builder for an empty (all invalid) rows x cols matrix.
func NewMatrixBuilder(rows, cols int) *MatrixBuilder {
	m := &RatingMatrix{
		rows:   rows,
		cols:   cols,
		values: make([]float64, rows*cols),
		valid:  make([]*bitset.BitSet, rows),
	}
	for i := range m.valid {
		m.valid[i] = bitset.New(uint(cols))
	}
	return &MatrixBuilder{m: m}
}

// Set marks cell (i, j) as rated with value v.
func (b *MatrixBuilder) Set(i, j int, v float64) {
	if b.m == nil {
		panic("dataset: Set on a built matrix")
	}
	b.m.checkCell(i, j)
	b.m.values[i*b.m.cols+j] = v
	b.m.valid[i].Set(uint(j))
}

// Build freezes the matrix. The builder cannot be used afterward.
func (b *MatrixBuilder) Build() *RatingMatrix {
	m := b.m
	b.m = nil
	m.summarize()
	return m
}

// NewRatingMatrixFromDense builds a matrix from dense rows where zero marks an
// unrated cell. Ratings in this domain are never zero.
func NewRatingMatrixFromDense(rows [][]float64) *RatingMatrix {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	b := NewMatrixBuilder(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			panic(fmt.Sprintf("dataset: ragged row %d (%d != %d)", i, len(row), cols))
		}
		for j, v := range row {
			if v != 0 {
				b.Set(i, j, v)
			}
		}
	}
	return b.Build()
}

func (m *RatingMatrix) summarize() {
	m.counts = make([]int, m.rows)
	m.means = make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		for j, ok := m.valid[i].NextSet(0); ok; j, ok = m.valid[i].NextSet(j + 1) {
			sum += m.values[i*m.cols+int(j)]
			m.counts[i]++
		}
		if m.counts[i] > 0 {
			m.means[i] = sum / float64(m.counts[i])
		}
	}
}

func (m *RatingMatrix) checkCell(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("dataset: cell (%d, %d) out of range (%d, %d)", i, j, m.rows, m.cols))
	}
}

// Shape returns the number of rows and columns.
func (m *RatingMatrix) Shape() (int, int) {
	return m.rows, m.cols
}

// Valid reports whether cell (i, j) is rated.
func (m *RatingMatrix) Valid(i, j int) bool {
	m.checkCell(i, j)
	return m.valid[i].Test(uint(j))
}

// At returns the value at (i, j). The result is meaningless for invalid cells.
func (m *RatingMatrix) At(i, j int) float64 {
	m.checkCell(i, j)
	return m.values[i*m.cols+j]
}

// Get returns the value at (i, j) and whether the cell is rated.
func (m *RatingMatrix) Get(i, j int) (float64, bool) {
	if !m.Valid(i, j) {
		return 0, false
	}
	return m.values[i*m.cols+j], true
}

// Row returns a read-only view of row i.
func (m *RatingMatrix) Row(i int) Row {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("dataset: row %d out of range (%d, %d)", i, m.rows, m.cols))
	}
	return Row{m: m, i: i}
}

// Count returns the number of rated cells.
func (m *RatingMatrix) Count() int {
	n := 0
	for _, c := range m.counts {
		n += c
	}
	return n
}

// ColumnCounts returns the number of rated cells in every column.
func (m *RatingMatrix) ColumnCounts() []int {
	counts := make([]int, m.cols)
	for i := 0; i < m.rows; i++ {
		for j, ok := m.valid[i].NextSet(0); ok; j, ok = m.valid[i].NextSet(j + 1) {
			counts[j]++
		}
	}
	return counts
}

// ColumnMeans returns the mean of rated cells in every column, zero for empty columns.
func (m *RatingMatrix) ColumnMeans() []float64 {
	sums := make([]float64, m.cols)
	counts := m.ColumnCounts()
	for i := 0; i < m.rows; i++ {
		for j, ok := m.valid[i].NextSet(0); ok; j, ok = m.valid[i].NextSet(j + 1) {
			sums[j] += m.values[i*m.cols+int(j)]
		}
	}
	for j := range sums {
		if counts[j] > 0 {
			sums[j] /= float64(counts[j])
		}
	}
	return sums
}

// Map returns a new matrix with the same validity and f applied to every rated cell.
func (m *RatingMatrix) Map(f func(i, j int, v float64) float64) *RatingMatrix {
	n := &RatingMatrix{
		rows:   m.rows,
		cols:   m.cols,
		values: make([]float64, len(m.values)),
		valid:  make([]*bitset.BitSet, m.rows),
	}
	for i := 0; i < m.rows; i++ {
		n.valid[i] = m.valid[i].Clone()
		for j, ok := m.valid[i].NextSet(0); ok; j, ok = m.valid[i].NextSet(j + 1) {
			k := i*m.cols + int(j)
			n.values[k] = f(i, int(j), m.values[k])
		}
	}
	n.summarize()
	return n
}

// Weighted multiplies every rated cell by the broadcast weight at that cell.
func (m *RatingMatrix) Weighted(w Weights) *RatingMatrix {
	return m.Map(func(i, j int, v float64) float64 {
		return v * w.At(i, j)
	})
}

// Transpose returns the cols x rows matrix.
func (m *RatingMatrix) Transpose() *RatingMatrix {
	b := NewMatrixBuilder(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j, ok := m.valid[i].NextSet(0); ok; j, ok = m.valid[i].NextSet(j + 1) {
			b.Set(int(j), i, m.values[i*m.cols+int(j)])
		}
	}
	return b.Build()
}

// Take returns a new matrix made of the given rows of m, in order.
func (m *RatingMatrix) Take(rows []int) *RatingMatrix {
	return NewMatrixBuilder(0, m.cols).Build().Stack(m, rows)
}

// Stack returns m with the given rows of other appended below it.
func (m *RatingMatrix) Stack(other *RatingMatrix, rows []int) *RatingMatrix {
	if other.cols != m.cols {
		panic(fmt.Sprintf("dataset: stack %d columns onto %d columns", other.cols, m.cols))
	}
	n := &RatingMatrix{
		rows:   m.rows + len(rows),
		cols:   m.cols,
		values: make([]float64, 0, (m.rows+len(rows))*m.cols),
		valid:  make([]*bitset.BitSet, 0, m.rows+len(rows)),
	}
	n.values = append(n.values, m.values...)
	for _, v := range m.valid {
		n.valid = append(n.valid, v.Clone())
	}
	for _, i := range rows {
		other.Row(i)
		n.values = append(n.values, other.values[i*other.cols:(i+1)*other.cols]...)
		n.valid = append(n.valid, other.valid[i].Clone())
	}
	n.summarize()
	return n
}

// Row is a read-only view of one matrix row.
type Row struct {
	m *RatingMatrix
	i int
}

// Index returns the row index inside its matrix.
func (r Row) Index() int {
	return r.i
}

// Len returns the number of columns.
func (r Row) Len() int {
	return r.m.cols
}

// Valid reports whether column j is rated.
func (r Row) Valid(j int) bool {
	return r.m.Valid(r.i, j)
}

// At returns the value at column j.
func (r Row) At(j int) float64 {
	return r.m.At(r.i, j)
}

// Count returns the number of rated columns.
func (r Row) Count() int {
	return r.m.counts[r.i]
}

// Mean returns the mean over rated columns, zero for an empty row.
func (r Row) Mean() float64 {
	return r.m.means[r.i]
}

// Mask returns a copy of the validity bitmap.
func (r Row) Mask() *bitset.BitSet {
	return r.m.valid[r.i].Clone()
}

// ForEach calls f for every rated column in ascending order.
func (r Row) ForEach(f func(j int, v float64)) {
	valid := r.m.valid[r.i]
	for j, ok := valid.NextSet(0); ok; j, ok = valid.NextSet(j + 1) {
		f(int(j), r.m.values[r.i*r.m.cols+int(j)])
	}
}

// ForIntersection calls f for every column rated in both r and other.
func (r Row) ForIntersection(other Row, f func(j int, a, b float64)) {
	a, b := r.m.valid[r.i], other.m.valid[other.i]
	for j, ok := a.NextSet(0); ok; j, ok = a.NextSet(j + 1) {
		if b.Test(j) {
			f(int(j), r.m.values[r.i*r.m.cols+int(j)], other.m.values[other.i*other.m.cols+int(j)])
		}
	}
}

// IntersectionCount returns the number of columns rated in both r and other.
func (r Row) IntersectionCount(other Row) int {
	return int(r.m.valid[r.i].IntersectionCardinality(other.m.valid[other.i]))
}

// Weights broadcasts a multiplier over the cells of a matrix.
type Weights interface {
	At(i, j int) float64
}

// ColumnWeights holds one weight per column, shared by every row.
type ColumnWeights []float64

func (w ColumnWeights) At(_, j int) float64 {
	return w[j]
}

// RowWeights holds one weight per row, shared by every column.
type RowWeights []float64

func (w RowWeights) At(i, _ int) float64 {
	return w[i]
}
