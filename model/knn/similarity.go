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
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/common/parallel"
	"github.com/gorse-io/knn/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Scores is a read-only matrix of per-pair scores that neighbors are ranked by.
type Scores interface {
	Shape() (int, int)
	// Row returns a copy of row i.
	Row(i int) []float64
	// Hash identifies the content of the matrix.
	Hash() uint64
}

// scoreMatrix is a frozen rows x cols grid with a content hash.
type scoreMatrix struct {
	rows   int
	cols   int
	values []float64
	hash   uint64
}

func newScoreMatrix(rows, cols int, values []float64) scoreMatrix {
	digest := xxhash.New()
	buf := make([]byte, 0, 16)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rows))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(cols))
	_, _ = digest.Write(buf)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf[:0], math.Float64bits(v))
		_, _ = digest.Write(buf)
	}
	return scoreMatrix{rows: rows, cols: cols, values: values, hash: digest.Sum64()}
}

func newScoreMatrixFromGrid(grid [][]float64) (scoreMatrix, error) {
	rows, cols := len(grid), 0
	if rows > 0 {
		cols = len(grid[0])
	}
	values := make([]float64, 0, rows*cols)
	for i, row := range grid {
		if len(row) != cols {
			return scoreMatrix{}, errors.NotValidf("row %d with %d columns, expect %d", i, len(row), cols)
		}
		values = append(values, row...)
	}
	return newScoreMatrix(rows, cols, values), nil
}

func (m *scoreMatrix) Shape() (int, int) {
	return m.rows, m.cols
}

func (m *scoreMatrix) At(i, j int) float64 {
	return m.values[i*m.cols+j]
}

func (m *scoreMatrix) Row(i int) []float64 {
	row := make([]float64, m.cols)
	copy(row, m.values[i*m.cols:(i+1)*m.cols])
	return row
}

func (m *scoreMatrix) Hash() uint64 {
	return m.hash
}

// Grid returns a copy of the matrix as rows.
func (m *scoreMatrix) Grid() [][]float64 {
	grid := make([][]float64, m.rows)
	for i := range grid {
		grid[i] = m.Row(i)
	}
	return grid
}

// Similarity holds pairwise scores between the rows of two rating matrices.
// Undefined pairs hold the fill value.
type Similarity struct {
	scoreMatrix
}

// Support holds the number of columns co-rated by every pair of rows.
type Support struct {
	scoreMatrix
}

// WeightsPair multiplies the left and right rating matrices before scoring.
// A nil side is left unchanged.
type WeightsPair struct {
	Name  string
	Left  dataset.Weights
	Right dataset.Weights
}

// NewSimilarity scores every row of r1 against every row of r2. Rows of r1 are
// split among jobs workers.
func NewSimilarity(ctx context.Context, r1, r2 *dataset.RatingMatrix, scheme Scheme, fill float64, weights *WeightsPair, jobs int) (*Similarity, error) {
	rows, cols1 := r1.Shape()
	n, cols2 := r2.Shape()
	if cols1 != cols2 {
		return nil, errors.NotValidf("similarity between %d and %d columns", cols1, cols2)
	}
	if weights != nil {
		if weights.Left != nil {
			r1 = r1.Weighted(weights.Left)
		}
		if weights.Right != nil {
			r2 = r2.Weighted(weights.Right)
		}
	}
	if scheme.Prepare != nil {
		r1, r2 = scheme.Prepare(r1, r2)
	}
	start := time.Now()
	values := make([]float64, rows*n)
	if err := parallel.Parallel(ctx, rows, jobs, func(_, i int) error {
		a := r1.Row(i)
		for j := 0; j < n; j++ {
			s := scheme.Score(a, r2.Row(j))
			if math.IsNaN(s) {
				s = fill
			}
			values[i*n+j] = s
		}
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Debug("similarity computed",
		zap.String("scheme", scheme.Name),
		zap.Int("n_rows", rows),
		zap.Int("n_cols", n),
		zap.Duration("used_time", time.Since(start)))
	return &Similarity{scoreMatrix: newScoreMatrix(rows, n, values)}, nil
}

// NewSimilarityFromGrid wraps a persisted grid.
func NewSimilarityFromGrid(grid [][]float64) (*Similarity, error) {
	m, err := newScoreMatrixFromGrid(grid)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Similarity{scoreMatrix: m}, nil
}

// NewSupport counts co-rated columns of every row pair of r1 and r2.
func NewSupport(ctx context.Context, r1, r2 *dataset.RatingMatrix, jobs int) (*Support, error) {
	rows, cols1 := r1.Shape()
	n, cols2 := r2.Shape()
	if cols1 != cols2 {
		return nil, errors.NotValidf("support between %d and %d columns", cols1, cols2)
	}
	values := make([]float64, rows*n)
	if err := parallel.Parallel(ctx, rows, jobs, func(_, i int) error {
		a := r1.Row(i)
		for j := 0; j < n; j++ {
			values[i*n+j] = float64(a.IntersectionCount(r2.Row(j)))
		}
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return &Support{scoreMatrix: newScoreMatrix(rows, n, values)}, nil
}

// NewSupportFromGrid wraps a persisted grid.
func NewSupportFromGrid(grid [][]float64) (*Support, error) {
	m, err := newScoreMatrixFromGrid(grid)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Support{scoreMatrix: m}, nil
}
