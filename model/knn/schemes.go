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
	"math"

	"github.com/gorse-io/knn/dataset"
)

// Scheme scores a pair of rating rows. Score returns NaN for undefined pairs.
type Scheme struct {
	Name string
	// Prepare transforms both row sets once before pairs are scored.
	Prepare func(r1, r2 *dataset.RatingMatrix) (*dataset.RatingMatrix, *dataset.RatingMatrix)
	Score   func(a, b dataset.Row) float64
}

// Cosine is the cosine of two rows over columns rated by both. Pairs sharing
// fewer than two columns are undefined.
var Cosine = Scheme{
	Name:  "cosine_similarity",
	Score: cosine,
}

// Pearson centers every row by its own mean before taking the cosine.
var Pearson = Scheme{
	Name: "pearson_correlation",
	Prepare: func(r1, r2 *dataset.RatingMatrix) (*dataset.RatingMatrix, *dataset.RatingMatrix) {
		return centerRows(r1), centerRows(r2)
	},
	Score: cosine,
}

// AdjustedCosine centers cells of both row sets by the column means of r1 before
// taking the cosine. It is meant for item-based filtering where r1 and r2 are the
// same item x user matrix, so the column means are user means.
var AdjustedCosine = Scheme{
	Name: "adjusted_cosine_similarity",
	Prepare: func(r1, r2 *dataset.RatingMatrix) (*dataset.RatingMatrix, *dataset.RatingMatrix) {
		means := r1.ColumnMeans()
		center := func(_, j int, v float64) float64 {
			return v - means[j]
		}
		return r1.Map(center), r2.Map(center)
	},
	Score: cosine,
}

// AverageDifference is the mean of a[k] - b[k] over co-rated columns.
var AverageDifference = Scheme{
	Name: "average_difference",
	Score: func(a, b dataset.Row) float64 {
		var sum float64
		n := 0
		a.ForIntersection(b, func(_ int, x, y float64) {
			sum += x - y
			n++
		})
		if n == 0 {
			return math.NaN()
		}
		return sum / float64(n)
	},
}

func cosine(a, b dataset.Row) float64 {
	var dot, normA, normB float64
	n := 0
	a.ForIntersection(b, func(_ int, x, y float64) {
		dot += x * y
		normA += x * x
		normB += y * y
		n++
	})
	// a single shared column always gives +-1
	if n < 2 || normA == 0 || normB == 0 {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, dot/math.Sqrt(normA*normB)))
}

func centerRows(r *dataset.RatingMatrix) *dataset.RatingMatrix {
	rows, _ := r.Shape()
	means := make([]float64, rows)
	for i := range means {
		means[i] = r.Row(i).Mean()
	}
	return r.Map(func(i, _ int, v float64) float64 {
		return v - means[i]
	})
}
