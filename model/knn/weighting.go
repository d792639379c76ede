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

	"github.com/gorse-io/knn/dataset"
)

// InverseUserFrequency returns log(m / (m_j + 1)) for every item column j of a
// user x item matrix, where m is the number of users and m_j the number of users
// who rated item j.
func InverseUserFrequency(r *dataset.RatingMatrix) []float64 {
	m, _ := r.Shape()
	counts := r.ColumnCounts()
	weights := make([]float64, len(counts))
	for j, c := range counts {
		weights[j] = math.Log(float64(m) / float64(c+1))
	}
	return weights
}

// IUFWeights weights both sides of a similarity by inverse user frequency. Item
// based similarities work on transposed matrices, so weights apply per row.
func IUFWeights(r *dataset.RatingMatrix, itemBased bool) WeightsPair {
	iuf := InverseUserFrequency(r)
	if itemBased {
		return WeightsPair{Name: "iuf", Left: dataset.RowWeights(iuf), Right: dataset.RowWeights(iuf)}
	}
	return WeightsPair{Name: "iuf", Left: dataset.ColumnWeights(iuf), Right: dataset.ColumnWeights(iuf)}
}

// CaseAmplification maps every weight w to w * |w|^(rho-1).
func CaseAmplification(rho float64) Transform[Ranking] {
	return Transform[Ranking]{
		Name: fmt.Sprintf("case_amplification(ρ=%g)", rho),
		Apply: func(r Ranking) Ranking {
			amplified := make(Ranking, len(r))
			for i, n := range r {
				amplified[i] = Neighbor{Index: n.Index, Weight: n.Weight * math.Pow(math.Abs(n.Weight), rho-1)}
			}
			return amplified
		},
	}
}

// Abs ranks by magnitude, so strong negative correlations are kept.
var Abs = Transform[[]float64]{
	Name: "abs",
	Apply: func(x []float64) []float64 {
		for i := range x {
			x[i] = math.Abs(x[i])
		}
		return x
	},
}

// ItemBasedDynamicK uses the number of items the active user rated.
var ItemBasedDynamicK = DynamicK("item_based_dynamic_k", func(activeUser dataset.Row) int {
	return activeUser.Count()
})
