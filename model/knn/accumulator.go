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

// Accumulator reduces a stream of weighted neighbors into one prediction.
type Accumulator interface {
	// Push feeds a neighbor row of the table with its weight.
	Push(weight float64, neighbor int)
	// Finalize returns the prediction. Later calls return the same value.
	Finalize() float64
}

// Seed is the context of one question.
type Seed struct {
	// Column is the target column of Table.
	Column int
	// ActiveRow is the row of the question entity in Table.
	ActiveRow int
	// Table holds the values neighbors contribute.
	Table *dataset.RatingMatrix
	// ActiveUser is the rating row of the asking user.
	ActiveUser dataset.Row
	// Adjusted holds slope-one values indexed by neighbor.
	Adjusted []float64
}

// PredictionScheme opens accumulators and decides when a weight ends the scan.
// A nil Stop stops at zero weight.
type PredictionScheme struct {
	Name string
	Open func(seed Seed) Accumulator
	Stop func(weight float64) bool
}

func (p PredictionScheme) stop(weight float64) bool {
	if p.Stop != nil {
		return p.Stop(weight)
	}
	return weight == 0
}

// Drive feeds ranked neighbors to an accumulator of scheme until k neighbors
// are consumed, the stop predicate fires or the ranking runs out. Neighbors
// without a value at the target column are skipped and don't count. A negative
// k disables the budget.
func Drive(k int, seed Seed, ranking Ranking, scheme PredictionScheme) float64 {
	acc := scheme.Open(seed)
	for _, n := range ranking {
		if k == 0 {
			break
		}
		if !seed.Table.Valid(n.Index, seed.Column) {
			continue
		}
		if scheme.stop(n.Weight) {
			break
		}
		k--
		acc.Push(n.Weight, n.Index)
	}
	return acc.Finalize()
}

// weightedSum is the shared state of every accumulator.
type weightedSum struct {
	total       float64
	totalWeight float64
	finalized   bool
	result      float64
}

// finalize divides once. offset is added to a non-zero division and returned
// alone otherwise.
func (s *weightedSum) finalize(offset float64) float64 {
	if !s.finalized {
		s.finalized = true
		if s.totalWeight != 0 {
			s.result = s.total/s.totalWeight + offset
		} else {
			s.result = offset
		}
	}
	return s.result
}

type weightedAverage struct {
	weightedSum
	seed Seed
}

func (a *weightedAverage) Push(weight float64, neighbor int) {
	a.totalWeight += weight
	a.total += a.seed.Table.At(neighbor, a.seed.Column) * weight
}

func (a *weightedAverage) Finalize() float64 {
	return a.finalize(0)
}

type meanDiffWeightedAverage struct {
	weightedSum
	seed Seed
}

func (a *meanDiffWeightedAverage) Push(weight float64, neighbor int) {
	a.totalWeight += math.Abs(weight)
	a.total += (a.seed.Table.At(neighbor, a.seed.Column) - a.seed.Table.Row(neighbor).Mean()) * weight
}

func (a *meanDiffWeightedAverage) Finalize() float64 {
	return a.finalize(a.seed.Table.Row(a.seed.ActiveRow).Mean())
}

type activeMeanWeightedAverage struct {
	weightedSum
	seed Seed
	mean float64
}

func (a *activeMeanWeightedAverage) Push(weight float64, neighbor int) {
	a.totalWeight += math.Abs(weight)
	a.total += (a.seed.Table.At(neighbor, a.seed.Column) - a.mean) * weight
}

func (a *activeMeanWeightedAverage) Finalize() float64 {
	return a.finalize(a.mean)
}

type slopeOneWeightedAverage struct {
	weightedSum
	seed Seed
}

func (a *slopeOneWeightedAverage) Push(weight float64, neighbor int) {
	a.totalWeight += weight
	a.total += a.seed.Adjusted[neighbor] * weight
}

func (a *slopeOneWeightedAverage) Finalize() float64 {
	return a.finalize(0)
}

// WeightedAverage is sum(w * v) / sum(w).
var WeightedAverage = PredictionScheme{
	Name: "weighted_average",
	Open: func(seed Seed) Accumulator {
		return &weightedAverage{seed: seed}
	},
}

// MeanDiffWeightedAverage centers neighbor values by the neighbor's mean and
// adds back the mean of the active row of the table.
var MeanDiffWeightedAverage = PredictionScheme{
	Name: "diff_weighted_average",
	Open: func(seed Seed) Accumulator {
		return &meanDiffWeightedAverage{seed: seed}
	},
}

// ActiveMeanWeightedAverage centers neighbor values by the active user's mean
// and adds it back.
var ActiveMeanWeightedAverage = PredictionScheme{
	Name: "adj_diff_weighted_average",
	Open: func(seed Seed) Accumulator {
		return &activeMeanWeightedAverage{seed: seed, mean: seed.ActiveUser.Mean()}
	},
}

// SlopeOneWeightedAverage averages the slope-one adjusted values of neighbors.
var SlopeOneWeightedAverage = PredictionScheme{
	Name: "slope_one_weighted_average",
	Open: func(seed Seed) Accumulator {
		return &slopeOneWeightedAverage{seed: seed}
	},
}
