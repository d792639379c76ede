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

package model

import (
	"math"

	"github.com/gorse-io/knn/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MAE is the mean absolute error. It panics if the lengths differ.
func MAE(truth, predictions []float64) float64 {
	temp := make([]float64, len(predictions))
	floats.SubTo(temp, predictions, truth)
	for i := range temp {
		temp[i] = math.Abs(temp[i])
	}
	return stat.Mean(temp, nil)
}

// MSE is the mean squared error. It panics if the lengths differ.
func MSE(truth, predictions []float64) float64 {
	temp := make([]float64, len(predictions))
	floats.SubTo(temp, predictions, truth)
	floats.Mul(temp, temp)
	return stat.Mean(temp, nil)
}

// RMSE is the root mean squared error. It panics if the lengths differ.
func RMSE(truth, predictions []float64) float64 {
	return math.Sqrt(MSE(truth, predictions))
}

// RoundPrediction rounds half to even and clamps into the rating range.
func RoundPrediction(prediction float64) int {
	rounded := int(math.RoundToEven(prediction))
	return min(max(rounded, dataset.MinRating), dataset.MaxRating)
}

// RoundPredictions rounds every prediction with RoundPrediction.
func RoundPredictions(predictions []float64) []float64 {
	rounded := make([]float64, len(predictions))
	for i, p := range predictions {
		rounded[i] = float64(RoundPrediction(p))
	}
	return rounded
}
