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
	"math"
	"testing"

	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

var trainEntries = []dataset.Entry{
	{1, 1, 5}, {1, 2, 3}, {1, 3, 4},
	{2, 1, 4}, {2, 2, 5}, {2, 3, 2}, {2, 4, 1},
	{3, 1, 1}, {3, 2, 2}, {3, 4, 5},
	{4, 1, 2}, {4, 3, 5}, {4, 4, 4},
	{5, 2, 4}, {5, 3, 3}, {5, 4, 2},
}

var testEntries = []dataset.Entry{
	{1, 4, 2}, {3, 3, 4}, {5, 1, 5},
}

func TestTrainK(t *testing.T) {
	train, active, questions, err := dataset.AggregateCrossValidation(trainEntries, testEntries)
	assert.NoError(t, err)
	configs := KRange(presets["cos"], 1, 4)
	var steps []int
	results, best, err := TrainK(context.Background(), UserBased, train, active, questions, configs,
		WithSelector(NewSelector()),
		WithProgress(func(done, total int) {
			assert.Equal(t, 4, total)
			steps = append(steps, done)
		}))
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, steps)
	assert.Len(t, results, 4)
	minMAE := math.Inf(1)
	for i, result := range results {
		assert.Equal(t, i+1, result.K)
		minMAE = math.Min(minMAE, result.MAE)
	}
	// the smallest budget wins ties
	for _, result := range results {
		if result.MAE == minMAE {
			assert.Equal(t, result, best)
			break
		}
	}

	// each result matches a standalone run
	predictor, err := NewPredictor(UserBased)
	assert.NoError(t, err)
	predictions, err := predictor.Predict(context.Background(), train, active, questions, configs[1], Precomputed{})
	assert.NoError(t, err)
	for i := range predictions {
		predictions[i] = math.RoundToEven(predictions[i])
	}
	assert.Equal(t, model.MAE(questions.GroundTruth(), predictions), results[1].MAE)
}

func TestTrainK_Errors(t *testing.T) {
	ctx := context.Background()
	train, active, questions, err := dataset.AggregateCrossValidation(trainEntries, testEntries)
	assert.NoError(t, err)

	_, _, err = TrainK(ctx, UserBased, train, active, questions, nil)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = TrainK(ctx, ItemBased, train, active, questions, []Config{Merge(presets["cos"], presets["item_based_k"])})
	assert.True(t, errors.Is(err, errors.NotValid))
	var missing *MissingFieldError
	_, _, err = TrainK(ctx, UserBased, train, active, questions, []Config{presets["cos"]})
	assert.True(t, errors.As(err, &missing))

	unanswered := dataset.NewQuestions([]dataset.Entry{{1, 4, 0}}, false)
	_, _, err = TrainK(ctx, UserBased, train, active, unanswered, KRange(presets["cos"], 1, 2))
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestKRange(t *testing.T) {
	configs := KRange(presets["corr"], 3, 5)
	assert.Len(t, configs, 3)
	for i, cfg := range configs {
		k, err := cfg.GetK()
		assert.NoError(t, err)
		n, fixed := k.Fixed()
		assert.True(t, fixed)
		assert.Equal(t, i+3, n)
		assert.Equal(t, "abs", cfg.GetPreSort().Name)
	}
	assert.Empty(t, KRange(presets["corr"], 5, 3))
}
