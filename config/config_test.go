// Copyright 2021 gorse Project Authors
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


package config

import (
	"testing"

	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigTemplate(t *testing.T) {
	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)

	// [data]
	assert.Equal(t, "data/train.txt", config.Data.Train)
	assert.Equal(t, "data/test.txt", config.Data.Test)
	assert.Equal(t, " ", config.Data.Separator)
	assert.Equal(t, 0.1, config.Data.TestSize)
	assert.Equal(t, int64(0), config.Data.Seed)
	// [predict]
	assert.Equal(t, "user_based", config.Predict.Predictor)
	assert.Equal(t, []string{"corr"}, config.Predict.Presets)
	assert.Equal(t, 20, config.Predict.K)
	assert.False(t, config.Predict.DynamicK)
	assert.Equal(t, 2.5, config.Predict.Rho)
	assert.True(t, config.Predict.IUF)
	assert.Equal(t, 0.0, config.Predict.FillValue)
	assert.Empty(t, config.Predict.Output)
	// [tune]
	assert.Equal(t, 1, config.Tune.KMin)
	assert.Equal(t, 50, config.Tune.KMax)
	// [ensemble]
	assert.Equal(t, 100, config.Ensemble.Trials)
	assert.Equal(t, int64(0), config.Ensemble.Seed)
	// [runtime]
	assert.Equal(t, 4, config.Runtime.Jobs)
}

func TestLoadConfigDefaults(t *testing.T) {
	// the training file is required
	_, err := LoadConfig("")
	assert.True(t, errors.Is(err, errors.NotValid))

	t.Setenv("GORSE_KNN_DATA_TRAIN", "ratings.txt")
	config, err := LoadConfig("")
	assert.NoError(t, err)
	expected := GetDefaultConfig()
	expected.Data.Train = "ratings.txt"
	assert.Equal(t, expected, config)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("GORSE_KNN_DATA_TRAIN", "ratings.txt")
	t.Setenv("GORSE_KNN_PREDICT_PREDICTOR", "item_based")
	t.Setenv("GORSE_KNN_PREDICT_PRESETS", "adj_cos,case_amp")
	t.Setenv("GORSE_KNN_PREDICT_DYNAMIC_K", "true")
	t.Setenv("GORSE_KNN_RUNTIME_JOBS", "8")
	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	assert.Equal(t, "ratings.txt", config.Data.Train)
	assert.Equal(t, "item_based", config.Predict.Predictor)
	assert.Equal(t, []string{"adj_cos", "case_amp"}, config.Predict.Presets)
	assert.True(t, config.Predict.DynamicK)
	assert.Equal(t, 8, config.Runtime.Jobs)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("not_exist.toml")
	assert.Error(t, err)
}

func TestPredictConfigName(t *testing.T) {
	c := PredictConfig{Predictor: "user_based_cf", Presets: []string{"corr", "case_amp"}}
	assert.Equal(t, "user_based+corr+case_amp", c.Name())
	c = PredictConfig{Predictor: "nope"}
	assert.Equal(t, "nope", c.Name())
}

func TestKnnConfig(t *testing.T) {
	c := PredictConfig{Predictor: "user_based", Presets: []string{"corr", "case_amp"}, K: 7, Rho: 2}
	cfg, err := c.KnnConfig(nil)
	assert.NoError(t, err)
	scheme, err := cfg.GetSimScheme()
	assert.NoError(t, err)
	assert.Equal(t, knn.Pearson.Name, scheme.Name)
	prediction, err := cfg.GetPrediction()
	assert.NoError(t, err)
	assert.Equal(t, knn.MeanDiffWeightedAverage.Name, prediction.Name)
	k, err := cfg.GetK()
	assert.NoError(t, err)
	fixed, ok := k.Fixed()
	assert.True(t, ok)
	assert.Equal(t, 7, fixed)
	assert.Equal(t, "case_amplification(ρ=2)", cfg.GetPostMap().Name)
	assert.Equal(t, knn.Abs.Name, cfg.GetPreSort().Name)
	assert.Nil(t, cfg.GetWeights())
}

func TestKnnConfigDynamicK(t *testing.T) {
	c := PredictConfig{Predictor: "item_based", Presets: []string{"cos"}, K: 7, DynamicK: true, Rho: 2.5}
	cfg, err := c.KnnConfig(nil)
	assert.NoError(t, err)
	k, err := cfg.GetK()
	assert.NoError(t, err)
	_, ok := k.Fixed()
	assert.False(t, ok)
	assert.Equal(t, knn.ItemBasedDynamicK.String(), k.String())
}

func TestKnnConfigIUF(t *testing.T) {
	train := dataset.NewRatingMatrixFromDense([][]float64{
		{5, 3, 0},
		{4, 0, 1},
	})
	c := PredictConfig{Predictor: "item_based", Presets: []string{"corr"}, K: 3, IUF: true, Rho: 2.5}
	_, err := c.KnnConfig(nil)
	assert.True(t, errors.Is(err, errors.NotValid))
	cfg, err := c.KnnConfig(train)
	assert.NoError(t, err)
	weights := cfg.GetWeights()
	if assert.NotNil(t, weights) {
		assert.Equal(t, "iuf", weights.Name)
		assert.IsType(t, dataset.RowWeights{}, weights.Left)
	}
}

func TestKnnConfigSlopeOne(t *testing.T) {
	c := PredictConfig{Predictor: "slope_one", Rho: 2.5}
	cfg, err := c.KnnConfig(nil)
	assert.NoError(t, err)
	scheme, err := cfg.GetSimScheme()
	assert.NoError(t, err)
	assert.Equal(t, knn.AverageDifference.Name, scheme.Name)
}

func TestKnnConfigMissingScheme(t *testing.T) {
	c := PredictConfig{Predictor: "user_based", Presets: []string{"item_based_k"}, Rho: 2.5}
	_, err := c.KnnConfig(nil)
	var missing *knn.MissingFieldError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "sim_scheme", missing.Field)
}

func TestVariant(t *testing.T) {
	config := GetDefaultConfig()
	config.Predict.Predictor = "slope_one"
	config.Predict.Presets = nil
	predictor, _, err := config.Variant(nil)
	assert.NoError(t, err)
	assert.Equal(t, knn.SlopeOne, predictor.Kind())

	config.Predict.Predictor = "svd"
	_, _, err = config.Variant(nil)
	assert.True(t, errors.Is(err, errors.NotFound))
}
