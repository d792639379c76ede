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

	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// TrainResult is the score of one budget.
type TrainResult struct {
	K   int
	MAE float64
}

// TrainK evaluates fixed budgets on questions with ground truth. The matrices
// are built once from the first config and shared by every config, so configs
// should differ only in K. It returns every result in config order and the one
// with the lowest MAE, the earliest on ties.
func TrainK(ctx context.Context, kind Kind, train, active *dataset.UserItemRatings, questions *dataset.Questions, configs []Config, opts ...Option) ([]TrainResult, TrainResult, error) {
	if len(configs) == 0 {
		return nil, TrainResult{}, errors.NotValidf("empty configs")
	}
	if !questions.HasAnswers() {
		return nil, TrainResult{}, errors.NotValidf("questions without ground truth")
	}
	ks := make([]int, len(configs))
	for i, cfg := range configs {
		rule, err := cfg.GetK()
		if err != nil {
			return nil, TrainResult{}, errors.Trace(err)
		}
		k, fixed := rule.Fixed()
		if !fixed {
			return nil, TrainResult{}, errors.NotValidf("dynamic K %s", rule)
		}
		ks[i] = k
	}
	predictor, err := NewPredictor(kind, opts...)
	if err != nil {
		return nil, TrainResult{}, errors.Trace(err)
	}
	o := newOptions(opts)
	pre, err := predictor.Precompute(ctx, train, active, configs[0])
	if err != nil {
		return nil, TrainResult{}, errors.Trace(err)
	}
	truth := questions.GroundTruth()
	results := make([]TrainResult, 0, len(configs))
	best := TrainResult{K: -1, MAE: math.Inf(1)}
	for i, cfg := range configs {
		predictions, err := predictor.Predict(ctx, train, active, questions, cfg, pre)
		if err != nil {
			return nil, TrainResult{}, errors.Trace(err)
		}
		for j := range predictions {
			predictions[j] = math.RoundToEven(predictions[j])
		}
		result := TrainResult{K: ks[i], MAE: model.MAE(truth, predictions)}
		results = append(results, result)
		if result.MAE < best.MAE {
			best = result
		}
		log.Logger().Info("evaluate neighbor budget",
			zap.String("predictor", kind.String()),
			zap.Int("k", result.K),
			zap.Float64("mae", result.MAE))
		if o.progress != nil {
			o.progress(i+1, len(configs))
		}
	}
	log.Logger().Info("best neighbor budget",
		zap.String("predictor", kind.String()),
		zap.Int("k", best.K),
		zap.Float64("mae", best.MAE))
	return results, best, nil
}

// KRange returns copies of cfg with budgets kMin to kMax inclusive.
func KRange(cfg Config, kMin, kMax int) []Config {
	var configs []Config
	for k := kMin; k <= kMax; k++ {
		configs = append(configs, cfg.WithK(k))
	}
	return configs
}
