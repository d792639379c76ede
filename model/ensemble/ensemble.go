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

package ensemble

import (
	"context"
	"fmt"
	"math"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model"
	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// WeightStep is the resolution of searched weights.
const WeightStep = 0.001

// Member is the predictions of one ensemble member.
type Member struct {
	Name        string
	Predictions []float64
}

// Linear sums member predictions scaled by weights.
func Linear(members []Member, weights []float64) ([]float64, error) {
	if len(members) != len(weights) {
		return nil, errors.NotValidf("%d weights for %d members", len(weights), len(members))
	}
	if len(members) == 0 {
		return nil, nil
	}
	n := len(members[0].Predictions)
	combined := make([]float64, n)
	for i, m := range members {
		if len(m.Predictions) != n {
			return nil, errors.NotValidf("member %s of %d predictions, expect %d", m.Name, len(m.Predictions), n)
		}
		floats.AddScaled(combined, weights[i], m.Predictions)
	}
	return combined, nil
}

// Result is the best weights found by a search.
type Result struct {
	Names   []string
	Weights []float64
	Loss    float64
}

// Search finds linear weights in [0, 1] minimizing RMSE against ground truth.
type Search struct {
	ctx     context.Context
	members []Member
	truth   []float64
	result  Result
}

func NewSearch(ctx context.Context, members []Member, truth []float64) *Search {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return &Search{
		ctx:     ctx,
		members: members,
		truth:   truth,
		result:  Result{Names: names, Loss: math.Inf(1)},
	}
}

func weightName(name string) string {
	return fmt.Sprintf("weight_%s", name)
}

func (s *Search) Objective(trial goptuna.Trial) (float64, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, errors.Trace(err)
	}
	if len(s.members) == 0 {
		return 0, errors.New("no member to search")
	}
	weights := make([]float64, len(s.members))
	for i, m := range s.members {
		w, err := trial.SuggestDiscreteFloat(weightName(m.Name), 0, 1, WeightStep)
		if err != nil {
			return 0, errors.Trace(err)
		}
		weights[i] = w
	}
	predictions, err := Linear(s.members, weights)
	if err != nil {
		return 0, errors.Trace(err)
	}
	loss := model.RMSE(s.truth, predictions)
	if loss < s.result.Loss {
		s.result.Weights = weights
		s.result.Loss = loss
	}
	return loss, nil
}

func (s *Search) Result() Result {
	return s.result
}

// Optimize runs a TPE study of trials on members.
func Optimize(ctx context.Context, members []Member, truth []float64, trials int, seed int64) (Result, error) {
	for _, m := range members {
		if len(m.Predictions) != len(truth) {
			return Result{}, errors.NotValidf("member %s of %d predictions for %d answers", m.Name, len(m.Predictions), len(truth))
		}
	}
	search := NewSearch(ctx, members, truth)
	study, err := goptuna.CreateStudy("linear_ensemble",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(seed))))
	if err != nil {
		return Result{}, errors.Trace(err)
	}
	if err = study.Optimize(search.Objective, trials); err != nil {
		return Result{}, errors.Trace(err)
	}
	if err = ctx.Err(); err != nil {
		return Result{}, errors.Trace(err)
	}
	result := search.Result()
	if result.Weights == nil {
		return Result{}, errors.Errorf("no trial finished in %d trials", trials)
	}
	log.Logger().Info("ensemble search complete",
		zap.Int("n_trials", trials),
		zap.Strings("members", result.Names),
		zap.Float64s("weights", result.Weights),
		zap.Float64("rmse", result.Loss))
	return result, nil
}

// MemberSpec describes how to predict a member.
type MemberSpec struct {
	Name   string
	Kind   knn.Kind
	Config func(train *dataset.UserItemRatings) knn.Config
}

// DefaultMembers are slope one, item based correlation, user based correlation
// with IUF weights and user based cosine.
func DefaultMembers() []MemberSpec {
	return []MemberSpec{
		{Name: "slope_one", Kind: knn.SlopeOne, Config: func(*dataset.UserItemRatings) knn.Config {
			return knn.Merge(presetOf("slope_one"), presetOf("item_based_k"))
		}},
		{Name: "item_corr", Kind: knn.ItemBased, Config: func(*dataset.UserItemRatings) knn.Config {
			return knn.Merge(presetOf("corr"), presetOf("item_based_k"))
		}},
		{Name: "user_corr_iuf", Kind: knn.UserBased, Config: func(train *dataset.UserItemRatings) knn.Config {
			return knn.Merge(presetOf("corr"), knn.IUFPreset(train.Matrix(), false)).WithK(20)
		}},
		{Name: "user_cos", Kind: knn.UserBased, Config: func(*dataset.UserItemRatings) knn.Config {
			return presetOf("cos").WithK(knn.SimpleCosBestK)
		}},
	}
}

func presetOf(name string) knn.Config {
	cfg, err := knn.Preset(name)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Predict runs every member on questions.
func Predict(ctx context.Context, specs []MemberSpec, train, active *dataset.UserItemRatings, questions *dataset.Questions, opts ...knn.Option) ([]Member, error) {
	members := make([]Member, 0, len(specs))
	for _, spec := range specs {
		predictor, err := knn.NewPredictor(spec.Kind, opts...)
		if err != nil {
			return nil, errors.Trace(err)
		}
		predictions, err := predictor.Predict(ctx, train, active, questions, spec.Config(train), knn.Precomputed{})
		if err != nil {
			return nil, errors.Annotatef(err, "member %s", spec.Name)
		}
		members = append(members, Member{Name: spec.Name, Predictions: predictions})
		log.Logger().Debug("ensemble member predicted", zap.String("member", spec.Name))
	}
	return members, nil
}
