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
	"sort"

	"github.com/gorse-io/knn/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

const DefaultCaseAmplificationRho = 2.5

var presets = map[string]Config{
	"cos": {
		SimScheme:  Set(Cosine),
		Prediction: Set(WeightedAverage),
	},
	"corr": {
		SimScheme:  Set(Pearson),
		Prediction: Set(MeanDiffWeightedAverage),
		PreSort:    Set(Abs),
	},
	"adj_cos": {
		SimScheme:  Set(AdjustedCosine),
		Prediction: Set(ActiveMeanWeightedAverage),
		PreSort:    Set(Abs),
	},
	"slope_one": {
		SimScheme:  Set(AverageDifference),
		Prediction: Set(SlopeOneWeightedAverage),
	},
	"case_amp": {
		PostMap: Set(CaseAmplification(DefaultCaseAmplificationRho)),
	},
	"item_based_k": {
		K: Set(ItemBasedDynamicK),
	},
}

// Preset returns a named partial config.
func Preset(name string) (Config, error) {
	c, exist := presets[name]
	if !exist {
		return Config{}, errors.NotFoundf("preset %s", name)
	}
	return c, nil
}

// PresetNames returns the names of all presets in order.
func PresetNames() []string {
	names := lo.Keys(presets)
	sort.Strings(names)
	return names
}

// MergePresets merges the named presets from left to right.
func MergePresets(names ...string) (Config, error) {
	var c Config
	for _, name := range names {
		p, err := Preset(name)
		if err != nil {
			return Config{}, errors.Trace(err)
		}
		c = Merge(c, p)
	}
	return c, nil
}

// CaseAmplificationPreset sets case amplification with rho.
func CaseAmplificationPreset(rho float64) Config {
	return Config{PostMap: Set(CaseAmplification(rho))}
}

// IUFPreset sets inverse user frequency weights of a user x item matrix.
func IUFPreset(r *dataset.RatingMatrix, itemBased bool) Config {
	return Config{Weights: Set(IUFWeights(r, itemBased))}
}
