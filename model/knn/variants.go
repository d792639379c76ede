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
	"github.com/gorse-io/knn/dataset"
	"github.com/samber/lo"
)

// Best fixed budgets found by sweeping K on the reference data.
const (
	SimpleCosBestK  = 10
	SimpleCorrBestK = 11
)

// Variant is a predictor kind with its config.
type Variant struct {
	Name   string
	Kind   Kind
	Config Config
}

// BasicVariants returns user based, item based and slope one variants without
// weighting or amplification.
func BasicVariants() []Variant {
	itemK := presets["item_based_k"]
	return []Variant{
		{Name: "user_cos", Kind: UserBased, Config: presets["cos"].WithK(SimpleCosBestK)},
		{Name: "user_corr", Kind: UserBased, Config: presets["corr"].WithK(SimpleCorrBestK)},
		{Name: "item_cos", Kind: ItemBased, Config: Merge(presets["cos"], itemK)},
		{Name: "item_corr", Kind: ItemBased, Config: Merge(presets["corr"], itemK)},
		{Name: "item_adj_cos", Kind: ItemBased, Config: Merge(presets["adj_cos"], itemK)},
		{Name: "slope_one", Kind: SlopeOne, Config: presets["slope_one"]},
	}
}

func neighborhoodVariants() []Variant {
	return lo.Filter(BasicVariants(), func(v Variant, _ int) bool {
		return v.Kind != SlopeOne
	})
}

// CaseAmpVariants composes case amplification into every neighborhood variant.
func CaseAmpVariants(rho float64) []Variant {
	return lo.Map(neighborhoodVariants(), func(v Variant, _ int) Variant {
		v.Name += "_case_amp"
		v.Config = Compose(v.Config, CaseAmplificationPreset(rho))
		return v
	})
}

// IUFVariants weights every neighborhood variant by the inverse user frequency
// of a user x item matrix.
func IUFVariants(r *dataset.RatingMatrix) []Variant {
	return lo.Map(neighborhoodVariants(), func(v Variant, _ int) Variant {
		v.Name += "_iuf"
		v.Config = Merge(v.Config, IUFPreset(r, v.Kind != UserBased))
		return v
	})
}

// CaseAmpIUFVariants applies both case amplification and IUF weights.
func CaseAmpIUFVariants(rho float64, r *dataset.RatingMatrix) []Variant {
	return lo.Map(neighborhoodVariants(), func(v Variant, _ int) Variant {
		v.Name += "_case_amp_iuf"
		v.Config = Merge(Compose(v.Config, CaseAmplificationPreset(rho)), IUFPreset(r, v.Kind != UserBased))
		return v
	})
}
