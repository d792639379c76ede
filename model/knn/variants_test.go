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
	"testing"

	"github.com/gorse-io/knn/dataset"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func variantNames(variants []Variant) []string {
	return lo.Map(variants, func(v Variant, _ int) string { return v.Name })
}

func TestBasicVariants(t *testing.T) {
	variants := BasicVariants()
	assert.Equal(t, []string{"user_cos", "user_corr", "item_cos", "item_corr", "item_adj_cos", "slope_one"}, variantNames(variants))
	for _, v := range variants {
		_, err := v.Config.GetSimScheme()
		assert.NoError(t, err, v.Name)
		_, err = v.Config.GetPrediction()
		assert.NoError(t, err, v.Name)
		if v.Kind != SlopeOne {
			k, err := v.Config.GetK()
			assert.NoError(t, err, v.Name)
			assert.NotEmpty(t, k.String())
		}
	}
	k, _ := variants[0].Config.GetK()
	assert.Equal(t, "10", k.String())
	k, _ = variants[1].Config.GetK()
	assert.Equal(t, "11", k.String())
	k, _ = variants[2].Config.GetK()
	assert.Equal(t, "item_based_dynamic_k", k.String())
}

func TestCaseAmpVariants(t *testing.T) {
	variants := CaseAmpVariants(3)
	assert.Equal(t, []string{"user_cos_case_amp", "user_corr_case_amp", "item_cos_case_amp", "item_corr_case_amp", "item_adj_cos_case_amp"}, variantNames(variants))
	for _, v := range variants {
		assert.Equal(t, "case_amplification(ρ=3)", v.Config.GetPostMap().Name, v.Name)
	}
	assert.Equal(t, "abs", variants[1].Config.GetPreSort().Name)
}

func TestIUFVariants(t *testing.T) {
	r := dataset.NewRatingMatrixFromDense(testRatings)
	variants := IUFVariants(r)
	assert.Len(t, variants, 5)
	for _, v := range variants {
		weights := v.Config.GetWeights()
		assert.NotNil(t, weights, v.Name)
		if v.Kind == UserBased {
			assert.IsType(t, dataset.ColumnWeights{}, weights.Left, v.Name)
		} else {
			assert.IsType(t, dataset.RowWeights{}, weights.Left, v.Name)
		}
	}

	variants = CaseAmpIUFVariants(DefaultCaseAmplificationRho, r)
	assert.Equal(t, "item_adj_cos_case_amp_iuf", variants[4].Name)
	assert.Equal(t, "case_amplification(ρ=2.5)", variants[4].Config.GetPostMap().Name)
	assert.Equal(t, "iuf", variants[4].Config.GetWeights().Name)
}
