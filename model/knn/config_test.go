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
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

var negate = Transform[Ranking]{Name: "negate", Apply: func(r Ranking) Ranking {
	negated := make(Ranking, len(r))
	for i, n := range r {
		negated[i] = Neighbor{Index: n.Index, Weight: -n.Weight}
	}
	return negated
}}

var double = Transform[[]float64]{Name: "double", Apply: func(x []float64) []float64 {
	for i := range x {
		x[i] *= 2
	}
	return x
}}

func TestField(t *testing.T) {
	var f Field[int]
	assert.False(t, f.IsSet())
	assert.Equal(t, 3, f.Or(3))
	f = Set(5)
	v, ok := f.Get()
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, 5, f.Or(3))
	// zero is a present value
	assert.True(t, Set(0.0).IsSet())
}

func TestMerge(t *testing.T) {
	a := Config{
		SimScheme:  Set(Cosine),
		Prediction: Set(WeightedAverage),
		K:          Set(FixedK(5)),
		PreSort:    Set(Abs),
		PostMap:    Set(CaseAmplification(2)),
	}
	b := Config{
		SimScheme: Set(Pearson),
		K:         Set(FixedK(7)),
		FillValue: Set(1.0),
		PostMap:   Set(negate),
	}
	c := Merge(a, b)
	scheme, err := c.GetSimScheme()
	assert.NoError(t, err)
	assert.Equal(t, Pearson.Name, scheme.Name)
	prediction, err := c.GetPrediction()
	assert.NoError(t, err)
	assert.Equal(t, WeightedAverage.Name, prediction.Name)
	k, err := c.GetK()
	assert.NoError(t, err)
	assert.Equal(t, "7", k.String())
	assert.Equal(t, 1.0, c.GetFillValue())
	assert.Equal(t, Abs.Name, c.GetPreSort().Name)
	// transforms are overridden, not chained
	assert.Equal(t, "negate", c.GetPostMap().Name)
	assert.Nil(t, c.GetWeights())

	// unset fields never override
	c = Merge(a, Config{})
	assert.Equal(t, a.String(), c.String())
	c = Merge(Config{}, b)
	assert.Equal(t, b.String(), c.String())
	// inputs untouched
	k, _ = a.GetK()
	assert.Equal(t, "5", k.String())
}

func TestCompose(t *testing.T) {
	a := Config{
		SimScheme: Set(Cosine),
		K:         Set(FixedK(5)),
		PreSort:   Set(Abs),
		PostMap:   Set(CaseAmplification(2)),
	}
	b := Config{
		SimScheme: Set(Pearson),
		PreSort:   Set(double),
		PostMap:   Set(negate),
	}
	c := Compose(a, b)
	// non-transform fields merge
	scheme, err := c.GetSimScheme()
	assert.NoError(t, err)
	assert.Equal(t, Pearson.Name, scheme.Name)
	k, err := c.GetK()
	assert.NoError(t, err)
	assert.Equal(t, "5", k.String())

	postMap := c.GetPostMap()
	assert.Equal(t, "negate∘case_amplification(ρ=2)", postMap.Name)
	in := Ranking{{0, 0.5}, {1, -0.3}}
	expect := negate.Apply(CaseAmplification(2).Apply(in))
	assert.Equal(t, expect, postMap.Apply(in))

	preSort := c.GetPreSort()
	assert.Equal(t, "double∘abs", preSort.Name)
	assert.Equal(t, []float64{1, 0.6}, preSort.Apply([]float64{-0.5, 0.3}))

	// a transform present on one side only behaves as merge
	c = Compose(a, Config{PostMap: Set(negate)})
	assert.Equal(t, "abs", c.GetPreSort().Name)
	c = Compose(Config{}, b)
	assert.Equal(t, "negate", c.GetPostMap().Name)
	assert.Equal(t, Merge(a, Config{K: Set(FixedK(1))}).String(), Compose(a, Config{K: Set(FixedK(1))}).String())
}

func TestTransform_Then(t *testing.T) {
	identity := Transform[[]float64]{}
	assert.Equal(t, "abs", identity.Then(Abs).Name)
	assert.Equal(t, "abs", Abs.Then(identity).Name)
	assert.Nil(t, identity.Then(identity).Apply)
}

func TestMissingField(t *testing.T) {
	var c Config
	var missing *MissingFieldError

	_, err := c.GetSimScheme()
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "sim_scheme", missing.Field)
	_, err = c.GetPrediction()
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "prediction", missing.Field)
	_, err = c.GetK()
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "knn_k", missing.Field)
	assert.Equal(t, "config field knn_k missing", err.Error())

	// optional fields default to no-op
	assert.Zero(t, c.GetFillValue())
	assert.Nil(t, c.GetWeights())
	assert.Nil(t, c.GetPreSort().Apply)
	assert.Nil(t, c.GetPostMap().Apply)
}

func TestKRule(t *testing.T) {
	row := dataset.NewRatingMatrixFromDense([][]float64{{1, 0, 3}}).Row(0)
	k, fixed := FixedK(3).Fixed()
	assert.True(t, fixed)
	assert.Equal(t, 3, k)
	assert.Equal(t, 3, FixedK(3).Eval(row))
	_, fixed = ItemBasedDynamicK.Fixed()
	assert.False(t, fixed)
	assert.Equal(t, 2, ItemBasedDynamicK.Eval(row))
	assert.Equal(t, "item_based_dynamic_k", ItemBasedDynamicK.String())
}

func TestConfig_String(t *testing.T) {
	c := presets["cos"].WithK(10)
	assert.Equal(t, "knn_k: 10\n"+
		"sim_scheme: cosine_similarity\n"+
		"prediction: weighted_average\n"+
		"sim_fill_value: 0\n"+
		"indexed_sim_map: None\n"+
		"sim_weights: None\n"+
		"pre_sort_sim: None\n", c.String())
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"adj_cos", "case_amp", "corr", "cos", "item_based_k", "slope_one"}, PresetNames())
	_, err := Preset("nope")
	assert.True(t, errors.Is(err, errors.NotFound))

	c, err := MergePresets("corr", "item_based_k", "case_amp")
	assert.NoError(t, err)
	assert.Contains(t, c.String(), "knn_k: item_based_dynamic_k")
	assert.Contains(t, c.String(), "sim_scheme: pearson_correlation")
	assert.Contains(t, c.String(), "pre_sort_sim: abs")
	assert.Contains(t, c.String(), "indexed_sim_map: case_amplification(ρ=2.5)")
	_, err = MergePresets("cos", "nope")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestIUF(t *testing.T) {
	r := dataset.NewRatingMatrixFromDense([][]float64{
		{5, 3, 0},
		{4, 0, 0},
		{1, 0, 0},
		{2, 0, 0},
	})
	iuf := InverseUserFrequency(r)
	assert.InDeltaSlice(t, []float64{-0.22314355131420976, 0.6931471805599453, 1.3862943611198906}, iuf, epsilon)

	user := IUFWeights(r, false)
	assert.IsType(t, dataset.ColumnWeights{}, user.Left)
	assert.IsType(t, dataset.ColumnWeights{}, user.Right)
	assert.InDelta(t, iuf[1], user.Left.At(7, 1), epsilon)
	item := IUFWeights(r, true)
	assert.IsType(t, dataset.RowWeights{}, item.Left)
	assert.InDelta(t, iuf[2], item.Right.At(2, 7), epsilon)
	assert.Contains(t, IUFPreset(r, false).String(), "sim_weights: iuf\n")
}
