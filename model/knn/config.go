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
	"fmt"
	"strconv"
	"strings"

	"github.com/gorse-io/knn/dataset"
)

// Field is an optional configuration value.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a present field.
func Set[T any](value T) Field[T] {
	return Field[T]{value: value, set: true}
}

// Get returns the value and whether it is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field is present.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Or returns the value if present, otherwise def.
func (f Field[T]) Or(def T) T {
	if f.set {
		return f.value
	}
	return def
}

// Transform is a named endomorphism. The zero value is the identity.
type Transform[T any] struct {
	Name  string
	Apply func(T) T
}

// Then returns the transform applying t first and next second, named "next∘t".
func (t Transform[T]) Then(next Transform[T]) Transform[T] {
	if t.Apply == nil {
		return next
	}
	if next.Apply == nil {
		return t
	}
	first, second := t.Apply, next.Apply
	return Transform[T]{
		Name: next.Name + "∘" + t.Name,
		Apply: func(x T) T {
			return second(first(x))
		},
	}
}

func (t Transform[T]) name() string {
	if t.Apply == nil {
		return ""
	}
	return t.Name
}

// KRule gives the neighbor budget of a question, either a constant or a function
// of the active user's ratings.
type KRule struct {
	name    string
	fixed   int
	dynamic func(activeUser dataset.Row) int
}

// FixedK always returns k.
func FixedK(k int) KRule {
	return KRule{name: strconv.Itoa(k), fixed: k}
}

// DynamicK evaluates f against the active user of every question.
func DynamicK(name string, f func(activeUser dataset.Row) int) KRule {
	return KRule{name: name, dynamic: f}
}

// Eval returns the budget for an active user.
func (k KRule) Eval(activeUser dataset.Row) int {
	if k.dynamic != nil {
		return k.dynamic(activeUser)
	}
	return k.fixed
}

// Fixed returns the constant budget, false for a dynamic rule.
func (k KRule) Fixed() (int, bool) {
	return k.fixed, k.dynamic == nil
}

func (k KRule) String() string {
	return k.name
}

// Config is a bundle of optional predictor parameters. Configs are values;
// Merge and Compose build new ones.
type Config struct {
	SimScheme  Field[Scheme]
	Prediction Field[PredictionScheme]
	K          Field[KRule]
	FillValue  Field[float64]
	Weights    Field[WeightsPair]
	PreSort    Field[Transform[[]float64]]
	PostMap    Field[Transform[Ranking]]
}

// MissingFieldError is returned when a required field is unset.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("config field %s missing", e.Field)
}

// GetSimScheme returns the similarity scheme.
func (c Config) GetSimScheme() (Scheme, error) {
	if !c.SimScheme.set {
		return Scheme{}, &MissingFieldError{Field: "sim_scheme"}
	}
	return c.SimScheme.value, nil
}

// GetPrediction returns the prediction scheme.
func (c Config) GetPrediction() (PredictionScheme, error) {
	if !c.Prediction.set {
		return PredictionScheme{}, &MissingFieldError{Field: "prediction"}
	}
	return c.Prediction.value, nil
}

// GetK returns the neighbor budget rule.
func (c Config) GetK() (KRule, error) {
	if !c.K.set {
		return KRule{}, &MissingFieldError{Field: "knn_k"}
	}
	return c.K.value, nil
}

// GetFillValue returns the value of undefined similarities, 0 by default.
func (c Config) GetFillValue() float64 {
	return c.FillValue.Or(0)
}

// GetWeights returns the similarity weights, nil if unset.
func (c Config) GetWeights() *WeightsPair {
	if !c.Weights.set {
		return nil
	}
	w := c.Weights.value
	return &w
}

// GetPreSort returns the pre-sort transform, identity if unset.
func (c Config) GetPreSort() Transform[[]float64] {
	return c.PreSort.Or(Transform[[]float64]{})
}

// GetPostMap returns the post-map transform, identity if unset.
func (c Config) GetPostMap() Transform[Ranking] {
	return c.PostMap.Or(Transform[Ranking]{})
}

func mergeField[T any](a, b Field[T]) Field[T] {
	if b.set {
		return b
	}
	return a
}

func composeField[T any](a, b Field[Transform[T]]) Field[Transform[T]] {
	if a.set && b.set && a.value.Apply != nil && b.value.Apply != nil {
		return Set(a.value.Then(b.value))
	}
	return mergeField(a, b)
}

// Merge takes every field from b if present, otherwise from a.
func Merge(a, b Config) Config {
	return Config{
		SimScheme:  mergeField(a.SimScheme, b.SimScheme),
		Prediction: mergeField(a.Prediction, b.Prediction),
		K:          mergeField(a.K, b.K),
		FillValue:  mergeField(a.FillValue, b.FillValue),
		Weights:    mergeField(a.Weights, b.Weights),
		PreSort:    mergeField(a.PreSort, b.PreSort),
		PostMap:    mergeField(a.PostMap, b.PostMap),
	}
}

// Compose merges a and b, except that transforms present in both are chained,
// a's first.
func Compose(a, b Config) Config {
	c := Merge(a, b)
	c.PreSort = composeField(a.PreSort, b.PreSort)
	c.PostMap = composeField(a.PostMap, b.PostMap)
	return c
}

// WithK overrides the budget with a constant.
func (c Config) WithK(k int) Config {
	return Merge(c, Config{K: Set(FixedK(k))})
}

// WithDynamicK overrides the budget with a rule.
func (c Config) WithDynamicK(k KRule) Config {
	return Merge(c, Config{K: Set(k)})
}

// WithFill overrides the fill value.
func (c Config) WithFill(fill float64) Config {
	return Merge(c, Config{FillValue: Set(fill)})
}

// WithWeights overrides the similarity weights.
func (c Config) WithWeights(w WeightsPair) Config {
	return Merge(c, Config{Weights: Set(w)})
}

func (c Config) String() string {
	var sb strings.Builder
	write := func(name, value string) {
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteByte('\n')
	}
	or := func(set bool, value string) string {
		if !set {
			return "None"
		}
		return value
	}
	write("knn_k", or(c.K.set, c.K.value.String()))
	write("sim_scheme", or(c.SimScheme.set, c.SimScheme.value.Name))
	write("prediction", or(c.Prediction.set, c.Prediction.value.Name))
	write("sim_fill_value", strconv.FormatFloat(c.GetFillValue(), 'g', -1, 64))
	write("indexed_sim_map", or(c.PostMap.set, c.PostMap.value.Name))
	write("sim_weights", or(c.Weights.set, c.Weights.value.Name))
	write("pre_sort_sim", or(c.PreSort.set, c.PreSort.value.Name))
	return sb.String()
}
