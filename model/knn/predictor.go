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
	"strings"
	"time"

	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Kind is a collaborative filtering algorithm.
type Kind int

const (
	UserBased Kind = iota
	ItemBased
	SlopeOne
)

var kindNames = []string{"user_based", "item_based", "slope_one"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses names like "user_based" or "user_based_cf".
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "_cf")
	for i, kindName := range kindNames {
		if kindName == name {
			return Kind(i), nil
		}
	}
	return 0, errors.NotFoundf("predictor %s", name)
}

// Precomputed holds matrices a predictor would otherwise build. Nil fields are
// computed on demand.
type Precomputed struct {
	Similarity *Similarity
	Support    *Support
}

// Predictor predicts the rating of every question.
type Predictor interface {
	Kind() Kind
	// Precompute builds the matrices Predict needs for cfg.
	Precompute(ctx context.Context, train, active *dataset.UserItemRatings, cfg Config) (Precomputed, error)
	// Predict returns one prediction per question in question order.
	Predict(ctx context.Context, train, active *dataset.UserItemRatings, questions *dataset.Questions, cfg Config, pre Precomputed) ([]float64, error)
}

type options struct {
	selector *Selector
	jobs     int
	progress func(done, total int)
}

// Option configures predictors and trainers.
type Option func(*options)

// WithSelector replaces the default selector.
func WithSelector(s *Selector) Option {
	return func(o *options) {
		o.selector = s
	}
}

// WithJobs sets the number of workers of similarity computation.
func WithJobs(jobs int) Option {
	return func(o *options) {
		o.jobs = jobs
	}
}

// WithProgress reports finished steps of long runs.
func WithProgress(f func(done, total int)) Option {
	return func(o *options) {
		o.progress = f
	}
}

func newOptions(opts []Option) options {
	o := options{selector: DefaultSelector(), jobs: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewPredictor creates the predictor of kind.
func NewPredictor(kind Kind, opts ...Option) (Predictor, error) {
	o := newOptions(opts)
	switch kind {
	case UserBased:
		return &userBased{options: o}, nil
	case ItemBased:
		return &itemBased{options: o}, nil
	case SlopeOne:
		return &slopeOne{options: o}, nil
	}
	return nil, errors.NotFoundf("predictor %d", int(kind))
}

type question struct {
	index  int
	col    int
	row    int
	userId int
}

// locate resolves the rows and columns of every question in merged ratings.
func locate(merged *dataset.UserItemRatings, questions *dataset.Questions) ([]question, error) {
	entries := questions.Entries()
	located := make([]question, len(entries))
	for i, e := range entries {
		col, err := merged.ItemIndex(e.ItemId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		row, err := merged.UserIndex(e.UserId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		located[i] = question{index: i, col: col, row: row, userId: e.UserId}
	}
	return located, nil
}

func checkShape(name string, s Scores, rows, cols int) error {
	r, c := s.Shape()
	if r != rows || c != cols {
		return errors.NotValidf("%s of shape (%d, %d), expect (%d, %d)", name, r, c, rows, cols)
	}
	return nil
}

type userBased struct {
	options
}

func (p *userBased) Kind() Kind {
	return UserBased
}

// Precompute scores active users against training users.
func (p *userBased) Precompute(ctx context.Context, train, active *dataset.UserItemRatings, cfg Config) (Precomputed, error) {
	scheme, err := cfg.GetSimScheme()
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	sim, err := NewSimilarity(ctx, active.Matrix(), train.Matrix(), scheme, cfg.GetFillValue(), cfg.GetWeights(), p.jobs)
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	return Precomputed{Similarity: sim}, nil
}

func (p *userBased) Predict(ctx context.Context, train, active *dataset.UserItemRatings, questions *dataset.Questions, cfg Config, pre Precomputed) ([]float64, error) {
	prediction, err := cfg.GetPrediction()
	if err != nil {
		return nil, errors.Trace(err)
	}
	kRule, err := cfg.GetK()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if pre.Similarity == nil {
		if pre, err = p.Precompute(ctx, train, active, cfg); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if err = checkShape("user similarity", pre.Similarity, active.CountUsers(), train.CountUsers()); err != nil {
		return nil, errors.Trace(err)
	}
	// training rows keep their position in merged ratings
	merged, err := train.Merge(active)
	if err != nil {
		return nil, errors.Trace(err)
	}
	located, err := locate(merged, questions)
	if err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	table := merged.Matrix()
	predictions := make([]float64, len(located))
	for _, q := range located {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		activeRow, err := active.UserIndex(q.userId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		ranking, err := p.selector.Rank(activeRow, pre.Similarity, cfg.GetPreSort(), cfg.GetPostMap())
		if err != nil {
			return nil, errors.Trace(err)
		}
		user := table.Row(q.row)
		predictions[q.index] = Drive(kRule.Eval(user), Seed{
			Column:     q.col,
			ActiveRow:  q.row,
			Table:      table,
			ActiveUser: user,
		}, ranking, prediction)
	}
	log.Logger().Debug("user based prediction complete",
		zap.Int("n_questions", len(located)),
		zap.String("k", kRule.String()),
		zap.Duration("used_time", time.Since(start)))
	return predictions, nil
}

type itemBased struct {
	options
}

func (p *itemBased) Kind() Kind {
	return ItemBased
}

// Precompute scores training items against themselves.
func (p *itemBased) Precompute(ctx context.Context, train, _ *dataset.UserItemRatings, cfg Config) (Precomputed, error) {
	scheme, err := cfg.GetSimScheme()
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	items := train.Matrix().Transpose()
	sim, err := NewSimilarity(ctx, items, items, scheme, cfg.GetFillValue(), cfg.GetWeights(), p.jobs)
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	return Precomputed{Similarity: sim}, nil
}

func (p *itemBased) Predict(ctx context.Context, train, active *dataset.UserItemRatings, questions *dataset.Questions, cfg Config, pre Precomputed) ([]float64, error) {
	prediction, err := cfg.GetPrediction()
	if err != nil {
		return nil, errors.Trace(err)
	}
	kRule, err := cfg.GetK()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if pre.Similarity == nil {
		if pre, err = p.Precompute(ctx, train, active, cfg); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if err = checkShape("item similarity", pre.Similarity, train.CountItems(), train.CountItems()); err != nil {
		return nil, errors.Trace(err)
	}
	merged, err := train.Merge(active)
	if err != nil {
		return nil, errors.Trace(err)
	}
	located, err := locate(merged, questions)
	if err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	ratings := merged.Matrix()
	table := ratings.Transpose()
	predictions := make([]float64, len(located))
	for _, q := range located {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		ranking, err := p.selector.Rank(q.col, pre.Similarity, cfg.GetPreSort(), cfg.GetPostMap())
		if err != nil {
			return nil, errors.Trace(err)
		}
		user := ratings.Row(q.row)
		predictions[q.index] = Drive(kRule.Eval(user), Seed{
			Column:     q.row,
			ActiveRow:  q.col,
			Table:      table,
			ActiveUser: user,
		}, ranking, prediction)
	}
	log.Logger().Debug("item based prediction complete",
		zap.Int("n_questions", len(located)),
		zap.String("k", kRule.String()),
		zap.Duration("used_time", time.Since(start)))
	return predictions, nil
}

type slopeOne struct {
	options
}

func (p *slopeOne) Kind() Kind {
	return SlopeOne
}

// Precompute builds item differences and item supports.
func (p *slopeOne) Precompute(ctx context.Context, train, _ *dataset.UserItemRatings, cfg Config) (Precomputed, error) {
	scheme, err := cfg.GetSimScheme()
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	items := train.Matrix().Transpose()
	diff, err := NewSimilarity(ctx, items, items, scheme, cfg.GetFillValue(), cfg.GetWeights(), p.jobs)
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	support, err := NewSupport(ctx, items, items, p.jobs)
	if err != nil {
		return Precomputed{}, errors.Trace(err)
	}
	return Precomputed{Similarity: diff, Support: support}, nil
}

func (p *slopeOne) Predict(ctx context.Context, train, active *dataset.UserItemRatings, questions *dataset.Questions, cfg Config, pre Precomputed) ([]float64, error) {
	prediction, err := cfg.GetPrediction()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if pre.Similarity == nil || pre.Support == nil {
		computed, err := p.Precompute(ctx, train, active, cfg)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if pre.Similarity == nil {
			pre.Similarity = computed.Similarity
		}
		if pre.Support == nil {
			pre.Support = computed.Support
		}
	}
	nItems := train.CountItems()
	if err = checkShape("item difference", pre.Similarity, nItems, nItems); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkShape("item support", pre.Support, nItems, nItems); err != nil {
		return nil, errors.Trace(err)
	}
	merged, err := train.Merge(active)
	if err != nil {
		return nil, errors.Trace(err)
	}
	located, err := locate(merged, questions)
	if err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	ratings := merged.Matrix()
	table := ratings.Transpose()
	predictions := make([]float64, len(located))
	for _, q := range located {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		// items are ranked by support, the budget is unlimited
		ranking, err := p.selector.Rank(q.col, pre.Support, Transform[[]float64]{}, Transform[Ranking]{})
		if err != nil {
			return nil, errors.Trace(err)
		}
		user := ratings.Row(q.row)
		adjusted := make([]float64, nItems)
		user.ForEach(func(j int, v float64) {
			adjusted[j] = v - pre.Similarity.At(j, q.col)
		})
		predictions[q.index] = Drive(-1, Seed{
			Column:     q.row,
			ActiveRow:  q.col,
			Table:      table,
			ActiveUser: user,
			Adjusted:   adjusted,
		}, ranking, prediction)
	}
	log.Logger().Debug("slope one prediction complete",
		zap.Int("n_questions", len(located)),
		zap.Duration("used_time", time.Since(start)))
	return predictions, nil
}
