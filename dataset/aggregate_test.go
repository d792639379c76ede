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

package dataset

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestAggregateRatings(t *testing.T) {
	entries := []Entry{{3, 1, 5}, {3, 2, 3}, {1, 4, 2}, {2, 2, 0}}
	r, err := AggregateRatings(entries, 0)
	assert.NoError(t, err)
	// questions are ignored and users are indexed in first-seen order
	assert.Equal(t, []int{3, 1}, r.UserIds())
	assert.Equal(t, 4, r.CountItems())
	assert.Equal(t, 3, r.Matrix().Count())
	user, err := r.User(1)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, user.At(3))

	r, err = AggregateRatings(entries, 6)
	assert.NoError(t, err)
	assert.Equal(t, 6, r.CountItems())

	_, err = AggregateRatings(entries, 3)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestAggregateAll(t *testing.T) {
	train := []Entry{{1, 1, 5}, {1, 2, 3}, {2, 3, 4}}
	active := []Entry{{9, 1, 4}, {9, 2, 0}, {9, 3, 0}}
	ratings, activeRatings, questions, err := AggregateAll(train, active)
	assert.NoError(t, err)
	assert.Equal(t, 2, ratings.CountUsers())
	assert.Equal(t, 3, activeRatings.CountItems())
	assert.Equal(t, []int{9}, activeRatings.UserIds())
	assert.Equal(t, 2, questions.Len())
	assert.False(t, questions.HasAnswers())
}

func TestAggregateCrossValidation(t *testing.T) {
	train := []Entry{{2, 1, 5}, {1, 2, 3}, {2, 3, 4}}
	test := []Entry{{2, 5, 1}, {1, 1, 2}, {2, 2, 3}}
	ratings, activeRatings, questions, err := AggregateCrossValidation(train, test)
	assert.NoError(t, err)
	assert.Equal(t, 5, ratings.CountItems())
	// active users sorted by id
	assert.Equal(t, []int{1, 2}, activeRatings.UserIds())
	user, err := activeRatings.User(2)
	assert.NoError(t, err)
	assert.Equal(t, 2, user.Count())
	assert.Equal(t, []int{1, 2, 3}, questions.Answers())

	_, _, _, err = AggregateCrossValidation(train, []Entry{{7, 1, 1}})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestSplitEntries(t *testing.T) {
	entries := make([]Entry, 10)
	for i := range entries {
		entries[i] = Entry{UserId: i, ItemId: 1, Rating: 1}
	}
	train, test := SplitEntries(entries, 0.3, 0)
	assert.Len(t, train, 7)
	assert.Len(t, test, 3)
	assert.ElementsMatch(t, entries, append(append([]Entry{}, train...), test...))
	// deterministic under a seed
	train2, test2 := SplitEntries(entries, 0.3, 0)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = SplitEntries(entries, 4, 1)
	assert.Len(t, train, 6)
	assert.Len(t, test, 4)
	train, test = SplitEntries(entries, 20, 1)
	assert.Empty(t, train)
	assert.Len(t, test, 10)
	// input untouched
	assert.Equal(t, 0, entries[0].UserId)
}
