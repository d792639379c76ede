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
	"math/rand"
	"sort"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// MaxItemId returns the largest item id among entries.
func MaxItemId(entries ...[]Entry) int {
	maxId := 0
	for _, es := range entries {
		for _, e := range es {
			maxId = max(maxId, e.ItemId)
		}
	}
	return maxId
}

// AggregateRatings builds ratings from entries, ignoring questions. Users are
// indexed in first-seen order. numItems <= 0 uses the largest item id.
func AggregateRatings(entries []Entry, numItems int) (*UserItemRatings, error) {
	if numItems <= 0 {
		numItems = MaxItemId(entries)
	}
	users := NewIndex()
	for _, e := range entries {
		if e.Rating != 0 {
			users.Add(e.UserId)
		}
	}
	b := NewMatrixBuilder(users.Len(), numItems)
	for _, e := range entries {
		if e.Rating == 0 {
			continue
		}
		if e.ItemId <= 0 || e.ItemId > numItems {
			return nil, errors.NotValidf("item_id %d of user_id %d (%d items)", e.ItemId, e.UserId, numItems)
		}
		b.Set(users.ToNumber(e.UserId), e.ItemId-1, float64(e.Rating))
	}
	return NewUserItemRatings(b.Build(), users)
}

// AggregateAll builds training ratings, active ratings and questions from a
// training file and a file mixing known ratings of active users with zero-rated
// questions.
func AggregateAll(train, active []Entry) (*UserItemRatings, *UserItemRatings, *Questions, error) {
	ratings, err := AggregateRatings(train, 0)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	activeRatings, err := AggregateRatings(active, ratings.CountItems())
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	return ratings, activeRatings, NewQuestions(active, false), nil
}

// AggregateCrossValidation builds ratings from the training split, active users
// from the rows of the test users inside the training ratings, and questions
// with ground truth from the test split.
func AggregateCrossValidation(train, test []Entry) (*UserItemRatings, *UserItemRatings, *Questions, error) {
	ratings, err := AggregateRatings(train, MaxItemId(train, test))
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	activeRatings, err := ActiveUsersFromRatings(test, ratings)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	return ratings, activeRatings, NewQuestions(test, true), nil
}

// ActiveUsersFromRatings takes the rows of the users in entries out of ratings.
// Active users are ordered by ascending id.
func ActiveUsersFromRatings(entries []Entry, ratings *UserItemRatings) (*UserItemRatings, error) {
	userIds := lo.Uniq(lo.Map(entries, func(e Entry, _ int) int { return e.UserId }))
	sort.Ints(userIds)
	rows, err := ratings.UserIndices(userIds)
	if err != nil {
		return nil, errors.Trace(err)
	}
	users := NewIndex()
	for _, userId := range userIds {
		users.Add(userId)
	}
	return NewUserItemRatings(ratings.Matrix().Take(rows), users)
}

// SplitEntries shuffles entries with seed and holds out a test split. testSize
// below 1 is a fraction of entries, otherwise an absolute count.
func SplitEntries(entries []Entry, testSize float64, seed int64) (train, test []Entry) {
	shuffled := make([]Entry, len(entries))
	copy(shuffled, entries)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var bound int
	if testSize < 1 {
		bound = int(float64(len(shuffled)) * testSize)
	} else {
		bound = int(testSize)
	}
	bound = min(max(bound, 0), len(shuffled))
	return shuffled[bound:], shuffled[:bound]
}
