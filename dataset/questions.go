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
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/juju/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Entry is a (user, item, rating) triple. A zero rating marks a question.
type Entry struct {
	UserId int
	ItemId int
	Rating int
}

// Questions are the entries to predict, with optional answers.
type Questions struct {
	entries    []Entry
	answers    []int
	hasAnswers bool
	byUser     map[int][]int
}

// NewQuestions extracts questions from entries. If containsAnswers is true every
// entry is a question and its rating is the ground truth; otherwise only entries
// with a zero rating are questions.
func NewQuestions(entries []Entry, containsAnswers bool) *Questions {
	q := &Questions{hasAnswers: containsAnswers, byUser: make(map[int][]int)}
	for _, e := range entries {
		if containsAnswers || e.Rating == 0 {
			q.entries = append(q.entries, e)
		}
	}
	if containsAnswers {
		q.answers = make([]int, len(q.entries))
		for i, e := range q.entries {
			q.answers[i] = e.Rating
		}
	}
	for _, e := range q.entries {
		q.byUser[e.UserId] = append(q.byUser[e.UserId], e.ItemId)
	}
	return q
}

// Len returns the number of questions.
func (q *Questions) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the question entries.
func (q *Questions) Entries() []Entry {
	entries := make([]Entry, len(q.entries))
	copy(entries, q.entries)
	return entries
}

// Items returns the item ids asked for a user.
func (q *Questions) Items(userId int) ([]int, error) {
	items, exist := q.byUser[userId]
	if !exist {
		return nil, errors.NotFoundf("user_id %d in questions", userId)
	}
	return items, nil
}

// HasAnswers reports whether answers are attached.
func (q *Questions) HasAnswers() bool {
	return q.hasAnswers
}

// Answers returns a copy of the attached answers, nil if none.
func (q *Questions) Answers() []int {
	if !q.hasAnswers {
		return nil
	}
	answers := make([]int, len(q.answers))
	copy(answers, q.answers)
	return answers
}

// GroundTruth returns the answers as floats for loss functions.
func (q *Questions) GroundTruth() []float64 {
	truth := make([]float64, len(q.answers))
	for i, a := range q.answers {
		truth[i] = float64(a)
	}
	return truth
}

// RoundAnswer rounds half to even like the reference experiments did, except
// that a non-zero value rounding to 0 becomes 1.
func RoundAnswer(prediction float64) int {
	rounded := int(math.RoundToEven(prediction))
	if rounded == 0 && prediction != 0 {
		return 1
	}
	return rounded
}

// TakeAnswers attaches predictions as answers. Existing answers are only replaced
// when force is set. Answers outside [MinRating, MaxRating] fail unless validate
// is false.
func (q *Questions) TakeAnswers(predictions []float64, force, validate bool) error {
	if len(predictions) != len(q.entries) {
		return errors.NotValidf("%d answers for %d questions", len(predictions), len(q.entries))
	}
	if !force && q.hasAnswers {
		return errors.AlreadyExistsf("answers")
	}
	answers := make([]int, len(predictions))
	for i, p := range predictions {
		answers[i] = RoundAnswer(p)
	}
	if validate {
		var bad []string
		for i, a := range answers {
			if a < MinRating || a > MaxRating {
				bad = append(bad, fmt.Sprintf("(%d, %d, %d)", q.entries[i].UserId, q.entries[i].ItemId, a))
			}
		}
		if len(bad) > 0 {
			return errors.NotValidf("answer values [%s]", strings.Join(bad, ", "))
		}
	}
	q.answers = answers
	q.hasAnswers = true
	return nil
}

// WriteTo writes "user item answer" lines. Unanswered questions are written with
// their original rating.
func (q *Questions) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for i, e := range q.entries {
		answer := e.Rating
		if q.hasAnswers {
			answer = q.answers[i]
		}
		n, err := fmt.Fprintf(bw, "%d %d %d\n", e.UserId, e.ItemId, answer)
		total += int64(n)
		if err != nil {
			return total, errors.Trace(err)
		}
	}
	return total, errors.Trace(bw.Flush())
}

func (q *Questions) String() string {
	var sb strings.Builder
	_, _ = q.WriteTo(&sb)
	return sb.String()
}
