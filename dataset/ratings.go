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
	"github.com/juju/errors"
)

// UserItemRatings is a rating matrix addressed by external ids. Users map to rows
// through an Index; item ids are 1-based and map to column id-1.
type UserItemRatings struct {
	matrix *RatingMatrix
	users  *Index
}

// NewUserItemRatings pairs a matrix with the index of its rows.
func NewUserItemRatings(matrix *RatingMatrix, users *Index) (*UserItemRatings, error) {
	rows, _ := matrix.Shape()
	if rows != users.Len() {
		return nil, errors.NotValidf("index of %d users for %d rows", users.Len(), rows)
	}
	return &UserItemRatings{matrix: matrix, users: users.Copy()}, nil
}

// Matrix returns the underlying rating matrix.
func (r *UserItemRatings) Matrix() *RatingMatrix {
	return r.matrix
}

// UserIds returns external user ids in row order.
func (r *UserItemRatings) UserIds() []int {
	return r.users.Names()
}

// CountUsers returns the number of rows.
func (r *UserItemRatings) CountUsers() int {
	return r.users.Len()
}

// CountItems returns the number of columns.
func (r *UserItemRatings) CountItems() int {
	_, cols := r.matrix.Shape()
	return cols
}

// UserIndex converts an external user id to its row.
func (r *UserItemRatings) UserIndex(userId int) (int, error) {
	row := r.users.ToNumber(userId)
	if row == NotId {
		rows, cols := r.matrix.Shape()
		return NotId, errors.NotFoundf("user_id %d in ratings of shape (%d, %d)", userId, rows, cols)
	}
	return row, nil
}

// UserIndices converts external user ids to rows.
func (r *UserItemRatings) UserIndices(userIds []int) ([]int, error) {
	rows := make([]int, len(userIds))
	for i, userId := range userIds {
		row, err := r.UserIndex(userId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		rows[i] = row
	}
	return rows, nil
}

// ItemIndex converts a 1-based external item id to its column.
func (r *UserItemRatings) ItemIndex(itemId int) (int, error) {
	rows, cols := r.matrix.Shape()
	if itemId <= 0 || itemId > cols {
		return NotId, errors.NotFoundf("item_id %d in ratings of shape (%d, %d)", itemId, rows, cols)
	}
	return itemId - 1, nil
}

// User returns the ratings of a user.
func (r *UserItemRatings) User(userId int) (Row, error) {
	row, err := r.UserIndex(userId)
	if err != nil {
		return Row{}, errors.Trace(err)
	}
	return r.matrix.Row(row), nil
}

// Merge returns the union of r and other. Rows of r keep their position and
// values; users of other that r doesn't have are appended in other's row order.
func (r *UserItemRatings) Merge(other *UserItemRatings) (*UserItemRatings, error) {
	if r.CountItems() != other.CountItems() {
		return nil, errors.NotValidf("merging ratings of %d items into %d items", other.CountItems(), r.CountItems())
	}
	users := r.users.Copy()
	var rowsToAdd []int
	for row, userId := range other.users.names {
		if !users.Contains(userId) {
			users.Add(userId)
			rowsToAdd = append(rowsToAdd, row)
		}
	}
	return &UserItemRatings{
		matrix: r.matrix.Stack(other.matrix, rowsToAdd),
		users:  users,
	}, nil
}
