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
	"os"

	"github.com/gorse-io/knn/dataset"
	"github.com/juju/errors"
)

func saveGrid(path string, grid [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = dataset.WriteGrid(f, grid); err != nil {
		_ = f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

func loadGrid(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	grid, err := dataset.ReadGrid(f)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", path)
	}
	return grid, nil
}

// SaveSimilarity writes a similarity as a comma separated grid.
func SaveSimilarity(path string, s *Similarity) error {
	return saveGrid(path, s.Grid())
}

// LoadSimilarity reads a similarity written by SaveSimilarity.
func LoadSimilarity(path string) (*Similarity, error) {
	grid, err := loadGrid(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewSimilarityFromGrid(grid)
}

// SaveSupport writes a support as a comma separated grid.
func SaveSupport(path string, s *Support) error {
	return saveGrid(path, s.Grid())
}

// LoadSupport reads a support written by SaveSupport.
func LoadSupport(path string) (*Support, error) {
	grid, err := loadGrid(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewSupportFromGrid(grid)
}
