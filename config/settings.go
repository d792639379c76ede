// Copyright 2021 gorse Project Authors
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

package config

import (
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
)

// Settings is the state shared by the commands of one process.
type Settings struct {
	Config *Config

	// neighbor rankings shared across predictors
	Selector *knn.Selector
}

func NewSettings() *Settings {
	return &Settings{
		Config:   GetDefaultConfig(),
		Selector: knn.NewSelector(),
	}
}

// Options are the predictor options of the runtime section.
func (s *Settings) Options(extra ...knn.Option) []knn.Option {
	return append([]knn.Option{
		knn.WithSelector(s.Selector),
		knn.WithJobs(s.Config.Runtime.Jobs),
	}, extra...)
}

// LoadEntries reads training entries and active or test entries. Without a
// test file, test entries are held out of the training file.
func (s *Settings) LoadEntries() (train, test []dataset.Entry, err error) {
	data := s.Config.Data
	train, err = dataset.ReadEntries(data.Train, data.Separator)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if data.Test == "" {
		train, test = dataset.SplitEntries(train, data.TestSize, data.Seed)
		return train, test, nil
	}
	test, err = dataset.ReadEntries(data.Test, data.Separator)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return train, test, nil
}
