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


package main

import (
	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/model/knn"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCommand.AddCommand(dumpCommand)
	dumpCommand.Flags().String("support", "", "support file of slope one")
}

var dumpCommand = &cobra.Command{
	Use:   "dump <similarity file>",
	Short: "Compute the similarity matrix of the configured predictor and save it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadSettings(cmd)
		if err != nil {
			fatal("failed to load config", err)
		}
		d, err := loadDataSet(s, false)
		if err != nil {
			fatal("failed to load dataset", err)
		}
		predictor, cfg, err := s.Config.Variant(d.train.Matrix(), s.Options()...)
		if err != nil {
			fatal("failed to create predictor", err)
		}
		pre, err := predictor.Precompute(cmd.Context(), d.train, d.active, cfg)
		if err != nil {
			fatal("failed to compute similarity", err)
		}
		if err = knn.SaveSimilarity(args[0], pre.Similarity); err != nil {
			fatal("failed to save similarity", err)
		}
		rows, cols := pre.Similarity.Shape()
		log.Logger().Info("save similarity",
			zap.String("path", args[0]),
			zap.Int("n_rows", rows),
			zap.Int("n_cols", cols))
		if path, _ := cmd.Flags().GetString("support"); path != "" && pre.Support != nil {
			if err = knn.SaveSupport(path, pre.Support); err != nil {
				fatal("failed to save support", err)
			}
			log.Logger().Info("save support", zap.String("path", path))
		}
	},
}
