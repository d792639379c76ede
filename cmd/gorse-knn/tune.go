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
	"fmt"
	"io"
	"strconv"

	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func init() {
	rootCommand.AddCommand(tuneCommand)
	tuneCommand.Flags().Int("k-min", 0, "smallest neighbor budget (overrides config)")
	tuneCommand.Flags().Int("k-max", 0, "largest neighbor budget (overrides config)")
}

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Sweep the neighbor budget of the configured predictor",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadSettings(cmd)
		if err != nil {
			fatal("failed to load config", err)
		}
		kMin, kMax := s.Config.Tune.KMin, s.Config.Tune.KMax
		if cmd.Flags().Changed("k-min") {
			kMin, _ = cmd.Flags().GetInt("k-min")
		}
		if cmd.Flags().Changed("k-max") {
			kMax, _ = cmd.Flags().GetInt("k-max")
		}
		if kMin < 1 || kMax < kMin {
			fatal("invalid neighbor budgets", errors.NotValidf("range [%d, %d]", kMin, kMax))
		}
		kind, err := s.Config.Predict.Kind()
		if err != nil {
			fatal("failed to create predictor", err)
		}
		if kind == knn.SlopeOne {
			fatal("failed to create predictor", errors.NotSupportedf("neighbor budget of %s", kind))
		}
		d, err := loadDataSet(s, true)
		if err != nil {
			fatal("failed to load dataset", err)
		}
		predict := s.Config.Predict
		predict.DynamicK = false
		cfg, err := predict.KnnConfig(d.train.Matrix())
		if err != nil {
			fatal("failed to create predictor", err)
		}
		configs := knn.KRange(cfg, kMin, kMax)
		bar := progressbar.Default(int64(len(configs)), "Evaluating neighbor budgets")
		results, best, err := knn.TrainK(cmd.Context(), kind, d.train, d.active, d.questions, configs,
			s.Options(knn.WithProgress(func(done, total int) {
				_ = bar.Set(done)
			}))...)
		if err != nil {
			fatal("failed to tune", err)
		}
		_ = bar.Finish()
		if err = writeTrainResults(cmd.OutOrStdout(), results, best); err != nil {
			fatal("failed to write report", err)
		}
	},
}

// writeTrainResults renders the MAE of every budget and marks the best one.
func writeTrainResults(w io.Writer, results []knn.TrainResult, best knn.TrainResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("K", "MAE", "Best")
	for _, result := range results {
		mark := ""
		if result.K == best.K {
			mark = "*"
		}
		if err := table.Append([]string{
			strconv.Itoa(result.K),
			fmt.Sprintf("%.5f", result.MAE),
			mark,
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
