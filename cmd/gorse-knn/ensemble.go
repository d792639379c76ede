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

	"github.com/gorse-io/knn/model/ensemble"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	rootCommand.AddCommand(ensembleCommand)
	ensembleCommand.Flags().Int("trials", 0, "number of trials of weight search (overrides config)")
}

var ensembleCommand = &cobra.Command{
	Use:   "ensemble",
	Short: "Search linear weights blending several predictors",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadSettings(cmd)
		if err != nil {
			fatal("failed to load config", err)
		}
		trials := s.Config.Ensemble.Trials
		if cmd.Flags().Changed("trials") {
			trials, _ = cmd.Flags().GetInt("trials")
		}
		d, err := loadDataSet(s, true)
		if err != nil {
			fatal("failed to load dataset", err)
		}
		members, err := ensemble.Predict(cmd.Context(), ensemble.DefaultMembers(), d.train, d.active, d.questions, s.Options()...)
		if err != nil {
			fatal("failed to predict members", err)
		}
		result, err := ensemble.Optimize(cmd.Context(), members, d.questions.GroundTruth(), trials, s.Config.Ensemble.Seed)
		if err != nil {
			fatal("failed to search weights", err)
		}
		if err = writeEnsemble(cmd.OutOrStdout(), result); err != nil {
			fatal("failed to write report", err)
		}
	},
}

func writeEnsemble(w io.Writer, result ensemble.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Member", "Weight")
	for i, name := range result.Names {
		if err := table.Append([]string{name, fmt.Sprintf("%.3f", result.Weights[i])}); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Append([]string{"RMSE", fmt.Sprintf("%.5f", result.Loss)}); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}
