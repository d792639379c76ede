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
	"time"

	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model"
	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCommand.AddCommand(predictCommand)
	predictCommand.Flags().StringP("output", "o", "", "answers file (overrides config)")
	predictCommand.Flags().Bool("force", false, "overwrite answers of questions with ground truth")
	predictCommand.Flags().Bool("skip-validation", false, "allow answers outside the rating range")
	predictCommand.Flags().String("similarity", "", "similarity file saved by dump")
	predictCommand.Flags().String("support", "", "support file saved by dump")
}

var predictCommand = &cobra.Command{
	Use:   "predict",
	Short: "Answer questions with the configured predictor",
	Long: `Answer questions with the configured predictor. With a test file the answers
are written out. Without one, a share of the training file is held out and
the error of the predictor on it is reported.`,
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
		log.Logger().Info("create predictor",
			zap.String("predictor", predictor.Kind().String()),
			zap.String("config", cfg.String()))
		pre, err := loadPrecomputed(cmd)
		if err != nil {
			fatal("failed to load precomputed matrices", err)
		}
		start := time.Now()
		predictions, err := predictor.Predict(cmd.Context(), d.train, d.active, d.questions, cfg, pre)
		if err != nil {
			fatal("failed to predict", err)
		}
		elapsed := time.Since(start)
		if d.questions.HasAnswers() {
			if err = writeScores(cmd.OutOrStdout(), s.Config.Predict.Name(), d.questions.GroundTruth(), predictions, elapsed); err != nil {
				fatal("failed to write report", err)
			}
			return
		}
		force, _ := cmd.Flags().GetBool("force")
		skipValidation, _ := cmd.Flags().GetBool("skip-validation")
		if err = takeAnswers(d.questions, predictions, force, !skipValidation); err != nil {
			fatal("failed to take answers", err)
		}
		path := s.Config.Predict.Output
		if cmd.Flags().Changed("output") {
			path, _ = cmd.Flags().GetString("output")
		}
		if err = writeAnswers(path, d.questions); err != nil {
			fatal("failed to write answers", err)
		}
		log.Logger().Info("answer questions",
			zap.Int("n_questions", d.questions.Len()),
			zap.String("output", path),
			zap.Duration("used_time", elapsed))
	},
}

func loadPrecomputed(cmd *cobra.Command) (knn.Precomputed, error) {
	var (
		pre knn.Precomputed
		err error
	)
	if path, _ := cmd.Flags().GetString("similarity"); path != "" {
		if pre.Similarity, err = knn.LoadSimilarity(path); err != nil {
			return knn.Precomputed{}, errors.Trace(err)
		}
	}
	if path, _ := cmd.Flags().GetString("support"); path != "" {
		if pre.Support, err = knn.LoadSupport(path); err != nil {
			return knn.Precomputed{}, errors.Trace(err)
		}
	}
	return pre, nil
}

// takeAnswers rounds predictions into the rating range before they are
// attached, so centred schemes overshooting [1, 5] still give valid answers.
func takeAnswers(questions *dataset.Questions, predictions []float64, force, validate bool) error {
	return errors.Trace(questions.TakeAnswers(model.RoundPredictions(predictions), force, validate))
}

func writeAnswers(path string, questions *dataset.Questions) error {
	w, closeFn, err := openOutput(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer closeFn()
	_, err = questions.WriteTo(w)
	return errors.Trace(err)
}

// writeScores renders MAE and RMSE of rounded predictions.
func writeScores(w io.Writer, name string, truth, predictions []float64, elapsed time.Duration) error {
	rounded := model.RoundPredictions(predictions)
	table := tablewriter.NewWriter(w)
	table.Header("Predictor", "MAE", "RMSE", "Time")
	if err := table.Append([]string{
		name,
		fmt.Sprintf("%.5f", model.MAE(truth, rounded)),
		fmt.Sprintf("%.5f", model.RMSE(truth, rounded)),
		elapsed.String(),
	}); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}
