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
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorse-io/knn/cmd/version"
	"github.com/gorse-io/knn/common/log"
	"github.com/gorse-io/knn/config"
	"github.com/gorse-io/knn/dataset"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "gorse-knn",
	Short: "Neighborhood collaborative filtering on rating files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of gorse-knn",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().IntP("jobs", "j", 0, "number of workers computing similarities (overrides config)")
	rootCommand.AddCommand(versionCommand)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// loadSettings loads the configuration named by flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cmd.Flags().Changed("jobs") {
		conf.Runtime.Jobs, _ = cmd.Flags().GetInt("jobs")
		if err = conf.Validate(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	settings := config.NewSettings()
	settings.Config = conf
	return settings, nil
}

// dataSet is the ratings and questions of one run.
type dataSet struct {
	train     *dataset.UserItemRatings
	active    *dataset.UserItemRatings
	questions *dataset.Questions
}

// loadDataSet aggregates rating files. Questions carry ground truth unless a
// test file of unanswered questions is configured and evaluation isn't required.
func loadDataSet(s *config.Settings, requireTruth bool) (*dataSet, error) {
	train, test, err := s.LoadEntries()
	if err != nil {
		return nil, errors.Trace(err)
	}
	var d dataSet
	if s.Config.Data.Test == "" || requireTruth {
		d.train, d.active, d.questions, err = dataset.AggregateCrossValidation(train, test)
	} else {
		d.train, d.active, d.questions, err = dataset.AggregateAll(train, test)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset",
		zap.Int("n_train_users", d.train.CountUsers()),
		zap.Int("n_items", d.train.CountItems()),
		zap.Int("n_active_users", d.active.CountUsers()),
		zap.Int("n_questions", d.questions.Len()),
		zap.Bool("has_answers", d.questions.HasAnswers()))
	return &d, nil
}

func fatal(msg string, err error) {
	log.Logger().Fatal(msg, zap.Error(err))
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return f, func() { _ = f.Close() }, nil
}
