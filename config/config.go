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
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/model/knn"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const EnvPrefix = "GORSE_KNN"

// Config is the configuration of an experiment.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Predict  PredictConfig  `mapstructure:"predict"`
	Tune     TuneConfig     `mapstructure:"tune"`
	Ensemble EnsembleConfig `mapstructure:"ensemble"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
}

// DataConfig is the configuration of rating files.
type DataConfig struct {
	Train     string  `mapstructure:"train" validate:"required"`
	Test      string  `mapstructure:"test"`
	Separator string  `mapstructure:"separator"`
	TestSize  float64 `mapstructure:"test_size" validate:"gte=0"`
	Seed      int64   `mapstructure:"seed"`
}

// PredictConfig is the configuration of a predictor.
type PredictConfig struct {
	Predictor string   `mapstructure:"predictor" validate:"predictor"`
	Presets   []string `mapstructure:"presets" validate:"dive,preset"`
	K         int      `mapstructure:"k" validate:"gte=0"`
	DynamicK  bool     `mapstructure:"dynamic_k"`
	Rho       float64  `mapstructure:"rho" validate:"gt=0"`
	IUF       bool     `mapstructure:"iuf"`
	FillValue float64  `mapstructure:"fill_value"`
	Output    string   `mapstructure:"output"`
}

// TuneConfig is the range of neighbor budgets to search.
type TuneConfig struct {
	KMin int `mapstructure:"k_min" validate:"gte=1"`
	KMax int `mapstructure:"k_max" validate:"gtefield=KMin"`
}

// EnsembleConfig is the configuration of ensemble weight search.
type EnsembleConfig struct {
	Trials int   `mapstructure:"trials" validate:"gt=0"`
	Seed   int64 `mapstructure:"seed"`
}

type RuntimeConfig struct {
	Jobs int `mapstructure:"jobs" validate:"gt=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Separator: " ",
			TestSize:  0.1,
		},
		Predict: PredictConfig{
			Predictor: knn.UserBased.String(),
			Presets:   []string{"cos"},
			K:         knn.SimpleCosBestK,
			Rho:       knn.DefaultCaseAmplificationRho,
		},
		Tune: TuneConfig{
			KMin: 1,
			KMax: 50,
		},
		Ensemble: EnsembleConfig{
			Trials: 100,
		},
		Runtime: RuntimeConfig{
			Jobs: 1,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.train", defaultConfig.Data.Train)
	v.SetDefault("data.test", defaultConfig.Data.Test)
	v.SetDefault("data.separator", defaultConfig.Data.Separator)
	v.SetDefault("data.test_size", defaultConfig.Data.TestSize)
	v.SetDefault("data.seed", defaultConfig.Data.Seed)
	// [predict]
	v.SetDefault("predict.predictor", defaultConfig.Predict.Predictor)
	v.SetDefault("predict.presets", defaultConfig.Predict.Presets)
	v.SetDefault("predict.k", defaultConfig.Predict.K)
	v.SetDefault("predict.dynamic_k", defaultConfig.Predict.DynamicK)
	v.SetDefault("predict.rho", defaultConfig.Predict.Rho)
	v.SetDefault("predict.iuf", defaultConfig.Predict.IUF)
	v.SetDefault("predict.fill_value", defaultConfig.Predict.FillValue)
	v.SetDefault("predict.output", defaultConfig.Predict.Output)
	// [tune]
	v.SetDefault("tune.k_min", defaultConfig.Tune.KMin)
	v.SetDefault("tune.k_max", defaultConfig.Tune.KMax)
	// [ensemble]
	v.SetDefault("ensemble.trials", defaultConfig.Ensemble.Trials)
	v.SetDefault("ensemble.seed", defaultConfig.Ensemble.Seed)
	// [runtime]
	v.SetDefault("runtime.jobs", defaultConfig.Runtime.Jobs)
}

// envName is the environment variable overriding key, e.g. GORSE_KNN_PREDICT_K.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// LoadConfig loads configuration from a TOML or YAML file. An empty path loads
// defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	// bind environment bindings
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, errors.Trace(err)
		}
	}
	// load config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	// unmarshal config file
	var conf Config
	if err := v.Unmarshal(&conf, decodeHook()); err != nil {
		return nil, errors.Trace(err)
	}
	// validate config file
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Kind parses the predictor of the predict section.
func (c *PredictConfig) Kind() (knn.Kind, error) {
	return knn.ParseKind(c.Predictor)
}

// Name identifies the predictor and its presets in reports.
func (c *PredictConfig) Name() string {
	kind, err := c.Kind()
	if err != nil {
		return c.Predictor
	}
	return strings.Join(append([]string{kind.String()}, c.Presets...), "+")
}

// KnnConfig builds the predictor configuration. Presets are merged in order,
// then case amplification with rho and IUF weights of train are applied when
// asked. K overrides the preset budget when positive.
func (c *PredictConfig) KnnConfig(train *dataset.RatingMatrix) (knn.Config, error) {
	kind, err := c.Kind()
	if err != nil {
		return knn.Config{}, errors.Trace(err)
	}
	presets := lo.Without(c.Presets, "case_amp")
	if len(presets) == 0 && kind == knn.SlopeOne {
		presets = []string{"slope_one"}
	}
	cfg, err := knn.MergePresets(presets...)
	if err != nil {
		return knn.Config{}, errors.Trace(err)
	}
	if lo.Contains(c.Presets, "case_amp") {
		cfg = knn.Compose(cfg, knn.CaseAmplificationPreset(c.Rho))
	}
	if c.IUF {
		if train == nil {
			return knn.Config{}, errors.NotValidf("iuf weights without training ratings")
		}
		cfg = knn.Merge(cfg, knn.IUFPreset(train, kind != knn.UserBased))
	}
	switch {
	case c.DynamicK:
		cfg = cfg.WithDynamicK(knn.ItemBasedDynamicK)
	case c.K > 0:
		cfg = cfg.WithK(c.K)
	}
	cfg = cfg.WithFill(c.FillValue)
	if _, err = cfg.GetSimScheme(); err != nil {
		return knn.Config{}, errors.Trace(err)
	}
	if _, err = cfg.GetPrediction(); err != nil {
		return knn.Config{}, errors.Trace(err)
	}
	if _, err = cfg.GetK(); err != nil && kind != knn.SlopeOne {
		return knn.Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// Variant builds the predictor and its configuration of the predict section.
func (c *Config) Variant(train *dataset.RatingMatrix, opts ...knn.Option) (knn.Predictor, knn.Config, error) {
	kind, err := c.Predict.Kind()
	if err != nil {
		return nil, knn.Config{}, errors.Trace(err)
	}
	cfg, err := c.Predict.KnnConfig(train)
	if err != nil {
		return nil, knn.Config{}, errors.Trace(err)
	}
	predictor, err := knn.NewPredictor(kind, append([]knn.Option{knn.WithJobs(c.Runtime.Jobs)}, opts...)...)
	if err != nil {
		return nil, knn.Config{}, errors.Trace(err)
	}
	return predictor, cfg, nil
}
