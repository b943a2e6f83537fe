// Copyright 2026 shelfwise Project Authors
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

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the recommender. It enumerates every
// recognized option with its default.
type Config struct {
	Feedback FeedbackConfig `mapstructure:"feedback"`
	Scorer   ScorerConfig   `mapstructure:"scorer"`
	Ranker   RankerConfig   `mapstructure:"ranker"`
}

// FeedbackConfig configures implicit-feedback label construction.
type FeedbackConfig struct {
	// PositiveThreshold is the minimal rating treated as a positive signal.
	// Ratings strictly below it are excluded, not treated as negatives.
	PositiveThreshold int `mapstructure:"positive_threshold" validate:"min=1,max=5"`
	// NegativeRatio is the number of negatives synthesized per positive.
	NegativeRatio int `mapstructure:"negative_ratio" validate:"min=1"`
	// MaxResampleAttempts bounds retries when a drawn negative collides with
	// an observed positive or an already sampled pair.
	MaxResampleAttempts int `mapstructure:"max_resample_attempts" validate:"min=1"`
	// RandomSeed controls sampling, shuffling and the train/validation split.
	RandomSeed int64 `mapstructure:"random_seed"`
	// TopKContentTags is consumed by the upstream document builder when
	// assembling item tag soups. Recorded here as part of the configuration
	// contract; the core never reads it.
	TopKContentTags int `mapstructure:"top_k_content_tags" validate:"min=1"`
}

// ScorerConfig configures the neural scorer.
type ScorerConfig struct {
	DGMF           int     `mapstructure:"d_gmf" validate:"min=1"`
	DMLP           int     `mapstructure:"d_mlp" validate:"min=1"`
	MLPLayerWidths []int   `mapstructure:"mlp_layer_widths" validate:"min=1,dive,min=1"`
	Epochs         int     `mapstructure:"epochs" validate:"min=1"`
	BatchSize      int     `mapstructure:"batch_size" validate:"min=1"`
	Lr             float64 `mapstructure:"lr" validate:"gt=0"`
	Reg            float64 `mapstructure:"reg" validate:"min=0"`
	InitStdDev     float64 `mapstructure:"init_std_dev" validate:"gt=0"`
	FitJobs        int     `mapstructure:"fit_jobs" validate:"min=1"`
	Verbose        int     `mapstructure:"verbose" validate:"min=1"`
}

// RankerConfig configures hybrid score fusion. The weights are not required
// to sum to 1.
type RankerConfig struct {
	WeightNCF float64 `mapstructure:"weight_ncf" validate:"min=0"`
	WeightCBF float64 `mapstructure:"weight_cbf" validate:"min=0"`
	TopK      int     `mapstructure:"top_k" validate:"min=1"`
}

// LoadDefault returns the default configuration.
func LoadDefault() *Config {
	return &Config{
		Feedback: FeedbackConfig{
			PositiveThreshold:   4,
			NegativeRatio:       1,
			MaxResampleAttempts: 100,
			RandomSeed:          0,
			TopKContentTags:     3,
		},
		Scorer: ScorerConfig{
			DGMF:           8,
			DMLP:           8,
			MLPLayerWidths: []int{32, 16, 8},
			Epochs:         3,
			BatchSize:      256,
			Lr:             0.001,
			Reg:            0.0,
			InitStdDev:     0.01,
			FitJobs:        1,
			Verbose:        1,
		},
		Ranker: RankerConfig{
			WeightNCF: 0.7,
			WeightCBF: 0.3,
			TopK:      10,
		},
	}
}

func setDefault() {
	defaults := LoadDefault()
	viper.SetDefault("feedback.positive_threshold", defaults.Feedback.PositiveThreshold)
	viper.SetDefault("feedback.negative_ratio", defaults.Feedback.NegativeRatio)
	viper.SetDefault("feedback.max_resample_attempts", defaults.Feedback.MaxResampleAttempts)
	viper.SetDefault("feedback.random_seed", defaults.Feedback.RandomSeed)
	viper.SetDefault("feedback.top_k_content_tags", defaults.Feedback.TopKContentTags)
	viper.SetDefault("scorer.d_gmf", defaults.Scorer.DGMF)
	viper.SetDefault("scorer.d_mlp", defaults.Scorer.DMLP)
	viper.SetDefault("scorer.mlp_layer_widths", defaults.Scorer.MLPLayerWidths)
	viper.SetDefault("scorer.epochs", defaults.Scorer.Epochs)
	viper.SetDefault("scorer.batch_size", defaults.Scorer.BatchSize)
	viper.SetDefault("scorer.lr", defaults.Scorer.Lr)
	viper.SetDefault("scorer.reg", defaults.Scorer.Reg)
	viper.SetDefault("scorer.init_std_dev", defaults.Scorer.InitStdDev)
	viper.SetDefault("scorer.fit_jobs", defaults.Scorer.FitJobs)
	viper.SetDefault("scorer.verbose", defaults.Scorer.Verbose)
	viper.SetDefault("ranker.weight_ncf", defaults.Ranker.WeightNCF)
	viper.SetDefault("ranker.weight_cbf", defaults.Ranker.WeightCBF)
	viper.SetDefault("ranker.top_k", defaults.Ranker.TopK)
}

// Validate the configuration.
func (config *Config) Validate() error {
	validate := validator.New()
	return errors.Trace(validate.Struct(config))
}

// LoadConfig loads and validates the configuration from a file.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("shelfwise")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	config := new(Config)
	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return config, nil
}
