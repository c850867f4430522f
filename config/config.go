// Copyright 2020 gorse Project Authors
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
	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/gorse-als/dataset"
	"github.com/gorse-io/gorse-als/model"
	"github.com/gorse-io/gorse-als/model/als"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for training and recommendation.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Model     ModelConfig     `mapstructure:"model"`
	Fit       FitConfig       `mapstructure:"fit"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// DataConfig is the configuration for the rating file and the holdout.
type DataConfig struct {
	Path      string  `mapstructure:"path"`
	Sep       string  `mapstructure:"sep" validate:"len=1"`
	Header    bool    `mapstructure:"header"`
	TestRatio float64 `mapstructure:"test_ratio" validate:"gte=0,lt=1"`
	Seed      int64   `mapstructure:"seed"`
}

// ModelConfig holds the hyper-parameters of ALS.
type ModelConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gte=0"`
	Reg         float64 `mapstructure:"reg" validate:"gte=0"`
	InitMean    float64 `mapstructure:"init_mean"`
	InitStdDev  float64 `mapstructure:"init_std_dev" validate:"gte=0"`
	RandomState int64   `mapstructure:"random_state"`
}

type FitConfig struct {
	Jobs    int `mapstructure:"jobs" validate:"gt=0"`
	Verbose int `mapstructure:"verbose" validate:"gte=0"`
}

type RecommendConfig struct {
	TopN   int    `mapstructure:"top_n" validate:"gt=0"`
	Filter string `mapstructure:"filter"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Sep:       ",",
			TestRatio: 0.2,
		},
		Model: ModelConfig{
			NFactors:   16,
			NEpochs:    50,
			Reg:        0.06,
			InitStdDev: 0.1,
		},
		Fit: FitConfig{
			Jobs:    1,
			Verbose: 10,
		},
		Recommend: RecommendConfig{
			TopN: 10,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.path", defaultConfig.Data.Path)
	v.SetDefault("data.sep", defaultConfig.Data.Sep)
	v.SetDefault("data.header", defaultConfig.Data.Header)
	v.SetDefault("data.test_ratio", defaultConfig.Data.TestRatio)
	v.SetDefault("data.seed", defaultConfig.Data.Seed)
	// [model]
	v.SetDefault("model.n_factors", defaultConfig.Model.NFactors)
	v.SetDefault("model.n_epochs", defaultConfig.Model.NEpochs)
	v.SetDefault("model.reg", defaultConfig.Model.Reg)
	v.SetDefault("model.init_mean", defaultConfig.Model.InitMean)
	v.SetDefault("model.init_std_dev", defaultConfig.Model.InitStdDev)
	v.SetDefault("model.random_state", defaultConfig.Model.RandomState)
	// [fit]
	v.SetDefault("fit.jobs", defaultConfig.Fit.Jobs)
	v.SetDefault("fit.verbose", defaultConfig.Fit.Verbose)
	// [recommend]
	v.SetDefault("recommend.top_n", defaultConfig.Recommend.TopN)
	v.SetDefault("recommend.filter", defaultConfig.Recommend.Filter)
}

type environmentVariable struct {
	key string
	env string
}

var environmentVariables = []environmentVariable{
	{"data.path", "GORSE_ALS_DATA_PATH"},
	{"data.test_ratio", "GORSE_ALS_TEST_RATIO"},
	{"data.seed", "GORSE_ALS_SEED"},
	{"model.n_factors", "GORSE_ALS_N_FACTORS"},
	{"model.n_epochs", "GORSE_ALS_N_EPOCHS"},
	{"model.reg", "GORSE_ALS_REG"},
	{"model.random_state", "GORSE_ALS_RANDOM_STATE"},
	{"fit.jobs", "GORSE_ALS_JOBS"},
	{"recommend.top_n", "GORSE_ALS_TOP_N"},
}

// LoadConfig reads the TOML file at path over the defaults, then applies
// environment variables. An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, variable := range environmentVariables {
		if err := v.BindEnv(variable.key, variable.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks value ranges of every section.
func (config *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

// Params converts the model section to hyper-parameters.
func (config *Config) Params() model.Params {
	return model.Params{
		model.NFactors:    config.Model.NFactors,
		model.NEpochs:     config.Model.NEpochs,
		model.Reg:         config.Model.Reg,
		model.InitMean:    config.Model.InitMean,
		model.InitStdDev:  config.Model.InitStdDev,
		model.RandomState: config.Model.RandomState,
	}
}

func (config *Config) FitConfig() *als.FitConfig {
	return als.NewFitConfig().
		SetJobs(config.Fit.Jobs).
		SetVerbose(config.Fit.Verbose)
}

func (config *Config) CSVOptions() dataset.CSVOptions {
	return dataset.CSVOptions{
		Sep:    []rune(config.Data.Sep)[0],
		Header: config.Data.Header,
	}
}
