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

	"github.com/gorse-io/gorse-als/base/log"
	"github.com/gorse-io/gorse-als/cmd/version"
	"github.com/gorse-io/gorse-als/config"
	"github.com/gorse-io/gorse-als/dataset"
	"github.com/gorse-io/gorse-als/recommend"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "gorse-als",
	Short: "Matrix factorization recommender trained by alternating least squares.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	SilenceUsage: true,
}

var fitCommand = &cobra.Command{
	Use:   "fit",
	Short: "Train factors and print the error of every reported epoch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := train(conf, true)
		if err != nil {
			return err
		}
		return printProgress(cmd.OutOrStdout(), p)
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Train factors and recommend unobserved items.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		global, _ := cmd.Flags().GetBool("global")
		if user == "" && !global {
			return errors.NotValidf("neither --user nor --global")
		}
		p, err := train(conf, false)
		if err != nil {
			return err
		}
		observed, err := p.observed()
		if err != nil {
			return errors.Trace(err)
		}
		r, err := recommend.NewRecommender(p.factors, observed, conf.Fit.Jobs)
		if err != nil {
			return errors.Trace(err)
		}
		if err = r.SetFilter(conf.Recommend.Filter); err != nil {
			return errors.Trace(err)
		}
		if global {
			return printGlobal(cmd.OutOrStdout(), p.data.ItemDict, r.Global(conf.Recommend.TopN))
		}
		items, scores, err := r.TopNByName(p.data.UserDict, user, conf.Recommend.TopN)
		if err != nil {
			return errors.Trace(err)
		}
		return printTopN(cmd.OutOrStdout(), p.data.ItemDict, items, scores)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print the version of gorse-als.",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
	},
}

// loadConfig loads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cmd.Flags().Changed("data") {
		conf.Data.Path, _ = cmd.Flags().GetString("data")
	}
	if cmd.Flags().Changed("jobs") {
		conf.Fit.Jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if cmd.Flags().Changed("top-n") {
		conf.Recommend.TopN, _ = cmd.Flags().GetInt("top-n")
	}
	if cmd.Flags().Changed("filter") {
		conf.Recommend.Filter, _ = cmd.Flags().GetString("filter")
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load config", zap.String("config", configPath), zap.Any("model", conf.Model))
	return conf, nil
}

func printProgress(w io.Writer, p *pipeline) error {
	table := tablewriter.NewWriter(w)
	table.Header("Epoch", "Train MSE", "Test MSE", "Elapsed")
	for _, progress := range p.progress {
		testError := "-"
		if progress.HasTestError {
			testError = fmt.Sprintf("%.6f", progress.TestError)
		}
		if err := table.Append(
			fmt.Sprint(progress.Iteration),
			fmt.Sprintf("%.6f", progress.TrainError),
			testError,
			progress.Elapsed.String(),
		); err != nil {
			return errors.Trace(err)
		}
	}
	return table.Render()
}

func printTopN(w io.Writer, items *dataset.Dict, indices []int32, scores []float64) error {
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Item", "Score")
	for i, index := range indices {
		name, err := items.String(index)
		if err != nil {
			return errors.Trace(err)
		}
		if err = table.Append(fmt.Sprint(i+1), name, fmt.Sprintf("%.6f", scores[i])); err != nil {
			return errors.Trace(err)
		}
	}
	return table.Render()
}

func printGlobal(w io.Writer, items *dataset.Dict, counts []recommend.ItemCount) error {
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Item", "Users")
	for i, count := range counts {
		name, err := items.String(count.Item)
		if err != nil {
			return errors.Trace(err)
		}
		if err = table.Append(fmt.Sprint(i+1), name, fmt.Sprint(count.Count)); err != nil {
			return errors.Trace(err)
		}
	}
	return table.Render()
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("data", "", "rating file path (overrides config)")
	rootCommand.PersistentFlags().IntP("jobs", "j", 1, "number of workers (overrides config)")
	recommendCommand.Flags().StringP("user", "u", "", "recommend for this user")
	recommendCommand.Flags().Bool("global", false, "recommend the items most users would pick first")
	recommendCommand.Flags().IntP("top-n", "n", 10, "number of recommended items (overrides config)")
	recommendCommand.Flags().String("filter", "", "boolean expression over item and score (overrides config)")
	rootCommand.AddCommand(fitCommand, recommendCommand, versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to run gorse-als", zap.Error(err))
	}
}
