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
	"time"

	"github.com/gorse-io/gorse-als/base/log"
	"github.com/gorse-io/gorse-als/config"
	"github.com/gorse-io/gorse-als/dataset"
	"github.com/gorse-io/gorse-als/model/als"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// pipeline is a trained model together with the data it was trained on.
type pipeline struct {
	data     *dataset.Dataset
	trainSet *dataset.RatingMatrix
	testSet  *dataset.RatingMatrix
	factors  *als.Factors
	progress []als.Progress
}

// numReports is the number of epochs reported for a verbose interval.
func numReports(nEpochs, verbose int) int {
	if verbose <= 0 || nEpochs <= 0 {
		return 0
	}
	n := nEpochs / verbose
	if nEpochs%verbose != 0 {
		n++
	}
	return n
}

func train(conf *config.Config, showProgress bool) (*pipeline, error) {
	if conf.Data.Path == "" {
		return nil, errors.NotValidf("empty data path")
	}
	// load data
	start := time.Now()
	data, err := dataset.LoadCSVFile(conf.Data.Path, conf.CSVOptions())
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", conf.Data.Path)
	}
	trainRatings, testRatings, err := dataset.Split(data.Ratings, conf.Data.TestRatio, conf.Data.Seed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p := &pipeline{data: data}
	if p.trainSet, err = data.Matrix(trainRatings); err != nil {
		return nil, errors.Trace(err)
	}
	if p.testSet, err = data.Matrix(testRatings); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset",
		zap.String("path", conf.Data.Path),
		zap.Int("n_users", data.CountUsers()),
		zap.Int("n_items", data.CountItems()),
		zap.Int("n_train", p.trainSet.Count()),
		zap.Int("n_test", p.testSet.Count()),
		zap.Duration("load_time", time.Since(start)))

	// fit model
	fitConfig := conf.FitConfig()
	var bar *progressbar.ProgressBar
	if showProgress {
		if n := numReports(conf.Model.NEpochs, conf.Fit.Verbose); n > 0 {
			bar = progressbar.Default(int64(n), "fit als")
		}
	}
	fitConfig.SetCallback(func(progress als.Progress) {
		p.progress = append(p.progress, progress)
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	m := als.NewALS(conf.Params())
	if p.factors, err = m.Fit(p.trainSet, p.testSet, fitConfig); err != nil {
		return nil, errors.Trace(err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return p, nil
}

// observed returns every rating seen at ingestion.
func (p *pipeline) observed() (*dataset.RatingMatrix, error) {
	return p.trainSet.Union(p.testSet)
}
