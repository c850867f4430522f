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

package als

import (
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/gorse-als/base/log"
	"github.com/gorse-io/gorse-als/common/parallel"
	"github.com/gorse-io/gorse-als/dataset"
	"github.com/gorse-io/gorse-als/model"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Progress is reported after an epoch when the epoch is a multiple of
// FitConfig.Verbose and after the last epoch.
type Progress struct {
	Elapsed      time.Duration
	Iteration    int
	TrainError   float64
	TestError    float64
	HasTestError bool
}

type FitConfig struct {
	Jobs     int
	Verbose  int
	Callback func(Progress) `json:"-"`
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) SetCallback(callback func(Progress)) *FitConfig {
	config.Callback = callback
	return config
}

// ALS factorizes explicit ratings by alternating least squares [1]. Each
// epoch first solves every user factor against the current item factors,
// then every item factor against the just updated user factors:
//
//	p_u = (Q_u^T Q_u + \lambda I)^{-1} Q_u^T r_u
//	q_i = (P_i^T P_i + \lambda I)^{-1} P_i^T r_i
//
// where Q_u holds the factors of items rated by u and r_u those ratings.
// Only observed entries take part in a solve.
//
// Hyper-parameters:
//
//	NFactors    - The number of latent factors. Default is 16.
//	NEpochs     - The number of training epochs. Default is 50.
//	Reg         - The strength of regularization. Default is 0.06.
//	InitMean    - The mean of initial latent factors. Default is 0.
//	InitStdDev  - The standard deviation of initial latent factors. Default is 0.1.
//	RandomState - The seed of initial latent factors. Default is 0.
//
// [1] Zhou, Yunhong, et al. "Large-scale parallel collaborative filtering for
// the netflix prize." AAIM 2008.
type ALS struct {
	model.BaseModel
	// Hyper parameters
	nFactors   int
	nEpochs    int
	reg        float64
	initMean   float64
	initStdDev float64
}

// NewALS creates an ALS model.
func NewALS(params model.Params) *ALS {
	als := new(ALS)
	als.SetParams(params)
	return als
}

// SetParams sets hyper-parameters for the ALS model.
func (als *ALS) SetParams(params model.Params) {
	als.BaseModel.SetParams(params)
	als.nFactors = als.Params.GetInt(model.NFactors, 16)
	als.nEpochs = als.Params.GetInt(model.NEpochs, 50)
	als.reg = als.Params.GetFloat64(model.Reg, 0.06)
	als.initMean = als.Params.GetFloat64(model.InitMean, 0)
	als.initStdDev = als.Params.GetFloat64(model.InitStdDev, 0.1)
}

func (als *ALS) validate(trainSet, testSet *dataset.RatingMatrix) error {
	switch {
	case als.nFactors <= 0:
		return errors.NotValidf("number of factors %d", als.nFactors)
	case als.nEpochs < 0:
		return errors.NotValidf("number of epochs %d", als.nEpochs)
	case als.reg < 0:
		return errors.NotValidf("regularization %v", als.reg)
	case als.initStdDev < 0:
		return errors.NotValidf("initial standard deviation %v", als.initStdDev)
	case trainSet == nil:
		return errors.NotValidf("nil train set")
	case trainSet.NumUsers() == 0 || trainSet.NumItems() == 0:
		return errors.NotValidf("empty %dx%d train set", trainSet.NumUsers(), trainSet.NumItems())
	case trainSet.Count() == 0:
		return errors.NotValidf("train set without ratings")
	}
	if testSet != nil && (testSet.NumUsers() != trainSet.NumUsers() || testSet.NumItems() != trainSet.NumItems()) {
		return errors.NotValidf("%dx%d test set for %dx%d train set",
			testSet.NumUsers(), testSet.NumItems(), trainSet.NumUsers(), trainSet.NumItems())
	}
	return nil
}

// Init draws the initial factors, user factors first, from the seeded
// generator.
func (als *ALS) Init(trainSet *dataset.RatingMatrix) *Factors {
	rng := als.GetRandomGenerator()
	factors := &Factors{
		UserFactor:      rng.NormalMatrix(trainSet.NumUsers(), als.nFactors, als.initMean, als.initStdDev),
		ItemFactor:      rng.NormalMatrix(trainSet.NumItems(), als.nFactors, als.initMean, als.initStdDev),
		UserPredictable: bitset.New(uint(trainSet.NumUsers())),
		ItemPredictable: bitset.New(uint(trainSet.NumItems())),
	}
	for userIndex := 0; userIndex < trainSet.NumUsers(); userIndex++ {
		if items, _ := trainSet.UserRow(userIndex); len(items) > 0 {
			factors.UserPredictable.Set(uint(userIndex))
		}
	}
	for itemIndex := 0; itemIndex < trainSet.NumItems(); itemIndex++ {
		if users, _ := trainSet.ItemColumn(itemIndex); len(users) > 0 {
			factors.ItemPredictable.Set(uint(itemIndex))
		}
	}
	return factors
}

// Fit trains factors on trainSet. testSet may be nil or empty, in which case
// no test error is reported. Invalid hyper-parameters or data are rejected
// before any work is done; otherwise every epoch runs.
func (als *ALS) Fit(trainSet, testSet *dataset.RatingMatrix, config *FitConfig) (*Factors, error) {
	if config == nil {
		config = NewFitConfig()
	}
	if err := als.validate(trainSet, testSet); err != nil {
		return nil, errors.Trace(err)
	}
	testSize := 0
	if testSet != nil {
		testSize = testSet.Count()
	}
	log.Logger().Info("fit als",
		zap.Int("n_users", trainSet.NumUsers()),
		zap.Int("n_items", trainSet.NumItems()),
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSize),
		zap.Any("params", als.GetParams()),
		zap.Int("jobs", config.Jobs),
		zap.Int("verbose", config.Verbose))
	factors := als.Init(trainSet)
	log.Logger().Debug("cold start rows keep initial factors",
		zap.Uint("n_cold_users", uint(trainSet.NumUsers())-factors.UserPredictable.Count()),
		zap.Uint("n_cold_items", uint(trainSet.NumItems())-factors.ItemPredictable.Count()))

	jobs := max(config.Jobs, 1)
	workers := make([]*worker, jobs)
	for i := range workers {
		workers[i] = newWorker(als.nFactors)
	}
	start := time.Now()
	for ep := 1; ep <= als.nEpochs; ep++ {
		fitStart := time.Now()
		// Update user factors against fixed item factors
		degenerateUsers := als.update(trainSet.NumUsers(), trainSet.UserRow, factors.ItemFactor, factors.UserFactor, workers)
		// Update item factors against the new user factors
		degenerateItems := als.update(trainSet.NumItems(), trainSet.ItemColumn, factors.UserFactor, factors.ItemFactor, workers)
		fitTime := time.Since(fitStart)
		if degenerateUsers+degenerateItems > 0 {
			log.Logger().Debug("skip degenerate least squares",
				zap.Int("epoch", ep),
				zap.Int("n_users", degenerateUsers),
				zap.Int("n_items", degenerateItems))
		}
		// Evaluate
		if config.Verbose > 0 && (ep%config.Verbose == 0 || ep == als.nEpochs) {
			evalStart := time.Now()
			progress := Progress{Iteration: ep}
			var err error
			if progress.TrainError, err = MSE(trainSet, factors); err != nil {
				return nil, errors.Trace(err)
			}
			if testSize > 0 {
				if progress.TestError, err = MSE(testSet, factors); err != nil {
					return nil, errors.Trace(err)
				}
				progress.HasTestError = true
			}
			progress.Elapsed = time.Since(start)
			log.Logger().Info(fmt.Sprintf("fit als %v/%v", ep, als.nEpochs),
				zap.String("fit_time", fitTime.String()),
				zap.String("eval_time", time.Since(evalStart).String()),
				zap.Float64("train_mse", progress.TrainError),
				zap.Float64("test_mse", progress.TestError))
			if config.Callback != nil {
				config.Callback(progress)
			}
		}
	}
	log.Logger().Info("fit als complete", zap.String("fit_time", time.Since(start).String()))
	return factors, nil
}

// update solves every row of target against the fixed factors. Rows without
// observations are skipped. It returns how many rows with observations were
// numerically degenerate and kept their previous value.
func (als *ALS) update(n int, observed func(int) ([]int32, []float64), fixed, target *mat.Dense, workers []*worker) int {
	degenerate := atomic.NewInt64(0)
	parallel.Parallel(n, len(workers), func(workerId, index int) {
		indices, values := observed(index)
		if len(indices) == 0 {
			return
		}
		if !workers[workerId].solve(indices, values, fixed, als.reg, target.RawRowView(index)) {
			degenerate.Inc()
		}
	})
	return int(degenerate.Load())
}

// worker holds per-goroutine scratch space.
type worker struct {
	solver *RowSolver
	buffer []float64
}

func newWorker(nFactors int) *worker {
	return &worker{solver: NewRowSolver(nFactors)}
}

// solve gathers the fixed factors of the observed indices into A and solves
// for dst.
func (w *worker) solve(indices []int32, values []float64, fixed *mat.Dense, reg float64, dst []float64) bool {
	_, k := fixed.Dims()
	size := len(indices) * k
	if cap(w.buffer) < size {
		w.buffer = make([]float64, size)
	}
	buffer := w.buffer[:size]
	for j, index := range indices {
		copy(buffer[j*k:(j+1)*k], fixed.RawRowView(int(index)))
	}
	return w.solver.Solve(mat.NewDense(len(indices), k, buffer), values, reg, dst)
}
