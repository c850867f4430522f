// Copyright 2024 gorse Project Authors
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

package recommend

import (
	"cmp"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/gorse-als/base/log"
	"github.com/gorse-io/gorse-als/common/heap"
	"github.com/gorse-io/gorse-als/common/parallel"
	"github.com/gorse-io/gorse-als/dataset"
	"github.com/gorse-io/gorse-als/model/als"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ItemCount is how many users have an item as their best unobserved pick.
type ItemCount struct {
	Item  int32
	Count int
}

// Recommender ranks unobserved items by the estimate U V^T. Items observed
// by a user are never recommended to that user.
type Recommender struct {
	factors    *als.Factors
	observed   *dataset.RatingMatrix
	jobs       int
	filterFunc *vm.Program
}

// NewRecommender creates a recommender. observed is the exclusion set,
// usually the union of the train and test ratings.
func NewRecommender(factors *als.Factors, observed *dataset.RatingMatrix, jobs int) (*Recommender, error) {
	if factors == nil || observed == nil {
		return nil, errors.NotValidf("nil factors or observed ratings")
	}
	if factors.NumUsers() != observed.NumUsers() || factors.NumItems() != observed.NumItems() {
		return nil, errors.NotValidf("%dx%d observed ratings for %dx%d factors",
			observed.NumUsers(), observed.NumItems(), factors.NumUsers(), factors.NumItems())
	}
	return &Recommender{
		factors:  factors,
		observed: observed,
		jobs:     max(jobs, 1),
	}, nil
}

// SetFilter restricts candidates to those for which the boolean expression
// holds. The expression sees `item` (index) and `score` (estimate). An empty
// expression removes the filter.
func (r *Recommender) SetFilter(filter string) error {
	if filter == "" {
		r.filterFunc = nil
		return nil
	}
	filterFunc, err := expr.Compile(filter, expr.Env(map[string]any{
		"item":  0,
		"score": 0.0,
	}), expr.AsBool())
	if err != nil {
		return errors.NewNotValid(err, "compile filter")
	}
	r.filterFunc = filterFunc
	return nil
}

func (r *Recommender) accept(item int, score float64) bool {
	if r.filterFunc == nil {
		return true
	}
	result, err := expr.Run(r.filterFunc, map[string]any{
		"item":  item,
		"score": score,
	})
	if err != nil {
		log.Logger().Error("evaluate filter function", zap.Error(err))
		return false
	}
	return result.(bool)
}

// Estimate returns the estimated ratings of a user for every item.
func (r *Recommender) Estimate(user int) []float64 {
	return r.factors.PredictRow(user)
}

// TopN returns up to n unobserved items for a user with their estimates,
// best first. Equal estimates are ordered by ascending item index.
func (r *Recommender) TopN(user, n int) ([]int32, []float64, error) {
	if user < 0 || user >= r.factors.NumUsers() {
		return nil, nil, errors.NotFoundf("user %d", user)
	}
	if n < 0 {
		return nil, nil, errors.NotValidf("top %d", n)
	}
	mask := r.observed.RowMask(user)
	filter := heap.NewTopKFilter[int32, float64](n)
	for item, score := range r.Estimate(user) {
		if !mask.Test(uint(item)) && r.accept(item, score) {
			filter.Push(int32(item), score)
		}
	}
	items, scores := filter.PopAllValues()
	return items, scores, nil
}

// TopNByName resolves a user name with the dictionary built at ingestion.
func (r *Recommender) TopNByName(users *dataset.Dict, name string, n int) ([]int32, []float64, error) {
	user, err := users.Id(name)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return r.TopN(int(user), n)
}

// Global picks the best unobserved item of every user and counts how often
// each item is picked. The n most picked items are returned, ties by
// ascending item index; n <= 0 returns all of them.
func (r *Recommender) Global(n int) []ItemCount {
	picks := make([]int32, r.factors.NumUsers())
	parallel.Parallel(len(picks), r.jobs, func(_, user int) {
		items, _, _ := r.TopN(user, 1)
		if len(items) == 0 {
			picks[user] = -1
			return
		}
		picks[user] = items[0]
	})
	counts := lo.CountValues(lo.Filter(picks, func(item int32, _ int) bool {
		return item >= 0
	}))
	result := lo.MapToSlice(counts, func(item int32, count int) ItemCount {
		return ItemCount{Item: item, Count: count}
	})
	slices.SortFunc(result, func(a, b ItemCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Item, b.Item)
	})
	if n > 0 && n < len(result) {
		result = result[:n]
	}
	log.Logger().Debug("global recommendation",
		zap.Int("n_users", len(picks)),
		zap.Int("n_picked", lo.Sum(lo.Values(counts))),
		zap.Int("n_items", len(result)))
	return result
}
