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

package dataset

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/gorse-als/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Split holds out floor(testRatio * n) ratings of every user with n ratings,
// always leaving at least one rating of the user in the train set. The
// result only depends on the input order and the seed.
func Split(ratings []Rating, testRatio float64, seed int64) (train, test []Rating, err error) {
	if testRatio < 0 || testRatio >= 1 {
		return nil, nil, errors.NotValidf("test ratio %v", testRatio)
	}
	rng := base.NewRandomGenerator(seed)
	byUser := lo.GroupBy(ratings, func(r Rating) int32 {
		return r.User
	})
	users := lo.Keys(byUser)
	slices.Sort(users)
	for _, u := range users {
		userRatings := byUser[u]
		n := len(userRatings)
		numTest := min(int(testRatio*float64(n)), n-1)
		held := mapset.NewThreadUnsafeSet(rng.Sample(0, n, numTest)...)
		for i, r := range userRatings {
			if held.Contains(i) {
				test = append(test, r)
			} else {
				train = append(train, r)
			}
		}
	}
	return train, test, nil
}
