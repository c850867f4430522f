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
	"github.com/gorse-io/gorse-als/dataset"
	"github.com/juju/errors"
)

// MSE is the mean squared error between U V^T and x over the observed
// entries of x only.
func MSE(x *dataset.RatingMatrix, factors *Factors) (float64, error) {
	if x.NumUsers() != factors.NumUsers() || x.NumItems() != factors.NumItems() {
		return 0, errors.NotValidf("%dx%d ratings for %dx%d factors",
			x.NumUsers(), x.NumItems(), factors.NumUsers(), factors.NumItems())
	}
	if x.Count() == 0 {
		return 0, errors.NotValidf("mean squared error without observed ratings")
	}
	sum := 0.0
	x.ForEach(func(u, i int32, v float64) {
		d := factors.Predict(int(u), int(i)) - v
		sum += d * d
	})
	return sum / float64(x.Count()), nil
}
