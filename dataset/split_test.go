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
	"testing"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSplitRatings() []Rating {
	var ratings []Rating
	for u := int32(0); u < 10; u++ {
		for i := int32(0); i <= u; i++ {
			ratings = append(ratings, Rating{User: u, Item: i, Value: float64(i + 1)})
		}
	}
	return ratings
}

func TestSplit(t *testing.T) {
	ratings := newSplitRatings()
	train, test, err := Split(ratings, 0.3, 0)
	require.NoError(t, err)
	assert.Equal(t, len(ratings), len(train)+len(test))

	// every user keeps at least one train rating
	trainUsers := lo.Uniq(lo.Map(train, func(r Rating, _ int) int32 { return r.User }))
	assert.Len(t, trainUsers, 10)
	// user u has u+1 ratings, floor(0.3*(u+1)) of them held out
	for u := int32(0); u < 10; u++ {
		held := lo.CountBy(test, func(r Rating) bool { return r.User == u })
		assert.Equal(t, min(int(0.3*float64(u+1)), int(u)), held)
	}
	// no overlap
	trainKeys := lo.Map(train, func(r Rating, _ int) [2]int32 { return [2]int32{r.User, r.Item} })
	for _, r := range test {
		assert.NotContains(t, trainKeys, [2]int32{r.User, r.Item})
	}

	// deterministic given a seed
	train2, test2, err := Split(ratings, 0.3, 0)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestSplitInvalid(t *testing.T) {
	_, _, err := Split(newSplitRatings(), 1, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = Split(newSplitRatings(), -0.1, 0)
	assert.True(t, errors.Is(err, errors.NotValid))

	train, test, err := Split(newSplitRatings(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, test)
	assert.Len(t, train, 55)
}
