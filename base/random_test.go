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

package base

import (
	"math"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const randomEpsilon = 0.1

func TestRandomGenerator_NormalVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.NormalVector(1000, 1, 2)
	assert.False(t, math.Abs(stat.Mean(vec, nil)-1) > randomEpsilon)
	assert.False(t, math.Abs(stat.StdDev(vec, nil)-2) > randomEpsilon)
}

func TestRandomGenerator_NormalMatrix(t *testing.T) {
	a := NewRandomGenerator(42).NormalMatrix(10, 3, 0, 0.1)
	b := NewRandomGenerator(42).NormalMatrix(10, 3, 0, 0.1)
	r, c := a.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 3, c)
	assert.True(t, mat.Equal(a, b))

	other := NewRandomGenerator(43).NormalMatrix(10, 3, 0, 0.1)
	assert.False(t, mat.Equal(a, other))
}

func TestRandomGenerator_Sample(t *testing.T) {
	excludeSet := mapset.NewSet(0, 1, 2, 3, 4)
	rng := NewRandomGenerator(0)
	for i := 1; i <= 10; i++ {
		sampled := rng.Sample(0, 10, i, excludeSet)
		assert.LessOrEqual(t, len(sampled), 5)
		for j := range sampled {
			assert.False(t, excludeSet.Contains(sampled[j]))
		}
	}
	assert.Equal(t, []int{0, 1, 2}, rng.Sample(0, 3, 5))
}
