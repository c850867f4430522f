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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestMatrix(t *testing.T) *RatingMatrix {
	m, err := NewRatingMatrix(3, 4, []Rating{
		{User: 2, Item: 1, Value: 4},
		{User: 0, Item: 3, Value: 1},
		{User: 0, Item: 0, Value: 5},
		{User: 2, Item: 3, Value: -2},
		{User: 1, Item: 2, Value: 0}, // unobserved
	})
	require.NoError(t, err)
	return m
}

func TestRatingMatrix(t *testing.T) {
	m := newTestMatrix(t)
	assert.Equal(t, 3, m.NumUsers())
	assert.Equal(t, 4, m.NumItems())
	assert.Equal(t, 4, m.Count())

	items, values := m.UserRow(0)
	assert.Equal(t, []int32{0, 3}, items)
	assert.Equal(t, []float64{5, 1}, values)
	items, values = m.UserRow(1)
	assert.Empty(t, items)
	assert.Empty(t, values)

	users, values := m.ItemColumn(3)
	assert.Equal(t, []int32{0, 2}, users)
	assert.Equal(t, []float64{1, -2}, values)
	users, _ = m.ItemColumn(2)
	assert.Empty(t, users)

	v, ok := m.Get(2, 3)
	assert.True(t, ok)
	assert.Equal(t, -2.0, v)
	assert.False(t, m.IsObserved(1, 2))
	assert.False(t, m.IsObserved(0, 1))

	mask := m.RowMask(2)
	assert.Equal(t, uint(2), mask.Count())
	assert.True(t, mask.Test(1))
	assert.True(t, mask.Test(3))

	expected := mat.NewDense(3, 4, []float64{
		5, 0, 0, 1,
		0, 0, 0, 0,
		0, 4, 0, -2,
	})
	assert.True(t, mat.Equal(expected, m.Dense()))
	assert.Equal(t, []Rating{
		{User: 0, Item: 0, Value: 5},
		{User: 0, Item: 3, Value: 1},
		{User: 2, Item: 1, Value: 4},
		{User: 2, Item: 3, Value: -2},
	}, m.Ratings())
}

func TestRatingMatrixOutOfRange(t *testing.T) {
	m := newTestMatrix(t)
	assert.Panics(t, func() { m.UserRow(3) })
	assert.Panics(t, func() { m.UserRow(-1) })
	assert.Panics(t, func() { m.ItemColumn(4) })
	assert.Panics(t, func() { m.Get(0, 4) })
}

func TestNewRatingMatrixInvalid(t *testing.T) {
	_, err := NewRatingMatrix(2, 2, []Rating{{User: 2, Item: 0, Value: 1}})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewRatingMatrix(2, 2, []Rating{{User: 0, Item: -1, Value: 1}})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewRatingMatrix(2, 2, []Rating{
		{User: 1, Item: 1, Value: 1},
		{User: 1, Item: 1, Value: 2},
	})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewRatingMatrix(-1, 2, nil)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestRatingMatrixUnion(t *testing.T) {
	train := newTestMatrix(t)
	test, err := NewRatingMatrix(3, 4, []Rating{
		{User: 1, Item: 2, Value: 3},
		{User: 0, Item: 0, Value: 2},
	})
	require.NoError(t, err)
	all, err := train.Union(test)
	require.NoError(t, err)
	assert.Equal(t, 5, all.Count())
	v, ok := all.Get(0, 0)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	assert.True(t, all.IsObserved(1, 2))

	other, err := NewRatingMatrix(3, 5, nil)
	require.NoError(t, err)
	_, err = train.Union(other)
	assert.True(t, errors.Is(err, errors.NotValid))
}
