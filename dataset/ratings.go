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
	"cmp"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// Rating is an observed (user, item, value) triple.
type Rating struct {
	User  int32
	Item  int32
	Value float64
}

// RatingMatrix is an immutable sparse numUsers x numItems matrix. An entry
// is observed iff it is stored; rows and columns are both kept compressed
// and sorted so that either direction is a slice lookup.
type RatingMatrix struct {
	numUsers   int
	numItems   int
	userItems  [][]int32
	userValues [][]float64
	itemUsers  [][]int32
	itemValues [][]float64
	count      int
}

// NewRatingMatrix builds a rating matrix from triples. Zero values are
// treated as unobserved and skipped. Out-of-range indices and duplicated
// (user, item) pairs are rejected.
func NewRatingMatrix(numUsers, numItems int, ratings []Rating) (*RatingMatrix, error) {
	if numUsers < 0 || numItems < 0 {
		return nil, errors.NotValidf("matrix shape %dx%d", numUsers, numItems)
	}
	m := &RatingMatrix{
		numUsers:   numUsers,
		numItems:   numItems,
		userItems:  make([][]int32, numUsers),
		userValues: make([][]float64, numUsers),
		itemUsers:  make([][]int32, numItems),
		itemValues: make([][]float64, numItems),
	}
	sorted := make([]Rating, 0, len(ratings))
	for _, r := range ratings {
		if r.User < 0 || int(r.User) >= numUsers || r.Item < 0 || int(r.Item) >= numItems {
			return nil, errors.NotValidf("rating (%d, %d) outside %dx%d matrix", r.User, r.Item, numUsers, numItems)
		}
		if r.Value == 0 {
			continue
		}
		sorted = append(sorted, r)
	}
	slices.SortFunc(sorted, func(a, b Rating) int {
		if c := cmp.Compare(a.User, b.User); c != 0 {
			return c
		}
		return cmp.Compare(a.Item, b.Item)
	})
	for i, r := range sorted {
		if i > 0 && sorted[i-1].User == r.User && sorted[i-1].Item == r.Item {
			return nil, errors.NotValidf("duplicated rating (%d, %d)", r.User, r.Item)
		}
		// rows arrive sorted by user then item, columns sorted by user
		m.userItems[r.User] = append(m.userItems[r.User], r.Item)
		m.userValues[r.User] = append(m.userValues[r.User], r.Value)
		m.itemUsers[r.Item] = append(m.itemUsers[r.Item], r.User)
		m.itemValues[r.Item] = append(m.itemValues[r.Item], r.Value)
	}
	m.count = len(sorted)
	return m, nil
}

func (m *RatingMatrix) NumUsers() int {
	return m.numUsers
}

func (m *RatingMatrix) NumItems() int {
	return m.numItems
}

// Count returns the number of observed entries.
func (m *RatingMatrix) Count() int {
	return m.count
}

// Shape returns (numUsers, numItems).
func (m *RatingMatrix) Shape() (int, int) {
	return m.numUsers, m.numItems
}

// UserRow returns the items observed for user u and their values, sorted by
// item. The returned slices must not be modified.
func (m *RatingMatrix) UserRow(u int) ([]int32, []float64) {
	if u < 0 || u >= m.numUsers {
		panic(fmt.Sprintf("dataset: user index %d out of range [0, %d)", u, m.numUsers))
	}
	return m.userItems[u], m.userValues[u]
}

// ItemColumn returns the users observed for item i and their values, sorted
// by user. The returned slices must not be modified.
func (m *RatingMatrix) ItemColumn(i int) ([]int32, []float64) {
	if i < 0 || i >= m.numItems {
		panic(fmt.Sprintf("dataset: item index %d out of range [0, %d)", i, m.numItems))
	}
	return m.itemUsers[i], m.itemValues[i]
}

// Get returns the value at (u, i) and whether it is observed.
func (m *RatingMatrix) Get(u, i int) (float64, bool) {
	items, values := m.UserRow(u)
	if i < 0 || i >= m.numItems {
		panic(fmt.Sprintf("dataset: item index %d out of range [0, %d)", i, m.numItems))
	}
	if pos, found := slices.BinarySearch(items, int32(i)); found {
		return values[pos], true
	}
	return 0, false
}

func (m *RatingMatrix) IsObserved(u, i int) bool {
	_, ok := m.Get(u, i)
	return ok
}

// RowMask returns a bitset of length NumItems with the items observed by u set.
func (m *RatingMatrix) RowMask(u int) *bitset.BitSet {
	items, _ := m.UserRow(u)
	mask := bitset.New(uint(m.numItems))
	for _, i := range items {
		mask.Set(uint(i))
	}
	return mask
}

// ForEach visits every observed entry in row-major order.
func (m *RatingMatrix) ForEach(f func(u, i int32, v float64)) {
	for u := range m.userItems {
		for j, i := range m.userItems[u] {
			f(int32(u), i, m.userValues[u][j])
		}
	}
}

// Ratings returns the observed entries as triples in row-major order.
func (m *RatingMatrix) Ratings() []Rating {
	ratings := make([]Rating, 0, m.count)
	m.ForEach(func(u, i int32, v float64) {
		ratings = append(ratings, Rating{User: u, Item: i, Value: v})
	})
	return ratings
}

// Union merges two matrices of the same shape. Where both observe an entry
// the value from m wins; only observation matters to exclusion masks.
func (m *RatingMatrix) Union(other *RatingMatrix) (*RatingMatrix, error) {
	if m.numUsers != other.numUsers || m.numItems != other.numItems {
		return nil, errors.NotValidf("union of %dx%d and %dx%d matrices",
			m.numUsers, m.numItems, other.numUsers, other.numItems)
	}
	ratings := m.Ratings()
	other.ForEach(func(u, i int32, v float64) {
		if !m.IsObserved(int(u), int(i)) {
			ratings = append(ratings, Rating{User: u, Item: i, Value: v})
		}
	})
	return NewRatingMatrix(m.numUsers, m.numItems, ratings)
}

// Dense returns the matrix densified, with unobserved entries as zero.
func (m *RatingMatrix) Dense() *mat.Dense {
	if m.numUsers == 0 || m.numItems == 0 {
		return &mat.Dense{}
	}
	dense := mat.NewDense(m.numUsers, m.numItems, nil)
	m.ForEach(func(u, i int32, v float64) {
		dense.Set(int(u), int(i), v)
	})
	return dense
}
