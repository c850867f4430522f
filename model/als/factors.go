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
	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Factors is a trained factorization X ~ U V^T. It does not reference the
// rating matrices it was trained on.
type Factors struct {
	UserFactor *mat.Dense // p_u
	ItemFactor *mat.Dense // q_i
	// Rows that had at least one training observation. The others keep
	// their random initial value.
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
}

func (f *Factors) NumUsers() int {
	r, _ := f.UserFactor.Dims()
	return r
}

func (f *Factors) NumItems() int {
	r, _ := f.ItemFactor.Dims()
	return r
}

func (f *Factors) NumFactors() int {
	_, c := f.UserFactor.Dims()
	return c
}

// IsUserPredictable returns false if user has no feedback and its embedding vector never be trained.
func (f *Factors) IsUserPredictable(userIndex int) bool {
	if userIndex < 0 || userIndex >= f.NumUsers() {
		return false
	}
	return f.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if item has no feedback and its embedding vector never be trained.
func (f *Factors) IsItemPredictable(itemIndex int) bool {
	if itemIndex < 0 || itemIndex >= f.NumItems() {
		return false
	}
	return f.ItemPredictable.Test(uint(itemIndex))
}

// Predict returns the estimated rating p_u^T q_i.
func (f *Factors) Predict(userIndex, itemIndex int) float64 {
	return floats.Dot(f.UserFactor.RawRowView(userIndex), f.ItemFactor.RawRowView(itemIndex))
}

// PredictRow returns the estimated ratings of a user for every item.
func (f *Factors) PredictRow(userIndex int) []float64 {
	var row mat.VecDense
	row.MulVec(f.ItemFactor, f.UserFactor.RowView(userIndex))
	return row.RawVector().Data
}

// Estimate returns the dense estimate U V^T.
func (f *Factors) Estimate() *mat.Dense {
	var x mat.Dense
	x.Mul(f.UserFactor, f.ItemFactor.T())
	return &x
}
