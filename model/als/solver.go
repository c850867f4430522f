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

	"gonum.org/v1/gonum/mat"
)

// RowSolver solves the ridge-regularized normal equations
//
//	x = (A^T A + \lambda I)^{-1} A^T b
//
// for one row of a factor matrix. A RowSolver owns its scratch space and
// must not be shared between goroutines.
type RowSolver struct {
	nFactors int
	gram     *mat.SymDense
	rhs      *mat.VecDense
	x        *mat.VecDense
	chol     mat.Cholesky
}

func NewRowSolver(nFactors int) *RowSolver {
	return &RowSolver{
		nFactors: nFactors,
		gram:     mat.NewSymDense(nFactors, nil),
		rhs:      mat.NewVecDense(nFactors, nil),
		x:        mat.NewVecDense(nFactors, nil),
	}
}

// Solve writes the solution into dst (length k) for an m x k matrix a and a
// length-m vector b. An empty b means no observations and a is not
// inspected. It returns false and leaves dst untouched when the
// system is degenerate: no observations (m = 0), an unregularized
// underdetermined system (lambda = 0, m < k), or a normal matrix that is not
// numerically positive definite.
func (s *RowSolver) Solve(a mat.Matrix, b []float64, lambda float64, dst []float64) bool {
	if len(dst) != s.nFactors {
		panic(fmt.Sprintf("als: solver of %d factors got %d outputs", s.nFactors, len(dst)))
	}
	if len(b) == 0 {
		return false
	}
	m, k := a.Dims()
	if k != s.nFactors {
		panic(fmt.Sprintf("als: solver of %d factors got %d columns", s.nFactors, k))
	}
	if len(b) != m {
		panic(mat.ErrShape)
	}
	if lambda == 0 && m < k {
		return false
	}
	// A^T A + \lambda I
	s.gram.SymOuterK(1, a.T())
	for i := 0; i < k; i++ {
		s.gram.SetSym(i, i, s.gram.At(i, i)+lambda)
	}
	// A^T b
	s.rhs.MulVec(a.T(), mat.NewVecDense(m, b))
	if ok := s.chol.Factorize(s.gram); !ok {
		return false
	}
	if err := s.chol.SolveVecTo(s.x, s.rhs); err != nil {
		return false
	}
	copy(dst, s.x.RawVector().Data)
	return true
}
