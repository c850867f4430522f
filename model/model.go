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

package model

import (
	"github.com/gorse-io/gorse-als/base"
)

type Model interface {
	// Set parameters.
	SetParams(params Params)
	// Get parameters.
	GetParams() Params
}

type BaseModel struct {
	Params    Params // Hyper-parameters
	randState int64  // Random seed
}

func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
}

func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns a fresh generator seeded with RandomState, so
// every fit of the same model starts from the same state.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return base.NewRandomGenerator(model.randState)
}
