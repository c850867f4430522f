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
)

func TestDict(t *testing.T) {
	dict := NewDict()
	assert.Equal(t, int32(0), dict.Add("a"))
	assert.Equal(t, int32(1), dict.Add("b"))
	assert.Equal(t, int32(1), dict.Add("b"))
	assert.Equal(t, int32(2), dict.Add("c"))
	assert.Equal(t, 3, dict.Count())

	id, err := dict.Id("c")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), id)
	name, err := dict.String(1)
	assert.NoError(t, err)
	assert.Equal(t, "b", name)

	_, err = dict.Id("d")
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = dict.String(3)
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = dict.String(-1)
	assert.True(t, errors.Is(err, errors.NotFound))
}
