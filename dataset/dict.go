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

import "github.com/juju/errors"

// Dict maps external names to dense indices and back. It is filled during
// ingestion and only read afterwards.
type Dict struct {
	si map[string]int32
	is []string
}

func NewDict() *Dict {
	return &Dict{si: map[string]int32{}}
}

func (d *Dict) Count() int {
	return len(d.is)
}

// Add returns the index of s, assigning the next free index on first sight.
func (d *Dict) Add(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	y := int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	return y
}

// Id returns the index of s or a not found error.
func (d *Dict) Id(s string) (int32, error) {
	if y, ok := d.si[s]; ok {
		return y, nil
	}
	return -1, errors.NotFoundf("name %q", s)
}

// String returns the name at index id or a not found error.
func (d *Dict) String(id int32) (string, error) {
	if id < 0 || int(id) >= len(d.is) {
		return "", errors.NotFoundf("index %d", id)
	}
	return d.is[id], nil
}
