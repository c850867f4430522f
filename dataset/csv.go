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
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

// Dataset is the output of ingestion: rating triples plus the lookup tables
// that translate indices back to names.
type Dataset struct {
	UserDict *Dict
	ItemDict *Dict
	Ratings  []Rating
}

func (d *Dataset) CountUsers() int {
	return d.UserDict.Count()
}

func (d *Dataset) CountItems() int {
	return d.ItemDict.Count()
}

// Matrix builds a rating matrix over every user and item seen during
// ingestion from a subset of the ratings.
func (d *Dataset) Matrix(ratings []Rating) (*RatingMatrix, error) {
	return NewRatingMatrix(d.CountUsers(), d.CountItems(), ratings)
}

type CSVOptions struct {
	Sep    rune
	Header bool
}

// LoadCSV reads "user,item,rating[,...]" records. Extra columns are ignored.
func LoadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	if opts.Sep != 0 {
		reader.Comma = opts.Sep
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	d := &Dataset{
		UserDict: NewDict(),
		ItemDict: NewDict(),
	}
	seen := mapset.NewThreadUnsafeSet[[2]int32]()
	for lineNum := 1; ; lineNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		if lineNum == 1 && opts.Header {
			continue
		}
		if len(record) < 3 {
			return nil, errors.NotValidf("line %d: expect at least 3 fields, got %d", lineNum, len(record))
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNum)
		}
		userIndex := d.UserDict.Add(strings.TrimSpace(record[0]))
		itemIndex := d.ItemDict.Add(strings.TrimSpace(record[1]))
		if !seen.Add([2]int32{userIndex, itemIndex}) {
			return nil, errors.NotValidf("line %d: duplicated rating of item %q by user %q", lineNum, record[1], record[0])
		}
		d.Ratings = append(d.Ratings, Rating{User: userIndex, Item: itemIndex, Value: value})
	}
	return d, nil
}

func LoadCSVFile(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}
