// Copyright 2021 gorse Project Authors
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
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ReadLines parse fields of each line for csv file. Quoted fields may contain
// separators and span lines; "" inside quotes is a literal quote.
func ReadLines(sc *bufio.Scanner, sep string, handler func(int, []string) bool) error {
	lineCount := 0               // line number of current position
	fields := make([]string, 0)  // fields for current line
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		// a quoted field continues from the previous line
		if quoted {
			builder.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			if string(line[i]) == sep && !quoted {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of line
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(lineCount, fields) {
				return nil
			}
			fields = []string{}
		}
		lineCount++
	}
	return sc.Err()
}

// ParseEntries reads "user item rating" lines. Empty lines are skipped.
func ParseEntries(r io.Reader, sep string) ([]Entry, error) {
	if sep == "" {
		sep = " "
	}
	var (
		entries []Entry
		err     error
	)
	sc := bufio.NewScanner(r)
	if scanErr := ReadLines(sc, sep, func(lineNumber int, fields []string) bool {
		fields = nonEmpty(fields)
		if len(fields) == 0 {
			return true
		}
		if len(fields) != 3 {
			err = errors.NotValidf("line %d with %d fields", lineNumber+1, len(fields))
			return false
		}
		var values [3]int
		for i, field := range fields {
			if values[i], err = strconv.Atoi(field); err != nil {
				err = errors.Annotatef(err, "line %d", lineNumber+1)
				return false
			}
		}
		entries = append(entries, Entry{UserId: values[0], ItemId: values[1], Rating: values[2]})
		return true
	}); scanErr != nil {
		return nil, errors.Trace(scanErr)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return entries, nil
}

// ReadEntries reads entries from a file.
func ReadEntries(path, sep string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	entries, err := ParseEntries(f, sep)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", path)
	}
	return entries, nil
}

// WriteGrid writes a dense grid as comma separated rows without header. Floats
// use the shortest representation that parses back to the same value.
func WriteGrid(w io.Writer, grid [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, row := range grid {
		for j, v := range row {
			if j > 0 {
				if err := bw.WriteByte(','); err != nil {
					return errors.Trace(err)
				}
			}
			if _, err := bw.WriteString(formatFloat(v)); err != nil {
				return errors.Trace(err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}

// ReadGrid reads a grid written by WriteGrid. Rows must have the same length.
func ReadGrid(r io.Reader) ([][]float64, error) {
	var (
		grid [][]float64
		err  error
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)
	if scanErr := ReadLines(sc, ",", func(lineNumber int, fields []string) bool {
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		if len(grid) > 0 && len(fields) != len(grid[0]) {
			err = errors.NotValidf("row %d with %d columns, expect %d", lineNumber+1, len(fields), len(grid[0]))
			return false
		}
		row := make([]float64, len(fields))
		for j, field := range fields {
			if row[j], err = strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
				err = errors.Annotatef(err, "row %d", lineNumber+1)
				return false
			}
		}
		grid = append(grid, row)
		return true
	}); scanErr != nil {
		return nil, errors.Trace(scanErr)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return grid, nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func nonEmpty(fields []string) []string {
	result := fields[:0]
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			result = append(result, field)
		}
	}
	return result
}
