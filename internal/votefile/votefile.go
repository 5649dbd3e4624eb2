// Package votefile loads vote weights from CSV exports of DAO proposals.
//
// The file needs a header row; one column (DefaultColumn unless told
// otherwise) holds a non-negative number per voter. Other columns are ignored.
package votefile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// DefaultColumn is the header of the vote column in sample exports.
const DefaultColumn = "votes"

var (
	// ErrNotFound reports a missing vote file. It also matches fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("vote file not found: %w", fs.ErrNotExist)

	// ErrColumnMissing reports a header without the requested column.
	ErrColumnMissing = errors.New("vote column missing")

	// ErrParse reports a row whose vote cell is not a number.
	ErrParse = errors.New("invalid vote cell")
)

// Load reads the named column from the CSV file at path. An empty column
// selects DefaultColumn.
func Load(path, column string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open vote file: %w", err)
	}
	defer f.Close()

	votes, err := Read(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return votes, nil
}

// Read parses CSV from r and returns the named column as floats, in row
// order. Values are not range-checked; the Gini computation rejects negative
// or non-finite votes.
func Read(r io.Reader, column string) ([]float64, error) {
	if column == "" {
		column = DefaultColumn
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %q (empty file)", ErrColumnMissing, column)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q not in header %v", ErrColumnMissing, column, header)
	}

	var votes []float64
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read votes: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if idx >= len(record) {
			return nil, fmt.Errorf("%w: line %d has %d fields, need column %d", ErrParse, line, len(record), idx+1)
		}

		cell := strings.TrimSpace(record[idx])
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrParse, line, cell)
		}
		votes = append(votes, v)
	}

	if votes == nil {
		votes = []float64{}
	}
	return votes, nil
}
