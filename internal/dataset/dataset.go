// Package dataset loads numeric time series from CSV and shapes them into
// sequences for the predictor and its training collaborator.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// Series is a multi-channel time series; Rows[t][c] is channel c at step t.
type Series struct {
	Names []string
	Rows  [][]float64
}

// Len returns the number of steps.
func (s *Series) Len() int { return len(s.Rows) }

// Width returns the number of channels.
func (s *Series) Width() int {
	if len(s.Rows) > 0 {
		return len(s.Rows[0])
	}
	return len(s.Names)
}

// Column returns channel c across every step.
func (s *Series) Column(c int) ([]float64, error) {
	if c < 0 || c >= s.Width() {
		return nil, errs.Invalid("column %d out of range [0,%d)", c, s.Width())
	}
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = row[c]
	}
	return out, nil
}

// LoadCSV loads a series from a CSV file.
// columns selects which columns to keep, in order; nil keeps all of them.
// hasHeader takes the first line as column names.
func LoadCSV(filename string, columns []int, hasHeader bool) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadCSV(file, columns, hasHeader)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, columns []int, hasHeader bool) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, errs.Invalid("csv file is empty")
	}

	numCols := len(records[0])
	if columns == nil {
		columns = make([]int, numCols)
		for i := range columns {
			columns[i] = i
		}
	}
	for _, c := range columns {
		if c < 0 || c >= numCols {
			return nil, errs.Invalid("column %d out of range, file has %d columns", c, numCols)
		}
	}

	names := make([]string, len(columns))
	startRow := 0
	if hasHeader {
		for i, c := range columns {
			names[i] = strings.TrimSpace(records[0][c])
		}
		startRow = 1
	} else {
		for i, c := range columns {
			names[i] = "col" + strconv.Itoa(c)
		}
	}

	if len(records) <= startRow {
		return nil, errs.Invalid("csv file has no data rows")
	}

	rows := make([][]float64, 0, len(records)-startRow)
	for i := startRow; i < len(records); i++ {
		record := records[i]
		row := make([]float64, len(columns))
		for j, c := range columns {
			val, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, col %d: %v", errs.ErrInvalidInput, i, c, err)
			}
			row[j] = val
		}
		rows = append(rows, row)
	}

	return &Series{Names: names, Rows: rows}, nil
}

// Split splits the series at ratio (0.0 to 1.0) into a head and a tail.
// The halves share backing storage with s.
func (s *Series) Split(ratio float64) (*Series, *Series) {
	idx := int(float64(len(s.Rows)) * ratio)
	idx = max(0, min(idx, len(s.Rows)))
	return &Series{Names: s.Names, Rows: s.Rows[:idx]},
		&Series{Names: s.Names, Rows: s.Rows[idx:]}
}

// Window is one training example: an input sequence and the one-step-ahead
// target for every position of it.
type Window struct {
	Input  [][]float64
	Target [][]float64
}

// Windows slides a lookback-long window over s with stride 1. The target
// of each window is the same window shifted one step forward, restricted
// to the channels in targets (nil means all channels).
func (s *Series) Windows(lookback int, targets []int) ([]Window, error) {
	if lookback <= 0 {
		return nil, errs.Invalid("lookback must be positive, got %d", lookback)
	}
	if len(s.Rows) < lookback+1 {
		return nil, errs.Invalid("series has %d steps, need at least %d for lookback %d", len(s.Rows), lookback+1, lookback)
	}
	for _, c := range targets {
		if c < 0 || c >= s.Width() {
			return nil, errs.Invalid("target column %d out of range", c)
		}
	}

	n := len(s.Rows) - lookback
	out := make([]Window, n)
	for i := 0; i < n; i++ {
		w := Window{
			Input:  s.Rows[i : i+lookback],
			Target: make([][]float64, lookback),
		}
		for t := 0; t < lookback; t++ {
			next := s.Rows[i+t+1]
			if targets == nil {
				w.Target[t] = next
				continue
			}
			row := make([]float64, len(targets))
			for j, c := range targets {
				row[j] = next[c]
			}
			w.Target[t] = row
		}
		out[i] = w
	}
	return out, nil
}

// ToSequence wraps a univariate slice as a width-1 sequence.
func ToSequence(values []float64) [][]float64 {
	seq := make([][]float64, len(values))
	for i, v := range values {
		seq[i] = []float64{v}
	}
	return seq
}
