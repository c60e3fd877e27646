package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

func TestLoadCSV(t *testing.T) {
	tmpDir := t.TempDir()
	csvFile := filepath.Join(tmpDir, "series.csv")
	content := "t,load,temp\n0,1.0,10\n1,2.0,11\n2,3.0,12\n"
	if err := os.WriteFile(csvFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadCSV(csvFile, []int{2, 1}, true)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if s.Len() != 3 || s.Width() != 2 {
		t.Fatalf("shape = %dx%d, expected 3x2", s.Len(), s.Width())
	}
	if s.Names[0] != "temp" || s.Names[1] != "load" {
		t.Errorf("Names = %v", s.Names)
	}
	if s.Rows[2][0] != 12 || s.Rows[2][1] != 3 {
		t.Errorf("Rows[2] = %v, expected [12 3]", s.Rows[2])
	}

	col, err := s.Column(1)
	if err != nil {
		t.Fatal(err)
	}
	if col[0] != 1 || col[2] != 3 {
		t.Errorf("Column(1) = %v", col)
	}
}

func TestReadCSVNoHeader(t *testing.T) {
	s, err := ReadCSV(strings.NewReader("1,2\n3,4\n"), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if s.Names[1] != "col1" || s.Rows[1][1] != 4 {
		t.Errorf("series = %+v", s)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		columns []int
		header  bool
	}{
		{"empty", "", nil, false},
		{"header only", "a,b\n", nil, true},
		{"not a number", "1,x\n", nil, false},
		{"column out of range", "1,2\n", []int{5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.content), tt.columns, tt.header); !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("err = %v, expected ErrInvalidInput", err)
			}
		})
	}

	if _, err := ReadCSV(strings.NewReader("1,2\n3\n"), nil, false); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil, false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSplit(t *testing.T) {
	s := &Series{Rows: [][]float64{{1}, {2}, {3}, {4}, {5}}}
	head, tail := s.Split(0.8)
	if head.Len() != 4 || tail.Len() != 1 {
		t.Errorf("Split(0.8) = %d/%d, expected 4/1", head.Len(), tail.Len())
	}
	head, tail = s.Split(1.5)
	if head.Len() != 5 || tail.Len() != 0 {
		t.Errorf("Split(1.5) = %d/%d, expected 5/0", head.Len(), tail.Len())
	}
	head, _ = s.Split(-1)
	if head.Len() != 0 {
		t.Errorf("Split(-1) head = %d, expected 0", head.Len())
	}
}

func TestWindows(t *testing.T) {
	s := &Series{Rows: [][]float64{{1, 10}, {2, 20}, {3, 30}, {4, 40}}}

	ws, err := s.Windows(2, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 2 {
		t.Fatalf("len = %d, expected 2", len(ws))
	}
	if ws[1].Input[0][0] != 2 || ws[1].Input[1][0] != 3 {
		t.Errorf("ws[1].Input = %v", ws[1].Input)
	}
	if ws[1].Target[0][0] != 30 || ws[1].Target[1][0] != 40 {
		t.Errorf("ws[1].Target = %v, expected [[30] [40]]", ws[1].Target)
	}

	if _, err := s.Windows(4, nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("too long lookback err = %v", err)
	}
	if _, err := s.Windows(0, nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("zero lookback err = %v", err)
	}
}

func TestScaler(t *testing.T) {
	rows := [][]float64{{0, 5}, {10, 5}, {5, 5}}
	sc, err := Fit(rows)
	if err != nil {
		t.Fatal(err)
	}

	norm, err := sc.Transform(rows)
	if err != nil {
		t.Fatal(err)
	}
	expected := [][]float64{{0, 0}, {1, 0}, {0.5, 0}}
	for i := range expected {
		for c := range expected[i] {
			if math.Abs(norm[i][c]-expected[i][c]) > 1e-12 {
				t.Errorf("norm[%d][%d] = %v, expected %v", i, c, norm[i][c], expected[i][c])
			}
		}
	}

	back, err := sc.Inverse(norm)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rows {
		for c := range rows[i] {
			if math.Abs(back[i][c]-rows[i][c]) > 1e-12 {
				t.Errorf("back[%d][%d] = %v, expected %v", i, c, back[i][c], rows[i][c])
			}
		}
	}

	if _, err := sc.Transform([][]float64{{1}}); !errors.Is(err, errs.ErrShapeMismatch) {
		t.Errorf("err = %v, expected ErrShapeMismatch", err)
	}
	if _, err := Fit(nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Fit(nil) err = %v", err)
	}
}

func TestToSequence(t *testing.T) {
	seq := ToSequence([]float64{1, 2})
	if len(seq) != 2 || len(seq[1]) != 1 || seq[1][0] != 2 {
		t.Errorf("ToSequence = %v", seq)
	}
}
