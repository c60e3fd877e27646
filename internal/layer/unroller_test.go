package layer

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

func identityHead(t *testing.T, n int) *Dense {
	t.Helper()
	w := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		w.Set(i, i, 1)
	}
	head, err := NewDenseFromParams(w, mat.NewVecDense(n, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	return head
}

func scalarModel(t *testing.T, kind Kind, hidden int, seed uint64) (*Kernel, *Dense) {
	t.Helper()
	k, err := NewKernel(kind, 1, hidden, seed)
	if err != nil {
		t.Fatal(err)
	}
	head, err := NewDense(hidden, 1, nil, seed)
	if err != nil {
		t.Fatal(err)
	}
	return k, head
}

func TestUnrollHandScenario(t *testing.T) {
	k := handKernel(t)
	head := identityHead(t, 2)

	outputs, final, err := Unroll(k, head, [][]float64{{1.0}, {0.0}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 2 {
		t.Fatalf("len(outputs) = %d, expected 2", len(outputs))
	}

	expected := [][]float64{{0.7616, 0.7616}, {0, 0}}
	for step := range expected {
		for i := range expected[step] {
			if math.Abs(outputs[step][i]-expected[step][i]) > 1e-4 {
				t.Errorf("outputs[%d][%d] = %v, expected %v", step, i, outputs[step][i], expected[step][i])
			}
		}
	}
	if math.Abs(outputs[0][0]-math.Tanh(1)) > 1e-6 {
		t.Errorf("outputs[0][0] = %v, expected tanh(1) within 1e-6", outputs[0][0])
	}
	for i, v := range final.H {
		if math.Abs(v) > 1e-6 {
			t.Errorf("final.H[%d] = %v, expected 0", i, v)
		}
	}
}

func TestUnrollTraceLength(t *testing.T) {
	seq := [][]float64{{0.1}, {0.2}, {0.3}, {0.4}, {0.5}}

	for _, kind := range []Kind{KindSimple, KindLSTM} {
		k, head := scalarModel(t, kind, 4, 11)
		for _, future := range []int{0, 1, 3, 10} {
			outputs, _, err := Unroll(k, head, seq, future)
			if err != nil {
				t.Fatalf("%v future=%d: %v", kind, future, err)
			}
			if len(outputs) != len(seq)+future {
				t.Errorf("%v future=%d: len = %d, expected %d", kind, future, len(outputs), len(seq)+future)
			}
		}
	}
}

func TestUnrollLookAheadIsClosedLoop(t *testing.T) {
	seq := [][]float64{{0.3}, {-0.1}, {0.8}, {0.2}}
	const future = 5

	for _, kind := range []Kind{KindSimple, KindLSTM} {
		k, head := scalarModel(t, kind, 3, 21)
		outputs, final, err := Unroll(k, head, seq, future)
		if err != nil {
			t.Fatal(err)
		}

		// Replay by hand: real rows first, then each previous output.
		state := k.ZeroState()
		for step := 0; step < len(outputs); step++ {
			var x []float64
			if step < len(seq) {
				x = seq[step]
			} else {
				x = outputs[step-1]
			}
			state, err = k.Step(x, state)
			if err != nil {
				t.Fatal(err)
			}
			y, err := head.Apply(state.H)
			if err != nil {
				t.Fatal(err)
			}
			if y[0] != outputs[step][0] {
				t.Errorf("%v step %d: replay %v != trace %v", kind, step, y[0], outputs[step][0])
			}
		}
		for i := range final.H {
			if final.H[i] != state.H[i] {
				t.Errorf("%v final.H[%d] = %v, replay %v", kind, i, final.H[i], state.H[i])
			}
		}
	}
}

func TestUnrollDeterministic(t *testing.T) {
	k, head := scalarModel(t, KindLSTM, 6, 5)
	seq := [][]float64{{1}, {0.5}, {-0.25}, {0.125}}

	a, _, err := Unroll(k, head, seq, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := Unroll(k, head, seq, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if math.Float64bits(a[i][0]) != math.Float64bits(b[i][0]) {
			t.Errorf("step %d differs: %v vs %v", i, a[i][0], b[i][0])
		}
	}
}

func TestUnrollZeroStateStart(t *testing.T) {
	k, err := NewSimpleKernel(SimpleParams{
		Wx: mat.NewDense(1, 1, []float64{0.5}),
		Bx: mat.NewVecDense(1, []float64{0.25}),
		Ws: mat.NewDense(1, 1, []float64{100}),
		Bs: mat.NewVecDense(1, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	head := identityHead(t, 1)

	outputs, _, err := Unroll(k, head, [][]float64{{2}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	// A non-zero initial state would be amplified by Ws = 100.
	if want := math.Tanh(0.5*2 + 0.25); math.Abs(outputs[0][0]-want) > 1e-12 {
		t.Errorf("first output = %v, expected %v", outputs[0][0], want)
	}
}

func TestUnrollErrors(t *testing.T) {
	k, head := scalarModel(t, KindSimple, 2, 1)
	wide, err := NewDense(2, 3, nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		head   *Dense
		seq    [][]float64
		future int
		want   error
	}{
		{"negative future", head, [][]float64{{1}}, -1, errs.ErrInvalidInput},
		{"empty sequence with look-ahead", head, nil, 2, errs.ErrInvalidInput},
		{"bad row width", head, [][]float64{{1}, {1, 2}, {3}}, 0, errs.ErrShapeMismatch},
		{"feedback width", wide, [][]float64{{1}}, 1, errs.ErrShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputs, _, err := Unroll(k, tt.head, tt.seq, tt.future)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, expected %v", err, tt.want)
			}
			if outputs != nil {
				t.Errorf("partial trace returned: %v", outputs)
			}
		})
	}
}

func TestUnrollEmpty(t *testing.T) {
	k, head := scalarModel(t, KindLSTM, 2, 1)
	outputs, final, err := Unroll(k, head, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 0 {
		t.Errorf("len(outputs) = %d, expected 0", len(outputs))
	}
	if len(final.H) != 2 || final.H[0] != 0 {
		t.Errorf("final = %+v, expected zero state", final)
	}
}

func TestUnrollWideProjectionWithoutLookAhead(t *testing.T) {
	k, _ := scalarModel(t, KindSimple, 2, 1)
	wide, err := NewDense(2, 3, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	outputs, _, err := Unroll(k, wide, [][]float64{{1}, {2}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs[1]) != 3 {
		t.Errorf("output width = %d, expected 3", len(outputs[1]))
	}
}

func TestUnrollNumericInstability(t *testing.T) {
	k, err := NewSimpleKernel(SimpleParams{
		Wx: mat.NewDense(1, 1, []float64{1}),
		Bx: mat.NewVecDense(1, nil),
		Ws: mat.NewDense(1, 1, nil),
		Bs: mat.NewVecDense(1, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	head, err := NewDenseFromParams(mat.NewDense(1, 1, []float64{math.MaxFloat64}), mat.NewVecDense(1, []float64{math.MaxFloat64}), nil)
	if err != nil {
		t.Fatal(err)
	}

	outputs, _, err := Unroll(k, head, [][]float64{{1}}, 0)
	if !errors.Is(err, errs.ErrNumericInstability) {
		t.Errorf("err = %v, expected ErrNumericInstability", err)
	}
	if outputs != nil {
		t.Errorf("partial trace returned: %v", outputs)
	}

	nan := [][]float64{{math.NaN()}}
	if _, _, err := Unroll(k, identityHead(t, 1), nan, 0); !errors.Is(err, errs.ErrNumericInstability) {
		t.Errorf("NaN input: err = %v, expected ErrNumericInstability", err)
	}
}
