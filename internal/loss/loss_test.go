package loss

import (
	"errors"
	"math"
	"testing"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

func TestMSEForward(t *testing.T) {
	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"Perfect prediction", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"Single error", []float64{1, 2}, []float64{1.5, 2}, 0.125},
		{"Multiple errors", []float64{1, 2, 3}, []float64{0, 1, 2}, 1},
		{"Large errors", []float64{10}, []float64{0}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MSE{}.Forward(tt.yPred, tt.yTrue)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("MSE.Forward() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestForwardLengthMismatchPanics(t *testing.T) {
	for _, l := range []Loss{MSE{}, MAE{}, Huber{Delta: 1}} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("%T: expected panic for length mismatch", l)
				}
			}()
			l.Forward([]float64{1, 2}, []float64{1})
		}()
	}
}

func TestBackward(t *testing.T) {
	tests := []struct {
		name     string
		loss     Loss
		yPred    []float64
		yTrue    []float64
		expected []float64
	}{
		{"MSE", MSE{}, []float64{1, 2}, []float64{1.5, 2}, []float64{-0.5, 0}},
		{"MAE", MAE{}, []float64{1, 2, 0}, []float64{0, 3, 0}, []float64{1.0 / 3, -1.0 / 3, 0}},
		{"Huber quadratic", Huber{Delta: 1}, []float64{0.5, 0}, []float64{0, 0}, []float64{0.25, 0}},
		{"Huber linear", Huber{Delta: 1}, []float64{-3, 0}, []float64{0, 0}, []float64{-0.5, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grad := tt.loss.Backward(tt.yPred, tt.yTrue)
			if len(grad) != len(tt.expected) {
				t.Fatalf("len = %d, expected %d", len(grad), len(tt.expected))
			}
			for i := range grad {
				if math.Abs(grad[i]-tt.expected[i]) > 1e-10 {
					t.Errorf("grad[%d] = %v, expected %v", i, grad[i], tt.expected[i])
				}
			}
		})
	}
}

// TestBackwardMatchesFiniteDifference checks each gradient against a central
// difference of Forward.
func TestBackwardMatchesFiniteDifference(t *testing.T) {
	yPred := []float64{0.3, -1.7, 2.2, 0.05}
	yTrue := []float64{0.1, 0.4, -0.8, 0.0}
	const h = 1e-6

	for _, l := range []Loss{MSE{}, MAE{}, Huber{Delta: 1}} {
		grad := l.Backward(yPred, yTrue)
		for i := range yPred {
			p := append([]float64(nil), yPred...)
			p[i] += h
			up := l.Forward(p, yTrue)
			p[i] -= 2 * h
			down := l.Forward(p, yTrue)
			num := (up - down) / (2 * h)
			if math.Abs(num-grad[i]) > 1e-5 {
				t.Errorf("%T grad[%d] = %v, numerical %v", l, i, grad[i], num)
			}
		}
	}
}

func TestHuberForward(t *testing.T) {
	h := NewHuber(1)
	// 0.5*0.5^2 = 0.125 ; 1*(3-0.5) = 2.5
	got := h.Forward([]float64{0.5, 3}, []float64{0, 0})
	if want := (0.125 + 2.5) / 2; math.Abs(got-want) > 1e-10 {
		t.Errorf("Huber.Forward = %v, expected %v", got, want)
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"": "loss.MSE", "mse": "loss.MSE", "MAE": "loss.MAE", "huber": "*loss.Huber"} {
		l, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if got := typeName(l); got != want {
			t.Errorf("ByName(%q) = %s, expected %s", name, got, want)
		}
	}
	if _, err := ByName("hinge"); err == nil {
		t.Error("expected error for unknown loss")
	}
}

func typeName(l Loss) string {
	switch l.(type) {
	case MSE:
		return "loss.MSE"
	case MAE:
		return "loss.MAE"
	case *Huber:
		return "*loss.Huber"
	}
	return "?"
}

func TestMetrics(t *testing.T) {
	pred := []float64{3, 4}
	truth := []float64{4, 5}

	rmse, err := RMSE(pred, truth)
	if err != nil || math.Abs(rmse-1) > 1e-12 {
		t.Errorf("RMSE = %v, %v, expected 1", rmse, err)
	}
	mae, err := MeanAbsolute(pred, truth)
	if err != nil || math.Abs(mae-1) > 1e-12 {
		t.Errorf("MeanAbsolute = %v, %v, expected 1", mae, err)
	}
	mape, err := MAPE(pred, truth)
	if want := 100 * (0.25 + 0.2) / 2; err != nil || math.Abs(mape-want) > 1e-10 {
		t.Errorf("MAPE = %v, %v, expected %v", mape, err, want)
	}
}

func TestMAPESkipsZeroTruth(t *testing.T) {
	got, err := MAPE([]float64{1, 2}, []float64{0, 4})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-50) > 1e-10 {
		t.Errorf("MAPE = %v, expected 50", got)
	}
	got, _ = MAPE([]float64{1}, []float64{0})
	if !math.IsNaN(got) {
		t.Errorf("MAPE of all-zero truth = %v, expected NaN", got)
	}
}

func TestMetricErrors(t *testing.T) {
	if _, err := RMSE([]float64{1}, []float64{1, 2}); !errors.Is(err, errs.ErrShapeMismatch) {
		t.Errorf("RMSE err = %v, expected ErrShapeMismatch", err)
	}
	if _, err := MeanAbsolute(nil, nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("MeanAbsolute err = %v, expected ErrInvalidInput", err)
	}
	if _, err := TraceMSE([][]float64{{1, 2}}, [][]float64{{1}}); !errors.Is(err, errs.ErrShapeMismatch) {
		t.Errorf("TraceMSE err = %v, expected ErrShapeMismatch", err)
	}
}

func TestTraceMSE(t *testing.T) {
	got, err := TraceMSE([][]float64{{1, 2}, {3, 4}}, [][]float64{{1, 0}, {3, 6}})
	if err != nil {
		t.Fatal(err)
	}
	// (0 + 4 + 0 + 4) / 4
	if math.Abs(got-2) > 1e-12 {
		t.Errorf("TraceMSE = %v, expected 2", got)
	}
}
