package opt

import (
	"math"
	"testing"
)

func TestSGDStep(t *testing.T) {
	sgd := NewSGD(0.1)

	params := []float64{1.0, 2.0, 3.0}
	gradients := []float64{0.1, 0.2, 0.3}

	updated := sgd.Step(params, gradients)

	expected := []float64{0.99, 1.98, 2.97}
	for i := range updated {
		if math.Abs(updated[i]-expected[i]) > 1e-10 {
			t.Errorf("updated[%d] = %v, expected %v", i, updated[i], expected[i])
		}
	}
	if params[0] != 1.0 {
		t.Errorf("Step modified its input: params[0] = %v", params[0])
	}
}

func TestSGDStepInPlace(t *testing.T) {
	sgd := NewSGD(0.1)

	params := []float64{1.0, 2.0, 3.0}
	sgd.StepInPlace(params, []float64{0.1, 0.2, 0.3})

	expected := []float64{0.99, 1.98, 2.97}
	for i := range params {
		if math.Abs(params[i]-expected[i]) > 1e-10 {
			t.Errorf("params[%d] = %v, expected %v", i, params[i], expected[i])
		}
	}
}

// TestAdamFirstStep checks the bias-corrected first update, which moves
// every parameter by lr against the sign of its gradient.
func TestAdamFirstStep(t *testing.T) {
	adam := NewAdam(0.01)
	params := []float64{1, -1, 0.5}
	adam.StepInPlace(params, []float64{0.3, -2, 0})

	expected := []float64{0.99, -0.99, 0.5}
	for i := range params {
		if math.Abs(params[i]-expected[i]) > 1e-6 {
			t.Errorf("params[%d] = %v, expected %v", i, params[i], expected[i])
		}
	}
}

func TestAdamKeepsMoments(t *testing.T) {
	adam := NewAdam(0.1)
	params := []float64{0}
	adam.StepInPlace(params, []float64{1})
	first := params[0]
	adam.StepInPlace(params, []float64{-1})
	second := params[0] - first

	// With momentum the reversed gradient cannot undo the first step fully.
	if math.Abs(second) >= math.Abs(first) {
		t.Errorf("second step %v not damped relative to first %v", second, first)
	}
	if adam.t != 2 {
		t.Errorf("t = %d, expected 2", adam.t)
	}

	adam.Reset()
	if adam.t != 0 || adam.m != nil {
		t.Error("Reset did not clear state")
	}
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	adam := NewAdam(0.05)
	x := []float64{3, -2}
	for i := 0; i < 2000; i++ {
		adam.StepInPlace(x, []float64{2 * x[0], 2 * x[1]})
	}
	for i, v := range x {
		if math.Abs(v) > 0.05 {
			t.Errorf("x[%d] = %v, expected ~0", i, v)
		}
	}
}

func TestByName(t *testing.T) {
	if o, err := ByName("sgd", 0.1); err != nil || o.LearningRate() != 0.1 {
		t.Errorf("ByName(sgd) = %v, %v", o, err)
	}
	if _, ok := mustByName(t, "").(*Adam); !ok {
		t.Error("default optimizer is not Adam")
	}
	if _, err := ByName("rmsprop", 0.1); err == nil {
		t.Error("expected error for unknown optimizer")
	}
	if _, err := ByName("sgd", 0); err == nil {
		t.Error("expected error for zero learning rate")
	}
}

func mustByName(t *testing.T, name string) Optimizer {
	t.Helper()
	o, err := ByName(name, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	return o
}
