package opt

import (
	"math"
	"testing"
)

func TestStepLR(t *testing.T) {
	o := NewSGD(1.0)
	s := NewStepLR(o, 2, 0.5)

	expected := []float64{1.0, 0.5, 0.5, 0.25}
	for epoch, want := range expected {
		s.Step()
		if math.Abs(s.GetLR()-want) > 1e-12 {
			t.Errorf("epoch %d: lr = %v, expected %v", epoch, s.GetLR(), want)
		}
	}
}

func TestExponentialLR(t *testing.T) {
	o := NewAdam(0.1)
	s := NewExponentialLR(o, 0.9)
	s.Step()
	s.Step()
	if want := 0.1 * 0.81; math.Abs(o.LearningRate()-want) > 1e-12 {
		t.Errorf("lr = %v, expected %v", o.LearningRate(), want)
	}
}

func TestReduceLROnPlateau(t *testing.T) {
	o := NewSGD(1.0)
	s := NewReduceLROnPlateau(o, 0.5, 2, 0, 0.2)

	for _, l := range []float64{1.0, 0.9, 0.95, 0.95} {
		s.StepWithLoss(l)
	}
	if o.LR != 0.5 {
		t.Errorf("lr = %v, expected 0.5 after two bad epochs", o.LR)
	}
	for i := 0; i < 6; i++ {
		s.StepWithLoss(1.0)
	}
	if o.LR != 0.2 {
		t.Errorf("lr = %v, expected floor 0.2", o.LR)
	}
}

func TestNewScheduler(t *testing.T) {
	o := NewSGD(1)
	if NewScheduler("", o, 1, 0.5) != nil {
		t.Error("empty name should yield no scheduler")
	}
	for _, name := range []string{"step", "exp", "plateau"} {
		if NewScheduler(name, o, 1, 0.5) == nil {
			t.Errorf("NewScheduler(%q) = nil", name)
		}
	}
}
