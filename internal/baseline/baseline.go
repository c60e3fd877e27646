// Package baseline provides simple univariate forecasters used as a
// reference point for the recurrent predictor.
package baseline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
)

// Forecaster predicts the next value of a series from its history.
// Implementations may keep state between calls; Reset clears it.
type Forecaster interface {
	Name() string
	Reset()
	Next(history []float64) (float64, error)
}

// Naive predicts the last observed value.
type Naive struct{}

func (Naive) Name() string { return "naive" }
func (Naive) Reset()       {}

func (Naive) Next(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, errs.Invalid("empty history")
	}
	return history[len(history)-1], nil
}

// MovingAverage predicts the mean of the last Window values, or of the
// whole history when it is shorter.
type MovingAverage struct {
	Window int
}

func (m MovingAverage) Name() string { return fmt.Sprintf("moving-average(%d)", m.Window) }
func (MovingAverage) Reset()         {}

func (m MovingAverage) Next(history []float64) (float64, error) {
	if m.Window <= 0 {
		return 0, errs.Invalid("moving average window must be positive, got %d", m.Window)
	}
	if len(history) == 0 {
		return 0, errs.Invalid("empty history")
	}
	start := max(len(history)-m.Window, 0)
	return stat.Mean(history[start:], nil), nil
}

// ExpSmoothing is simple exponential smoothing. The first prediction is the
// last observed value; each later one blends the newest observation with
// the previous prediction.
type ExpSmoothing struct {
	Alpha float64

	level  float64
	primed bool
}

// NewExpSmoothing validates alpha, which must be in (0, 1].
func NewExpSmoothing(alpha float64) (*ExpSmoothing, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, errs.Invalid("smoothing alpha must be in (0, 1], got %v", alpha)
	}
	return &ExpSmoothing{Alpha: alpha}, nil
}

func (e *ExpSmoothing) Name() string { return fmt.Sprintf("exp-smoothing(%g)", e.Alpha) }

func (e *ExpSmoothing) Reset() {
	e.level, e.primed = 0, false
}

func (e *ExpSmoothing) Next(history []float64) (float64, error) {
	if !(e.Alpha > 0 && e.Alpha <= 1) {
		return 0, errs.Invalid("smoothing alpha must be in (0, 1], got %v", e.Alpha)
	}
	if len(history) == 0 {
		return 0, errs.Invalid("empty history")
	}
	last := history[len(history)-1]
	if !e.primed {
		e.level, e.primed = last, true
		return e.level, nil
	}
	e.level = e.Alpha*last + (1-e.Alpha)*e.level
	return e.level, nil
}

// WalkForward resets f and predicts each value of test in turn, revealing
// the true value to the forecaster after every prediction.
// history is not modified.
func WalkForward(f Forecaster, history, test []float64) ([]float64, error) {
	if len(history) == 0 {
		return nil, errs.Invalid("walk-forward needs a non-empty history")
	}
	f.Reset()

	seen := make([]float64, len(history), len(history)+len(test))
	copy(seen, history)

	preds := make([]float64, len(test))
	for i, truth := range test {
		p, err := f.Next(seen)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		preds[i] = p
		seen = append(seen, truth)
	}
	return preds, nil
}

// Result is the outcome of a walk-forward evaluation.
type Result struct {
	Method      string    `json:"method"`
	Predictions []float64 `json:"predictions"`
	RMSE        float64   `json:"rmse"`
	MAE         float64   `json:"mae"`
	MAPE        float64   `json:"mape"`
}

// Evaluate runs WalkForward and scores the predictions against test.
func Evaluate(f Forecaster, history, test []float64) (*Result, error) {
	if len(test) == 0 {
		return nil, errs.Invalid("evaluation needs at least one test value")
	}
	preds, err := WalkForward(f, history, test)
	if err != nil {
		return nil, err
	}
	res := &Result{Method: f.Name(), Predictions: preds}
	if res.RMSE, err = loss.RMSE(preds, test); err != nil {
		return nil, err
	}
	if res.MAE, err = loss.MeanAbsolute(preds, test); err != nil {
		return nil, err
	}
	if res.MAPE, err = loss.MAPE(preds, test); err != nil {
		return nil, err
	}
	return res, nil
}

// ByName builds a forecaster: "naive", "ma" / "moving-average", or
// "exp" / "exp-smoothing".
func ByName(name string, window int, alpha float64) (Forecaster, error) {
	switch strings.ToLower(name) {
	case "", "naive":
		return Naive{}, nil
	case "ma", "moving-average":
		if window <= 0 {
			return nil, errs.Invalid("moving average window must be positive, got %d", window)
		}
		return MovingAverage{Window: window}, nil
	case "exp", "exp-smoothing":
		return NewExpSmoothing(alpha)
	default:
		return nil, errs.Invalid("unknown baseline %q", name)
	}
}
