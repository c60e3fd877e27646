package loss

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

func checkPair(pred, truth []float64) error {
	if len(pred) != len(truth) {
		return errs.Shape("predictions", len(truth), len(pred))
	}
	if len(pred) == 0 {
		return errs.Invalid("no values to score")
	}
	return nil
}

// RMSE returns the root mean squared error of pred against truth.
func RMSE(pred, truth []float64) (float64, error) {
	if err := checkPair(pred, truth); err != nil {
		return 0, err
	}
	return floats.Distance(pred, truth, 2) / math.Sqrt(float64(len(pred))), nil
}

// MeanAbsolute returns the mean absolute error of pred against truth.
func MeanAbsolute(pred, truth []float64) (float64, error) {
	if err := checkPair(pred, truth); err != nil {
		return 0, err
	}
	return floats.Distance(pred, truth, 1) / float64(len(pred)), nil
}

// MAPE returns the mean absolute percentage error, in percent.
// Steps whose truth is zero are skipped; if every truth is zero the
// result is NaN.
func MAPE(pred, truth []float64) (float64, error) {
	if err := checkPair(pred, truth); err != nil {
		return 0, err
	}
	ape := make([]float64, 0, len(pred))
	for i, y := range truth {
		if y == 0 {
			continue
		}
		ape = append(ape, math.Abs((y-pred[i])/y))
	}
	if len(ape) == 0 {
		return math.NaN(), nil
	}
	return 100 * stat.Mean(ape, nil), nil
}

// TraceMSE returns the mean squared error over every channel of every step
// of a multi-channel trace.
func TraceMSE(outputs, targets [][]float64) (float64, error) {
	if len(outputs) != len(targets) {
		return 0, errs.Shape("trace steps", len(targets), len(outputs))
	}
	if len(outputs) == 0 {
		return 0, errs.Invalid("no values to score")
	}
	var sum float64
	var n int
	for t := range outputs {
		if len(outputs[t]) != len(targets[t]) {
			return 0, errs.Shape("trace channels", len(targets[t]), len(outputs[t]))
		}
		d := floats.Distance(outputs[t], targets[t], 2)
		sum += d * d
		n += len(outputs[t])
	}
	return sum / float64(n), nil
}
