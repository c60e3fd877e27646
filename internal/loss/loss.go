// Package loss provides training losses and forecast error metrics.
package loss

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Loss is a loss function with derivative.
//
// Forward and Backward panic when yPred and yTrue differ in length; callers
// that handle untrusted input use the error-returning metrics instead.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// Backward computes the gradient of the loss w.r.t. prediction.
	Backward(yPred, yTrue []float64) []float64
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (MSE) Forward(yPred, yTrue []float64) float64 {
	mustMatch("MSE", yPred, yTrue)
	if len(yPred) == 0 {
		return 0
	}
	d := floats.Distance(yPred, yTrue, 2)
	return d * d / float64(len(yPred))
}

// Backward computes gradient: dL/dy_pred = (2/n) * (y_pred - y_true)
func (MSE) Backward(yPred, yTrue []float64) []float64 {
	mustMatch("MSE", yPred, yTrue)
	grad := make([]float64, len(yPred))
	floats.SubTo(grad, yPred, yTrue)
	floats.Scale(2.0/float64(len(yPred)), grad)
	return grad
}

// MAE (Mean Absolute Error) loss.
type MAE struct{}

// Forward computes mean absolute error: (1/n) * sum(|y_pred - y_true|)
func (MAE) Forward(yPred, yTrue []float64) float64 {
	mustMatch("MAE", yPred, yTrue)
	if len(yPred) == 0 {
		return 0
	}
	return floats.Distance(yPred, yTrue, 1) / float64(len(yPred))
}

// Backward computes dL/dy_pred = (1/n) * sign(y_pred - y_true)
func (MAE) Backward(yPred, yTrue []float64) []float64 {
	mustMatch("MAE", yPred, yTrue)
	grad := make([]float64, len(yPred))
	factor := 1.0 / float64(len(yPred))
	for i := range yPred {
		diff := yPred[i] - yTrue[i]
		if diff > 0 {
			grad[i] = factor
		} else if diff < 0 {
			grad[i] = -factor
		}
	}
	return grad
}

// Huber loss for robust regression.
type Huber struct {
	Delta float64 // Threshold for quadratic/linear transition
}

// NewHuber creates a Huber loss with the given delta.
func NewHuber(delta float64) *Huber {
	return &Huber{Delta: delta}
}

// Forward computes Huber loss.
func (h Huber) Forward(yPred, yTrue []float64) float64 {
	mustMatch("Huber", yPred, yTrue)
	if len(yPred) == 0 {
		return 0
	}
	var sum float64
	for i := range yPred {
		diff := math.Abs(yPred[i] - yTrue[i])
		if diff <= h.Delta {
			sum += 0.5 * diff * diff
		} else {
			sum += h.Delta * (diff - 0.5*h.Delta)
		}
	}
	return sum / float64(len(yPred))
}

// Backward computes gradient for Huber loss.
func (h Huber) Backward(yPred, yTrue []float64) []float64 {
	mustMatch("Huber", yPred, yTrue)
	grad := make([]float64, len(yPred))
	n := float64(len(yPred))
	for i := range yPred {
		diff := yPred[i] - yTrue[i]
		if math.Abs(diff) <= h.Delta {
			grad[i] = diff / n
		} else {
			grad[i] = h.Delta * math.Copysign(1, diff) / n
		}
	}
	return grad
}

// ByName returns the loss called name ("mse", "mae" or "huber").
// Huber uses a delta of 1.
func ByName(name string) (Loss, error) {
	switch strings.ToLower(name) {
	case "", "mse":
		return MSE{}, nil
	case "mae", "l1":
		return MAE{}, nil
	case "huber":
		return NewHuber(1.0), nil
	default:
		return nil, fmt.Errorf("unknown loss %q", name)
	}
}

func mustMatch(name string, yPred, yTrue []float64) {
	if len(yPred) != len(yTrue) {
		panic(name + ": prediction and target must have same length")
	}
}
