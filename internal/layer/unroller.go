package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// Unroll runs k over seq starting from the zero state and projects every
// new hidden state through head. After the last real row it continues for
// future more steps, feeding the most recent output back in as the next
// input. It returns one output per step and the final state.
//
// All shapes are checked before the first step, so a shape error never
// leaves a partial result behind.
func Unroll(k *Kernel, head *Dense, seq [][]float64, future int) ([][]float64, State, error) {
	if future < 0 {
		return nil, State{}, errs.Invalid("future must be >= 0, got %d", future)
	}
	if len(seq) == 0 && future > 0 {
		return nil, State{}, errs.Invalid("look-ahead needs at least one observed step")
	}
	if head.InSize() != k.HiddenSize {
		return nil, State{}, errs.Shape("projection input", k.HiddenSize, head.InSize())
	}
	if future > 0 && head.OutSize() != k.InSize {
		return nil, State{}, errs.Shape("look-ahead feedback (output size vs input size)", k.InSize, head.OutSize())
	}
	for t, row := range seq {
		if err := k.CheckInput(row); err != nil {
			return nil, State{}, fmt.Errorf("row %d: %w", t, err)
		}
	}

	total := len(seq) + future
	outputs := make([][]float64, 0, total)
	state := k.ZeroState()

	for t := 0; t < total; t++ {
		var x []float64
		if t < len(seq) {
			x = seq[t]
		} else {
			x = outputs[t-1]
		}

		next, err := k.Step(x, state)
		if err != nil {
			return nil, State{}, fmt.Errorf("step %d: %w", t, err)
		}
		if !next.Finite() {
			return nil, State{}, errs.Unstable(t, "non-finite recurrent state")
		}

		y, err := head.Apply(next.H)
		if err != nil {
			return nil, State{}, fmt.Errorf("step %d: %w", t, err)
		}
		if !allFinite(y) {
			return nil, State{}, errs.Unstable(t, "non-finite output")
		}

		outputs = append(outputs, y)
		state = next
	}

	return outputs, state, nil
}
