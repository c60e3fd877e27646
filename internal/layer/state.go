package layer

import "math"

// State is the recurrent state threaded through an unroll.
// C is only used by the LSTM kernel and is nil otherwise.
type State struct {
	H []float64
	C []float64
}

// ZeroState returns the all-zero state for a kernel of the given kind.
func ZeroState(kind Kind, hidden int) State {
	s := State{H: make([]float64, hidden)}
	if kind == KindLSTM {
		s.C = make([]float64, hidden)
	}
	return s
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{H: append([]float64(nil), s.H...)}
	if s.C != nil {
		out.C = append([]float64(nil), s.C...)
	}
	return out
}

// Finite reports whether every component of the state is a finite number.
func (s State) Finite() bool {
	return allFinite(s.H) && allFinite(s.C)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
