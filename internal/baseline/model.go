package baseline

import (
	"fmt"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

// Model adapts a univariate snapshot (one input, one output channel) to a
// Forecaster: each prediction is the last output of an unroll over the
// whole history.
type Model struct {
	Snapshot *net.Snapshot
}

// NewModel checks that snap maps one channel to one channel.
func NewModel(snap *net.Snapshot) (*Model, error) {
	if snap == nil {
		return nil, net.ErrNoSnapshot
	}
	if snap.Kernel.InSize != 1 || snap.Head.OutSize() != 1 {
		return nil, errs.Invalid("model forecaster needs a 1-in 1-out model, got in=%d out=%d", snap.Kernel.InSize, snap.Head.OutSize())
	}
	return &Model{Snapshot: snap}, nil
}

func (m *Model) Name() string { return fmt.Sprintf("model(%s v%d)", m.Snapshot.Name, m.Snapshot.Version) }
func (m *Model) Reset()       {}

func (m *Model) Next(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, errs.Invalid("empty history")
	}
	seq := make([][]float64, len(history))
	for i, v := range history {
		seq[i] = []float64{v}
	}
	trace, err := net.Unroll(m.Snapshot, seq, 0)
	if err != nil {
		return 0, err
	}
	return trace.Outputs[len(trace.Outputs)-1][0], nil
}
