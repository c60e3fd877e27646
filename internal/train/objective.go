package train

import (
	"math"

	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

// objective is the mean per-step loss of a model over a set of windows,
// as a function of the flattened parameter vector. It owns scratch copies
// of the kernel and head and is not safe for concurrent use.
type objective struct {
	kernel  *layer.Kernel
	head    *layer.Dense
	split   int
	windows []dataset.Window
	loss    loss.Loss
}

func newObjective(snap *net.Snapshot, windows []dataset.Window, l loss.Loss) *objective {
	k := snap.Kernel.Clone()
	return &objective{
		kernel:  k,
		head:    snap.Head.Clone(),
		split:   k.NumParams(),
		windows: windows,
		loss:    l,
	}
}

// eval returns NaN when the parameters cannot be applied or an unroll fails.
func (o *objective) eval(params []float64) float64 {
	if err := o.kernel.SetParams(params[:o.split]); err != nil {
		return math.NaN()
	}
	if err := o.head.SetParams(params[o.split:]); err != nil {
		return math.NaN()
	}

	var sum float64
	var n int
	for _, w := range o.windows {
		outputs, _, err := layer.Unroll(o.kernel, o.head, w.Input, 0)
		if err != nil {
			return math.NaN()
		}
		for t := range outputs {
			sum += o.loss.Forward(outputs[t], w.Target[t])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// checkWindows validates every window against snap so the objective never
// hits a shape error mid-gradient.
func checkWindows(snap *net.Snapshot, windows []dataset.Window) error {
	if len(windows) == 0 {
		return errs.Invalid("no training windows")
	}
	out := snap.Head.OutSize()
	for i, w := range windows {
		if len(w.Input) == 0 {
			return errs.Invalid("window %d is empty", i)
		}
		if len(w.Target) != len(w.Input) {
			return errs.Shape("window targets", len(w.Input), len(w.Target))
		}
		for t := range w.Input {
			if err := snap.Kernel.CheckInput(w.Input[t]); err != nil {
				return err
			}
			if len(w.Target[t]) != out {
				return errs.Shape("target width", out, len(w.Target[t]))
			}
		}
	}
	return nil
}

// Evaluate returns the mean per-step loss of snap over windows.
func Evaluate(snap *net.Snapshot, windows []dataset.Window, l loss.Loss) (float64, error) {
	if snap == nil {
		return 0, net.ErrNoSnapshot
	}
	if err := checkWindows(snap, windows); err != nil {
		return 0, err
	}
	if l == nil {
		l = loss.MSE{}
	}
	v := newObjective(snap, windows, l).eval(snap.Params())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errs.Unstable(0, "loss is not finite")
	}
	return v, nil
}
