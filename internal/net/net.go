// Package net ties a step kernel and an output projection into versioned,
// immutable parameter snapshots and runs the unroll driver over them.
package net

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
)

// Snapshot is one immutable version of a model's parameters.
// Nothing in this package mutates a Snapshot after construction; updates
// produce a new Snapshot with a higher Version.
type Snapshot struct {
	ID        string
	Name      string
	Version   uint64
	CreatedAt time.Time

	Kernel *layer.Kernel
	Head   *layer.Dense
}

// NewSnapshot creates version 1 of a model from deep copies of kernel and head.
func NewSnapshot(name string, kernel *layer.Kernel, head *layer.Dense) (*Snapshot, error) {
	return Restore(uuid.NewString(), name, 1, time.Now().UTC(), kernel, head)
}

// Restore rebuilds a snapshot with a known identity, as read back from storage.
func Restore(id, name string, version uint64, createdAt time.Time, kernel *layer.Kernel, head *layer.Dense) (*Snapshot, error) {
	if kernel == nil || head == nil {
		return nil, errs.Invalid("snapshot needs a kernel and a head")
	}
	if head.InSize() != kernel.HiddenSize {
		return nil, errs.Shape("head input (kernel hidden size)", kernel.HiddenSize, head.InSize())
	}
	if version == 0 {
		return nil, errs.Invalid("snapshot version must be >= 1")
	}
	return &Snapshot{
		ID:        id,
		Name:      name,
		Version:   version,
		CreatedAt: createdAt,
		Kernel:    kernel.Clone(),
		Head:      head.Clone(),
	}, nil
}

// NumParams returns the number of scalar parameters of kernel and head.
func (s *Snapshot) NumParams() int {
	return s.Kernel.NumParams() + s.Head.NumParams()
}

// Params returns the kernel parameters followed by the head parameters.
func (s *Snapshot) Params() []float64 {
	params := make([]float64, 0, s.NumParams())
	params = append(params, s.Kernel.Params()...)
	return append(params, s.Head.Params()...)
}

// WithParams returns the next version of s carrying params.
func (s *Snapshot) WithParams(params []float64) (*Snapshot, error) {
	if len(params) != s.NumParams() {
		return nil, errs.Shape("snapshot params", s.NumParams(), len(params))
	}
	k := s.Kernel.Clone()
	h := s.Head.Clone()
	split := k.NumParams()
	if err := k.SetParams(params[:split]); err != nil {
		return nil, err
	}
	if err := h.SetParams(params[split:]); err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      s.Name,
		Version:   s.Version + 1,
		CreatedAt: time.Now().UTC(),
		Kernel:    k,
		Head:      h,
	}, nil
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("%s v%d (%s in=%d hidden=%d out=%d)",
		s.Name, s.Version, s.Kernel.Kind, s.Kernel.InSize, s.Kernel.HiddenSize, s.Head.OutSize())
}

// Trace is the result of one unroll.
type Trace struct {
	Outputs  [][]float64
	Final    layer.State
	Observed int // number of real input steps; the rest are look-ahead

	SnapshotID string
	Version    uint64
}

// Len returns the number of steps in the trace.
func (t *Trace) Len() int {
	return len(t.Outputs)
}

// LookAhead returns the generated steps beyond the observed input.
func (t *Trace) LookAhead() [][]float64 {
	return t.Outputs[t.Observed:]
}

// Channel returns output channel c across every step.
func (t *Trace) Channel(c int) []float64 {
	out := make([]float64, len(t.Outputs))
	for i, row := range t.Outputs {
		out[i] = row[c]
	}
	return out
}

// Unroll runs snap over seq and then future look-ahead steps.
func Unroll(snap *Snapshot, seq [][]float64, future int) (*Trace, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	outputs, final, err := layer.Unroll(snap.Kernel, snap.Head, seq, future)
	if err != nil {
		return nil, err
	}
	return &Trace{
		Outputs:    outputs,
		Final:      final,
		Observed:   len(seq),
		SnapshotID: snap.ID,
		Version:    snap.Version,
	}, nil
}

// Predictor runs unrolls against a fixed snapshot.
type Predictor struct {
	snap *Snapshot
}

// NewPredictor pins snap.
func NewPredictor(snap *Snapshot) *Predictor {
	return &Predictor{snap: snap}
}

// Snapshot returns the pinned snapshot.
func (p *Predictor) Snapshot() *Snapshot {
	return p.snap
}

// Predict unrolls one sequence.
func (p *Predictor) Predict(seq [][]float64, future int) (*Trace, error) {
	return Unroll(p.snap, seq, future)
}

// PredictBatch unrolls independent sequences in parallel.
func (p *Predictor) PredictBatch(seqs [][][]float64, future, workers int) ([]*Trace, error) {
	return UnrollBatch(p.snap, seqs, future, workers)
}
