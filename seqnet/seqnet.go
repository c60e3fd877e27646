// Package seqnet is the public entry point: build a recurrent model, unroll
// it over a sequence with look-ahead, train it and persist snapshots.
package seqnet

import (
	"context"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/baseline"
	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
	"github.com/FlavioCFOliveira/seqnet/internal/train"
)

// Re-export common types and functions for easier access
type (
	Kind        = layer.Kind
	Kernel      = layer.Kernel
	State       = layer.State
	Projection  = layer.Dense
	Snapshot    = net.Snapshot
	Trace       = net.Trace
	Registry    = net.Registry
	Window      = dataset.Window
	Series      = dataset.Series
	Forecaster  = baseline.Forecaster
	Optimizer   = opt.Optimizer
	Loss        = loss.Loss
	Store       = store.Store
	Callback    = train.Callback
	TrainResult = train.Result
)

const (
	RNN  = layer.KindSimple
	LSTM = layer.KindLSTM
)

// Activations
var (
	Linear  = activations.Linear{}
	Tanh    = activations.Tanh{}
	Sigmoid = activations.Sigmoid{}
	ReLU    = activations.ReLU{}
)

var (
	ErrNoSnapshot    = net.ErrNoSnapshot
	ErrStaleSnapshot = net.ErrStaleSnapshot
	ErrNotFound      = store.ErrNotFound
)

// NewKernel creates a seeded random kernel of the given kind.
func NewKernel(kind Kind, in, hidden int, seed uint64) (*Kernel, error) {
	return layer.NewKernel(kind, in, hidden, seed)
}

// NewProjection creates a seeded random output projection; nil act is linear.
func NewProjection(hidden, out int, act activations.Activation, seed uint64) (*Projection, error) {
	return layer.NewDense(hidden, out, act, seed)
}

// NewSnapshot creates version 1 of a model from copies of kernel and head.
func NewSnapshot(name string, kernel *Kernel, head *Projection) (*Snapshot, error) {
	return net.NewSnapshot(name, kernel, head)
}

// NewModel builds version 1 of a model with seeded random weights and a
// linear projection head.
func NewModel(name string, kind Kind, in, hidden, out int, seed uint64) (*Snapshot, error) {
	kernel, err := NewKernel(kind, in, hidden, seed)
	if err != nil {
		return nil, err
	}
	head, err := NewProjection(hidden, out, Linear, seed)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(name, kernel, head)
}

// Unroll runs snap over seq from a zero state, then feeds its own output
// back for future more steps.
func Unroll(snap *Snapshot, seq [][]float64, future int) (*Trace, error) {
	return net.Unroll(snap, seq, future)
}

// UnrollBatch unrolls independent sequences concurrently; results keep the
// order of seqs.
func UnrollBatch(snap *Snapshot, seqs [][][]float64, future, workers int) ([]*Trace, error) {
	return net.UnrollBatch(snap, seqs, future, workers)
}

func NewRegistry(initial *Snapshot) *Registry {
	return net.NewRegistry(initial)
}

// Fit trains the registry's snapshot with Adam and MSE for the given epochs.
// Use train.Trainer directly for anything more specific.
func Fit(ctx context.Context, reg *Registry, windows []Window, epochs int, lr float64, callbacks ...Callback) (*TrainResult, error) {
	t := &train.Trainer{
		Registry:  reg,
		Optimizer: opt.NewAdam(lr),
		Loss:      loss.MSE{},
		Epochs:    epochs,
		Callbacks: callbacks,
	}
	return t.Fit(ctx, windows)
}

// Univariate wraps values as a one-column series.
func Univariate(values []float64) *Series {
	return &dataset.Series{Names: []string{"value"}, Rows: dataset.ToSequence(values)}
}

// LoadCSV reads the given columns (nil for all) of a numeric CSV file.
func LoadCSV(filename string, columns []int, hasHeader bool) (*Series, error) {
	return dataset.LoadCSV(filename, columns, hasHeader)
}

// Baselines
func Naive() Forecaster { return baseline.Naive{} }

func MovingAverage(window int) Forecaster { return baseline.MovingAverage{Window: window} }

func ExpSmoothing(alpha float64) (Forecaster, error) { return baseline.NewExpSmoothing(alpha) }

// Evaluate scores f walk-forward over test, seeded with history.
func Evaluate(f Forecaster, history, test []float64) (*baseline.Result, error) {
	return baseline.Evaluate(f, history, test)
}

// Persistence
func Save(path string, snap *Snapshot) error { return store.SaveFile(path, snap) }

func Load(path string) (*Snapshot, error) { return store.LoadFile(path) }

// OpenStore opens and initializes a snapshot store ("memory", "sqlite" or "file").
func OpenStore(ctx context.Context, kind, path string) (Store, error) {
	st, err := store.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}
