// Package train fits model parameters outside the prediction path and
// publishes each improved version through the registry.
package train

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// Trainer runs full-batch gradient descent with central-difference
// gradients. It is meant for small models; every epoch costs two loss
// evaluations per parameter.
type Trainer struct {
	Registry  *net.Registry
	Optimizer opt.Optimizer
	Loss      loss.Loss
	Epochs    int
	Callbacks []Callback
	Logger    logger.Logger

	// Step is the finite-difference step; 0 uses gonum's default.
	Step float64
}

// Result summarizes a training run.
type Result struct {
	RunID    string
	Epochs   int
	Loss     float64
	Best     float64
	Stopped  bool
	Snapshot *net.Snapshot
	Duration time.Duration
}

// Fit trains the registry's current snapshot on windows.
// The context is checked between epochs; on cancellation the result so far
// is returned along with ctx.Err().
func (t *Trainer) Fit(ctx context.Context, windows []dataset.Window) (*Result, error) {
	if t.Registry == nil {
		return nil, fmt.Errorf("trainer has no registry")
	}
	start := t.Registry.Current()
	if start == nil {
		return nil, net.ErrNoSnapshot
	}
	if t.Epochs < 0 {
		return nil, errs.Invalid("epochs must be >= 0, got %d", t.Epochs)
	}
	if err := checkWindows(start, windows); err != nil {
		return nil, err
	}

	lossFn := t.Loss
	if lossFn == nil {
		lossFn = loss.MSE{}
	}
	optimizer := t.Optimizer
	if optimizer == nil {
		optimizer = opt.NewAdam(0.01)
	}
	log := t.Logger
	if log == nil {
		log = logger.Discard()
	}

	run := &Run{
		ID:        uuid.NewString(),
		Optimizer: optimizer,
		ctx:       ctx,
		snapshot:  start,
	}
	run.log = log.With("run", run.ID)
	res := &Result{RunID: run.ID, Best: math.Inf(1), Snapshot: start}
	began := time.Now()

	for _, cb := range t.Callbacks {
		cb.OnTrainBegin(run)
	}
	defer func() {
		for _, cb := range t.Callbacks {
			cb.OnTrainEnd(run)
		}
	}()

	settings := &fd.Settings{Formula: fd.Central, Step: t.Step}

	for epoch := 1; epoch <= t.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(began)
			return res, err
		}
		for _, cb := range t.Callbacks {
			cb.OnEpochBegin(epoch, run)
		}

		cur := t.Registry.Current()
		obj := newObjective(cur, windows, lossFn)
		params := cur.Params()

		l := obj.eval(params)
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return res, errs.Unstable(epoch, "training loss is not finite")
		}
		grad := fd.Gradient(nil, obj.eval, params, settings)
		if !finite(grad) {
			return res, errs.Unstable(epoch, "gradient is not finite")
		}
		optimizer.StepInPlace(params, grad)

		next, err := t.Registry.Update(func(live *net.Snapshot) (*net.Snapshot, error) {
			if live != cur {
				return nil, fmt.Errorf("%w: registry moved to v%d during epoch %d", net.ErrStaleSnapshot, live.Version, epoch)
			}
			return cur.WithParams(params)
		})
		if err != nil {
			return res, err
		}

		run.snapshot = next
		run.measured = cur
		res.Epochs = epoch
		res.Loss = l
		res.Snapshot = next
		res.Best = math.Min(res.Best, l)
		run.log.Debug("epoch done", "epoch", epoch, "loss", l, "version", next.Version)

		for _, cb := range t.Callbacks {
			cb.OnEpochEnd(epoch, l, run)
		}
		if run.Stopped() {
			res.Stopped = true
			break
		}
	}

	res.Duration = time.Since(began)
	run.log.Info("training finished", "epochs", res.Epochs, "loss", res.Loss, "version", res.Snapshot.Version, "stopped", res.Stopped)
	return res, nil
}

// Run is the view of an in-progress training run handed to callbacks.
type Run struct {
	ID        string
	Optimizer opt.Optimizer

	ctx      context.Context
	log      logger.Logger
	snapshot *net.Snapshot
	measured *net.Snapshot
	stopped  bool
}

// Context returns the context the run was started with.
func (r *Run) Context() context.Context { return r.ctx }

// Logger returns the run-scoped logger.
func (r *Run) Logger() logger.Logger { return r.log }

// Snapshot returns the latest published snapshot of this run.
func (r *Run) Snapshot() *net.Snapshot { return r.snapshot }

// Measured returns the snapshot whose loss was reported for the current
// epoch, i.e. the parameters before this epoch's update.
func (r *Run) Measured() *net.Snapshot { return r.measured }

// Stop asks the trainer to finish after the current epoch.
func (r *Run) Stop() { r.stopped = true }

// Stopped reports whether Stop was called.
func (r *Run) Stopped() bool { return r.stopped }

func finite(v []float64) bool {
	return !floats.HasNaN(v) && !math.IsInf(floats.Max(v), 1) && !math.IsInf(floats.Min(v), -1)
}
