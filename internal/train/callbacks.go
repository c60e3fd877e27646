package train

import (
	"math"

	"github.com/FlavioCFOliveira/seqnet/internal/opt"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(run *Run)
	OnTrainEnd(run *Run)
	OnEpochBegin(epoch int, run *Run)
	OnEpochEnd(epoch int, loss float64, run *Run)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(run *Run)                        {}
func (c BaseCallback) OnTrainEnd(run *Run)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, run *Run)             {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, run *Run) {}

// SchedulerCallback steps a learning rate scheduler after every epoch.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(epoch int, loss float64, run *Run) {
	c.scheduler.Step()
	c.scheduler.StepWithLoss(loss)
}

// EarlyStopping stops training when the loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnTrainBegin(run *Run) {
	c.bestLoss = math.MaxFloat64
	c.numBadEpochs = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, run *Run) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.Patience > 0 && c.numBadEpochs >= c.Patience {
		run.Logger().Info("early stopping", "epoch", epoch, "loss", loss, "patience", c.Patience)
		c.Stopped = true
		run.Stop()
	}
}

// Checkpoint saves the measured snapshot to a store whenever the epoch
// loss is the best so far.
type Checkpoint struct {
	BaseCallback
	Store store.Store

	bestLoss float64
	Saved    int
	Err      error // last save error
}

func NewCheckpoint(s store.Store) *Checkpoint {
	return &Checkpoint{Store: s, bestLoss: math.MaxFloat64}
}

func (c *Checkpoint) OnEpochEnd(epoch int, loss float64, run *Run) {
	if loss >= c.bestLoss {
		return
	}
	c.bestLoss = loss
	snap := run.Measured()
	if err := c.Store.Save(run.Context(), snap); err != nil {
		c.Err = err
		run.Logger().Error("checkpoint failed", "epoch", epoch, "error", err)
		return
	}
	c.Saved++
	run.Logger().Info("checkpoint saved", "epoch", epoch, "loss", loss, "version", snap.Version)
}

// LogCallback logs training progress every Interval epochs.
type LogCallback struct {
	BaseCallback
	Interval int
}

func (c LogCallback) OnEpochEnd(epoch int, loss float64, run *Run) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		run.Logger().Info("epoch", "epoch", epoch, "loss", loss, "lr", run.Optimizer.LearningRate())
	}
}
