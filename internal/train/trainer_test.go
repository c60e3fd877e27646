package train

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

func newRegistry(t *testing.T, kind layer.Kind) *net.Registry {
	t.Helper()
	k, err := layer.NewKernel(kind, 1, 3, 42)
	if err != nil {
		t.Fatal(err)
	}
	head, err := layer.NewDense(3, 1, nil, 42)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := net.NewSnapshot("sine", k, head)
	if err != nil {
		t.Fatal(err)
	}
	return net.NewRegistry(snap)
}

func sineWindows(t *testing.T) []dataset.Window {
	t.Helper()
	values := make([]float64, 24)
	for i := range values {
		values[i] = math.Sin(float64(i) * 0.4)
	}
	s := &dataset.Series{Names: []string{"y"}, Rows: dataset.ToSequence(values)}
	ws, err := s.Windows(6, nil)
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func TestFitReducesLoss(t *testing.T) {
	for _, kind := range []layer.Kind{layer.KindSimple, layer.KindLSTM} {
		t.Run(kind.String(), func(t *testing.T) {
			reg := newRegistry(t, kind)
			windows := sineWindows(t)
			before, err := Evaluate(reg.Current(), windows, loss.MSE{})
			if err != nil {
				t.Fatal(err)
			}

			tr := &Trainer{
				Registry:  reg,
				Optimizer: opt.NewAdam(0.05),
				Epochs:    30,
			}
			res, err := tr.Fit(context.Background(), windows)
			if err != nil {
				t.Fatal(err)
			}
			if res.Epochs != 30 {
				t.Errorf("Epochs = %d, expected 30", res.Epochs)
			}
			if res.Snapshot.Version != 31 || reg.Current() != res.Snapshot {
				t.Errorf("registry at %v, result %v", reg.Current(), res.Snapshot)
			}

			after, err := Evaluate(reg.Current(), windows, loss.MSE{})
			if err != nil {
				t.Fatal(err)
			}
			if after >= before {
				t.Errorf("loss after = %v, before = %v; expected a decrease", after, before)
			}
		})
	}
}

func TestFitZeroEpochs(t *testing.T) {
	reg := newRegistry(t, layer.KindSimple)
	start := reg.Current()
	res, err := (&Trainer{Registry: reg}).Fit(context.Background(), sineWindows(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Epochs != 0 || reg.Current() != start {
		t.Errorf("zero epochs changed the registry: %+v", res)
	}
}

func TestEarlyStopping(t *testing.T) {
	reg := newRegistry(t, layer.KindSimple)
	es := NewEarlyStopping(2, 0)
	tr := &Trainer{
		Registry:  reg,
		Optimizer: opt.NewSGD(0), // parameters never move, loss is flat
		Epochs:    10,
		Callbacks: []Callback{es},
	}
	res, err := tr.Fit(context.Background(), sineWindows(t))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stopped || !es.Stopped {
		t.Fatal("expected early stop")
	}
	if res.Epochs != 3 {
		t.Errorf("Epochs = %d, expected 3", res.Epochs)
	}
}

func TestFitCancelled(t *testing.T) {
	reg := newRegistry(t, layer.KindSimple)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := (&Trainer{Registry: reg, Epochs: 5}).Fit(ctx, sineWindows(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, expected context.Canceled", err)
	}
	if res == nil || res.Epochs != 0 {
		t.Errorf("res = %+v, expected zero epochs", res)
	}
	if reg.Current().Version != 1 {
		t.Errorf("cancelled run published v%d", reg.Current().Version)
	}
}

func TestFitRejectsBadWindows(t *testing.T) {
	reg := newRegistry(t, layer.KindSimple)
	tr := &Trainer{Registry: reg, Epochs: 1}

	if _, err := tr.Fit(context.Background(), nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("no windows: err = %v", err)
	}
	bad := []dataset.Window{{
		Input:  [][]float64{{1}, {2}},
		Target: [][]float64{{1, 2}, {3, 4}},
	}}
	if _, err := tr.Fit(context.Background(), bad); !errors.Is(err, errs.ErrShapeMismatch) {
		t.Errorf("wide target: err = %v, expected ErrShapeMismatch", err)
	}
	if _, err := (&Trainer{Registry: net.NewRegistry(nil)}).Fit(context.Background(), sineWindows(t)); !errors.Is(err, net.ErrNoSnapshot) {
		t.Errorf("empty registry: err = %v", err)
	}
}

// meddlingLoss publishes a new snapshot behind the trainer's back the
// first time it is evaluated.
type meddlingLoss struct {
	loss.MSE
	reg  *net.Registry
	once sync.Once
}

func (m *meddlingLoss) Forward(yPred, yTrue []float64) float64 {
	m.once.Do(func() {
		cur := m.reg.Current()
		next, _ := cur.WithParams(cur.Params())
		_ = m.reg.Publish(next)
	})
	return m.MSE.Forward(yPred, yTrue)
}

func TestFitDetectsConcurrentPublish(t *testing.T) {
	reg := newRegistry(t, layer.KindSimple)
	tr := &Trainer{Registry: reg, Epochs: 3, Loss: &meddlingLoss{reg: reg}}
	if _, err := tr.Fit(context.Background(), sineWindows(t)); !errors.Is(err, net.ErrStaleSnapshot) {
		t.Errorf("err = %v, expected ErrStaleSnapshot", err)
	}
}

func TestCheckpointAndCSVLogger(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	if err := mem.Init(ctx); err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(t.TempDir(), "train.csv")

	reg := newRegistry(t, layer.KindSimple)
	o := opt.NewAdam(0.05)
	ckpt := NewCheckpoint(mem)
	tr := &Trainer{
		Registry:  reg,
		Optimizer: o,
		Epochs:    4,
		Callbacks: []Callback{
			ckpt,
			NewCSVLogger(csvPath, false),
			NewSchedulerCallback(opt.NewExponentialLR(o, 0.5)),
			LogCallback{Interval: 1},
		},
	}
	if _, err := tr.Fit(ctx, sineWindows(t)); err != nil {
		t.Fatal(err)
	}

	if ckpt.Err != nil || ckpt.Saved == 0 {
		t.Fatalf("checkpoint saved %d, err %v", ckpt.Saved, ckpt.Err)
	}
	metas, err := mem.List(ctx, "sine")
	if err != nil || len(metas) != ckpt.Saved {
		t.Errorf("store has %d versions (err %v), expected %d", len(metas), err, ckpt.Saved)
	}
	// The first epoch's loss is measured on the starting parameters.
	if len(metas) > 0 && metas[0].Version != 1 {
		t.Errorf("first checkpoint is v%d, expected v1", metas[0].Version)
	}

	if got, want := o.LearningRate(), 0.05/16; math.Abs(got-want) > 1e-12 {
		t.Errorf("lr = %v, expected %v after 4 halvings", got, want)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("csv has %d lines, expected header + 4", len(records))
	}
	if records[0][1] != "epoch" || records[4][1] != "4" || records[4][5] != "5" {
		t.Errorf("unexpected csv: %v", records)
	}
}
