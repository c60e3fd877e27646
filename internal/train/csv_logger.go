package train

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var csvColumns = []string{"run", "epoch", "loss", "best", "lr", "version", "time_seconds"}

// CSVLogger appends one row per epoch to a CSV file. Several runs may
// share a file when Append is set; the run column tells them apart.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	// Err holds the first I/O error; logging stops after it.
	Err error

	out   *os.File
	rows  *csv.Writer
	began time.Time
	best  float64
}

func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{Filename: filename, Append: append}
}

func (c *CSVLogger) OnTrainBegin(run *Run) {
	c.Err = nil
	c.best = math.Inf(1)
	c.began = time.Now()

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if c.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	if dir := filepath.Dir(c.Filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.fail(run, err)
			return
		}
	}
	f, err := os.OpenFile(c.Filename, flags, 0o644)
	if err != nil {
		c.fail(run, err)
		return
	}
	c.out, c.rows = f, csv.NewWriter(f)

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		c.write(run, csvColumns)
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, run *Run) {
	if c.rows == nil {
		return
	}
	c.best = math.Min(c.best, loss)
	c.write(run, []string{
		run.ID,
		strconv.Itoa(epoch),
		strconv.FormatFloat(loss, 'g', 10, 64),
		strconv.FormatFloat(c.best, 'g', 10, 64),
		strconv.FormatFloat(run.Optimizer.LearningRate(), 'g', 6, 64),
		strconv.FormatUint(run.Snapshot().Version, 10),
		strconv.FormatFloat(time.Since(c.began).Seconds(), 'f', 2, 64),
	})
}

func (c *CSVLogger) OnTrainEnd(run *Run) {
	if c.out == nil {
		return
	}
	c.rows.Flush()
	if err := c.out.Close(); err != nil && c.Err == nil {
		c.Err = err
	}
	c.out, c.rows = nil, nil
}

func (c *CSVLogger) write(run *Run, record []string) {
	err := c.rows.Write(record)
	if err == nil {
		c.rows.Flush()
		err = c.rows.Error()
	}
	if err != nil {
		c.fail(run, err)
		_ = c.out.Close()
		c.out, c.rows = nil, nil
	}
}

func (c *CSVLogger) fail(run *Run, err error) {
	if c.Err == nil {
		c.Err = err
	}
	run.Logger().Error("csv logger stopped", "file", c.Filename, "err", err)
}
