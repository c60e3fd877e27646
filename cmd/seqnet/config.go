package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/config"
)

// applyGlobalConfig applies config file values to the global flag variables
// when the corresponding flag was not explicitly set.
func applyGlobalConfig(c *cli.Command, cfg config.Config) {
	if !c.IsSet("store") {
		storeKind = cfg.Store.Kind
	}
	if !c.IsSet("store-path") {
		storePath = cfg.Store.Path
	}
	if !c.IsSet("log-level") {
		logLevel = cfg.Log.Level
	}
	if !c.IsSet("log-format") {
		logFormat = cfg.Log.Format
	}
}

func applyModelConfig(c *cli.Command, cfg config.Config) {
	if !c.IsSet("model") {
		modelName = cfg.Model.Name
	}
}

// initOptions are the architecture settings of a new model.
type initOptions struct {
	kind       string
	in         int
	hidden     int
	out        int
	activation string
	peephole   bool
	seed       int64
}

func applyInitConfig(c *cli.Command, cfg config.Config, o *initOptions) {
	applyModelConfig(c, cfg)
	if !c.IsSet("kind") {
		o.kind = cfg.Model.Kind
	}
	if !c.IsSet("in") {
		o.in = cfg.Model.InSize
	}
	if !c.IsSet("hidden") {
		o.hidden = cfg.Model.HiddenSize
	}
	if !c.IsSet("out") {
		o.out = cfg.Model.OutSize
	}
	if !c.IsSet("activation") {
		o.activation = cfg.Model.Activation
	}
	if !c.IsSet("peephole") {
		o.peephole = cfg.Model.Peephole
	}
	if !c.IsSet("seed") {
		o.seed = int64(cfg.Model.Seed)
	}
}

type trainOptions struct {
	epochs    int
	lr        float64
	optimizer string
	loss      string
	lookback  int
	patience  int
	minDelta  float64
	scheduler string
	stepSize  int
	gamma     float64
	logCSV    string
}

func applyTrainConfig(c *cli.Command, cfg config.Config, o *trainOptions) {
	applyModelConfig(c, cfg)
	t := cfg.Train
	if !c.IsSet("epochs") {
		o.epochs = t.Epochs
	}
	if !c.IsSet("lr") {
		o.lr = t.LearningRate
	}
	if !c.IsSet("optimizer") {
		o.optimizer = t.Optimizer
	}
	if !c.IsSet("loss") {
		o.loss = t.Loss
	}
	if !c.IsSet("lookback") {
		o.lookback = t.Lookback
	}
	if !c.IsSet("patience") {
		o.patience = t.Patience
	}
	if !c.IsSet("min-delta") {
		o.minDelta = t.MinDelta
	}
	if !c.IsSet("scheduler") {
		o.scheduler = t.Scheduler
	}
	if !c.IsSet("step-size") {
		o.stepSize = t.StepSize
	}
	if !c.IsSet("gamma") {
		o.gamma = t.Gamma
	}
	if !c.IsSet("log-csv") {
		o.logCSV = t.LogCSV
	}
}

func applyForecastConfig(c *cli.Command, cfg config.Config, future *int) {
	applyModelConfig(c, cfg)
	if !c.IsSet("future") {
		*future = cfg.Forecast.Future
	}
}

type baselineOptions struct {
	method string
	window int
	alpha  float64
	split  float64
}

func applyBaselineConfig(c *cli.Command, cfg config.Config, o *baselineOptions) {
	applyModelConfig(c, cfg)
	if !c.IsSet("method") {
		o.method = cfg.Baseline.Method
	}
	if !c.IsSet("window") {
		o.window = cfg.Baseline.Window
	}
	if !c.IsSet("alpha") {
		o.alpha = cfg.Baseline.Alpha
	}
	if !c.IsSet("split") {
		o.split = cfg.Baseline.Split
	}
}

func applyServeConfig(c *cli.Command, cfg config.Config, addr *string, readTimeout *time.Duration, workers *int) {
	applyModelConfig(c, cfg)
	if cfg.Server.Address != "" && !c.IsSet("addr") {
		*addr = cfg.Server.Address
	}
	if cfg.Server.ReadTimeout > 0 && !c.IsSet("read-timeout") {
		*readTimeout = cfg.Server.ReadTimeout
	}
	if !c.IsSet("workers") {
		*workers = cfg.Forecast.Workers
	}
}
