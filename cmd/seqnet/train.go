package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
	"github.com/FlavioCFOliveira/seqnet/internal/train"
)

func trainCmd() *cli.Command {
	var (
		opts       trainOptions
		targetList string
		validate   float64
		scalerPath string
		export     string
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Fit a stored model on a CSV series and save the new versions",
		Flags: append(append(commonModelFlags(), commonDataFlags()...),
			&cli.IntFlag{
				Name:        "epochs",
				Usage:       "training epochs",
				Value:       50,
				Destination: &opts.epochs,
			},
			&cli.Float64Flag{
				Name:        "lr",
				Usage:       "learning rate",
				Value:       0.01,
				Destination: &opts.lr,
			},
			&cli.StringFlag{
				Name:        "optimizer",
				Usage:       "optimizer (adam, sgd)",
				Value:       "adam",
				Destination: &opts.optimizer,
			},
			&cli.StringFlag{
				Name:        "loss",
				Usage:       "loss (mse, mae, huber)",
				Value:       "mse",
				Destination: &opts.loss,
			},
			&cli.IntFlag{
				Name:        "lookback",
				Usage:       "input steps per training window",
				Value:       16,
				Destination: &opts.lookback,
			},
			&cli.StringFlag{
				Name:        "targets",
				Usage:       "comma-separated channels to predict one step ahead (default: all)",
				Destination: &targetList,
			},
			&cli.IntFlag{
				Name:        "patience",
				Usage:       "stop after this many epochs without improvement (0 disables)",
				Value:       10,
				Destination: &opts.patience,
			},
			&cli.Float64Flag{
				Name:        "min-delta",
				Usage:       "smallest loss decrease that counts as improvement",
				Value:       1e-6,
				Destination: &opts.minDelta,
			},
			&cli.StringFlag{
				Name:        "scheduler",
				Usage:       "learning rate schedule (step, exp, plateau)",
				Destination: &opts.scheduler,
			},
			&cli.IntFlag{
				Name:        "step-size",
				Usage:       "epochs between decays (step) or plateau patience",
				Value:       10,
				Destination: &opts.stepSize,
			},
			&cli.Float64Flag{
				Name:        "gamma",
				Usage:       "decay factor",
				Value:       0.5,
				Destination: &opts.gamma,
			},
			&cli.StringFlag{
				Name:        "log-csv",
				Usage:       "write per-epoch metrics to this CSV file",
				Destination: &opts.logCSV,
			},
			&cli.Float64Flag{
				Name:        "validate",
				Usage:       "hold out the trailing fraction of the series for validation (0 disables)",
				Destination: &validate,
			},
			&cli.StringFlag{
				Name:        "scaler",
				Usage:       "normalize the series to [0, 1] and write the scaler to this YAML file",
				Destination: &scalerPath,
			},
			&cli.StringFlag{
				Name:        "export",
				Usage:       "also write the trained snapshot to this JSON file",
				Destination: &export,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyTrainConfig(cmd, cfg, &opts)
			log := logger.FromContext(ctx)

			if validate < 0 || validate >= 1 {
				return fmt.Errorf("--validate must be in [0, 1), got %v", validate)
			}
			targets, err := parseIndices(targetList)
			if err != nil {
				return fmt.Errorf("--targets: %w", err)
			}

			series, err := loadSeries()
			if err != nil {
				return err
			}
			if scalerPath != "" {
				sc, err := dataset.Fit(series.Rows)
				if err != nil {
					return err
				}
				if series.Rows, err = sc.Transform(series.Rows); err != nil {
					return err
				}
				if err := saveScaler(scalerPath, sc); err != nil {
					return err
				}
				log.Info("scaler written", "path", scalerPath)
			}

			fitPart, valPart := series, (*dataset.Series)(nil)
			if validate > 0 {
				fitPart, valPart = series.Split(1 - validate)
			}
			windows, err := fitPart.Windows(opts.lookback, targets)
			if err != nil {
				return err
			}

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			start, err := fetchSnapshot(ctx, st)
			if err != nil {
				return err
			}

			optimizer, err := opt.ByName(opts.optimizer, opts.lr)
			if err != nil {
				return err
			}
			objective, err := loss.ByName(opts.loss)
			if err != nil {
				return err
			}

			checkpoint := train.NewCheckpoint(st)
			callbacks := []train.Callback{
				train.LogCallback{Interval: max(1, opts.epochs/10)},
				checkpoint,
			}
			if opts.patience > 0 {
				callbacks = append(callbacks, train.NewEarlyStopping(opts.patience, opts.minDelta))
			}
			if opts.scheduler != "" {
				sched := opt.NewScheduler(opts.scheduler, optimizer, opts.stepSize, opts.gamma)
				if sched == nil {
					return fmt.Errorf("unknown scheduler %q", opts.scheduler)
				}
				callbacks = append(callbacks, train.NewSchedulerCallback(sched))
			}
			if opts.logCSV != "" {
				callbacks = append(callbacks, train.NewCSVLogger(opts.logCSV, false))
			}

			trainer := &train.Trainer{
				Registry:  net.NewRegistry(start),
				Optimizer: optimizer,
				Loss:      objective,
				Epochs:    opts.epochs,
				Callbacks: callbacks,
				Logger:    log,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			log.Info("training", "model", start.Name, "from_version", start.Version, "windows", len(windows), "params", start.NumParams())
			res, err := trainer.Fit(ctx, windows)
			if err != nil {
				if res == nil || !errors.Is(err, context.Canceled) {
					return err
				}
				log.Warn("training interrupted, saving progress", "epochs", res.Epochs)
			}
			if checkpoint.Err != nil {
				log.Warn("checkpoint failed", "err", checkpoint.Err)
			}

			// The final snapshot may not be the best one, but it is the newest.
			if err := st.Save(context.WithoutCancel(ctx), res.Snapshot); err != nil {
				return err
			}
			if export != "" {
				if err := store.SaveFile(export, res.Snapshot); err != nil {
					return err
				}
			}

			w := outWriter(cmd)
			fmt.Fprintf(w, "trained %s: %d epochs in %s, loss %.6g (best %.6g)", res.Snapshot, res.Epochs, res.Duration.Round(time.Millisecond), res.Loss, res.Best)
			if res.Stopped {
				fmt.Fprint(w, ", stopped early")
			}
			fmt.Fprintln(w)

			if valPart != nil {
				valWindows, err := valPart.Windows(opts.lookback, targets)
				if err != nil {
					return fmt.Errorf("validation split: %w", err)
				}
				valLoss, err := train.Evaluate(res.Snapshot, valWindows, objective)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "validation loss %.6g over %d windows\n", valLoss, len(valWindows))
			}
			return nil
		},
	}
}
