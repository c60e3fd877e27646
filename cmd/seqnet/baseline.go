package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/baseline"
	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/server"
)

func baselineCmd() *cli.Command {
	var (
		opts    baselineOptions
		column  int
		all     bool
		compare bool
	)

	return &cli.Command{
		Name:  "baseline",
		Usage: "Score classical one-step forecasters on a CSV column (walk-forward)",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "CSV file with one row per time step",
				Required:    true,
				Destination: &inputPath,
			},
			&cli.BoolFlag{
				Name:        "header",
				Usage:       "the first CSV row is a header",
				Destination: &hasHeader,
			},
			&cli.IntFlag{
				Name:        "column",
				Usage:       "column index of the series",
				Destination: &column,
			},
			&cli.StringFlag{
				Name:        "method",
				Usage:       "forecaster (naive, ma, exp)",
				Value:       "naive",
				Destination: &opts.method,
			},
			&cli.IntFlag{
				Name:        "window",
				Usage:       "moving average window",
				Value:       3,
				Destination: &opts.window,
			},
			&cli.Float64Flag{
				Name:        "alpha",
				Usage:       "exponential smoothing factor in (0, 1]",
				Value:       0.5,
				Destination: &opts.alpha,
			},
			&cli.Float64Flag{
				Name:        "split",
				Usage:       "fraction of the series used as history; the rest is predicted",
				Value:       0.8,
				Destination: &opts.split,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "score every forecaster instead of --method",
				Destination: &all,
			},
			&cli.BoolFlag{
				Name:        "compare",
				Usage:       "also score the stored model (1-in 1-out models only)",
				Destination: &compare,
			},
			jsonFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyBaselineConfig(cmd, cfg, &opts)
			log := logger.FromContext(ctx)

			series, err := dataset.LoadCSV(inputPath, []int{column}, hasHeader)
			if err != nil {
				return err
			}
			values, err := series.Column(0)
			if err != nil {
				return err
			}
			head, tail := series.Split(opts.split)
			history, test := values[:head.Len()], values[head.Len():]
			if len(history) == 0 || len(test) == 0 {
				return fmt.Errorf("--split %v leaves an empty history or test set (%d values)", opts.split, len(values))
			}

			var forecasters []baseline.Forecaster
			if all {
				es, err := baseline.NewExpSmoothing(opts.alpha)
				if err != nil {
					return err
				}
				forecasters = append(forecasters, baseline.Naive{}, baseline.MovingAverage{Window: opts.window}, es)
			} else {
				f, err := baseline.ByName(opts.method, opts.window, opts.alpha)
				if err != nil {
					return err
				}
				forecasters = append(forecasters, f)
			}
			if compare {
				snap, err := loadSnapshot(ctx)
				if err != nil {
					return err
				}
				m, err := baseline.NewModel(snap)
				if err != nil {
					return err
				}
				forecasters = append(forecasters, m)
			}

			results := make([]server.BaselineResponse, 0, len(forecasters))
			for _, f := range forecasters {
				res, err := baseline.Evaluate(f, history, test)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name(), err)
				}
				log.Debug("evaluated", "method", res.Method, "rmse", res.RMSE)
				results = append(results, server.NewBaselineResponse(res))
			}

			w := outWriter(cmd)
			if jsonOutput {
				return printJSON(w, results)
			}
			tw := newTable(w)
			fmt.Fprintf(tw, "METHOD\tRMSE\tMAE\tMAPE\t(history %d, test %d)\n", len(history), tail.Len())
			for _, r := range results {
				mape := "-"
				if r.MAPE != nil {
					mape = strconv.FormatFloat(*r.MAPE, 'f', 2, 64) + "%"
				}
				fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%s\t\n", r.Method, r.RMSE, r.MAE, mape)
			}
			return tw.Flush()
		},
	}
}
