package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/server"
)

func predictCmd() *cli.Command {
	var (
		future     int
		scalerPath string
	)

	return &cli.Command{
		Name:  "predict",
		Usage: "Unroll a model over a CSV sequence and forecast past its end",
		Flags: append(append(commonModelFlags(), commonDataFlags()...),
			&cli.IntFlag{
				Name:        "future",
				Aliases:     []string{"n"},
				Usage:       "look-ahead steps past the end of the input",
				Destination: &future,
			},
			&cli.StringFlag{
				Name:        "scaler",
				Usage:       "min-max scaler written by train; input is normalized and outputs restored",
				Destination: &scalerPath,
			},
			jsonFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyForecastConfig(cmd, cfg, &future)
			log := logger.FromContext(ctx)
			if future > server.MaxFuture {
				return fmt.Errorf("--future must be at most %d", server.MaxFuture)
			}

			series, err := loadSeries()
			if err != nil {
				return err
			}
			snap, err := loadSnapshot(ctx)
			if err != nil {
				return err
			}

			seq := series.Rows
			sc, err := optionalScaler(scalerPath)
			if err != nil {
				return err
			}
			if sc != nil {
				if seq, err = sc.Transform(seq); err != nil {
					return err
				}
			}

			trace, err := net.NewPredictor(snap).Predict(seq, future)
			if err != nil {
				return err
			}
			log.Debug("unrolled", "model", snap.Name, "version", snap.Version, "steps", trace.Len(), "observed", trace.Observed)

			outputs := trace.Outputs
			if sc != nil {
				if len(sc.Min) == snap.Head.OutSize() {
					if outputs, err = sc.Inverse(outputs); err != nil {
						return err
					}
				} else {
					log.Warn("outputs left normalized: scaler width differs from model output", "scaler", len(sc.Min), "out", snap.Head.OutSize())
				}
			}

			w := outWriter(cmd)
			if jsonOutput {
				return printJSON(w, server.ForecastResponse{
					Version:   trace.Version,
					Outputs:   outputs,
					LookAhead: outputs[trace.Observed:],
				})
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "STEP\tPHASE\tOUTPUT")
			for i, row := range outputs {
				phase := "observed"
				if i >= trace.Observed {
					phase = "ahead"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i, phase, formatRow(row))
			}
			return tw.Flush()
		},
	}
}
