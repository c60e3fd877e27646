package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

func initCmd() *cli.Command {
	var (
		opts   initOptions
		force  bool
		export string
	)

	return &cli.Command{
		Name:  "init",
		Usage: "Create a model with random weights and save it as version 1",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "model name",
				Value:       "default",
				Destination: &modelName,
			},
			&cli.StringFlag{
				Name:        "kind",
				Usage:       "recurrent kernel (rnn, lstm)",
				Value:       "lstm",
				Destination: &opts.kind,
			},
			&cli.IntFlag{
				Name:        "in",
				Usage:       "input channels",
				Value:       1,
				Destination: &opts.in,
			},
			&cli.IntFlag{
				Name:        "hidden",
				Usage:       "hidden state size",
				Value:       16,
				Destination: &opts.hidden,
			},
			&cli.IntFlag{
				Name:        "out",
				Usage:       "output channels",
				Value:       1,
				Destination: &opts.out,
			},
			&cli.StringFlag{
				Name:        "activation",
				Usage:       "output activation (linear, tanh, sigmoid, relu)",
				Value:       "linear",
				Destination: &opts.activation,
			},
			&cli.BoolFlag{
				Name:        "peephole",
				Usage:       "add peephole connections (lstm only)",
				Destination: &opts.peephole,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "weight initialization seed",
				Value:       1,
				Destination: &opts.seed,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "replace an existing model with a new, higher version",
				Destination: &force,
			},
			&cli.StringFlag{
				Name:        "export",
				Usage:       "also write the snapshot to this JSON file",
				Destination: &export,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyInitConfig(cmd, cfg, &opts)
			log := logger.FromContext(ctx)

			snap, err := buildSnapshot(modelName, opts)
			if err != nil {
				return err
			}

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			existing, err := st.Latest(ctx, modelName)
			switch {
			case err == nil && !force:
				return fmt.Errorf("model %q already exists at version %d (use --force)", modelName, existing.Version)
			case err == nil:
				snap, err = net.Restore(snap.ID, snap.Name, existing.Version+1, snap.CreatedAt, snap.Kernel, snap.Head)
				if err != nil {
					return err
				}
			case !errors.Is(err, store.ErrNotFound):
				return err
			}

			if err := st.Save(ctx, snap); err != nil {
				return err
			}
			log.Info("model created", "name", snap.Name, "id", snap.ID, "version", snap.Version, "params", snap.NumParams())

			if export != "" {
				if err := store.SaveFile(export, snap); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(outWriter(cmd), "created %s\n", snap)
			return err
		},
	}
}

func buildSnapshot(name string, o initOptions) (*net.Snapshot, error) {
	kind, err := layer.ParseKind(o.kind)
	if err != nil {
		return nil, err
	}
	if o.peephole && kind != layer.KindLSTM {
		return nil, fmt.Errorf("--peephole needs --kind lstm")
	}
	act, err := activations.ByName(o.activation)
	if err != nil {
		return nil, err
	}

	seed := uint64(o.seed)
	kernel, err := layer.NewKernel(kind, o.in, o.hidden, seed)
	if err != nil {
		return nil, err
	}
	if o.peephole {
		if kernel, err = kernel.WithPeephole(); err != nil {
			return nil, err
		}
	}
	head, err := layer.NewDense(o.hidden, o.out, act, seed)
	if err != nil {
		return nil, err
	}
	return net.NewSnapshot(name, kernel, head)
}
