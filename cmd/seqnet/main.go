package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/config"
	"github.com/FlavioCFOliveira/seqnet/internal/logger"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "seqnet",
		Usage:  "Recurrent sequence predictor",
		Flags:  append(globalFlags(), loggingFlags()...),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			initCmd(),
			inspectCmd(),
			predictCmd(),
			trainCmd(),
			baselineCmd(),
			serveCmd(),
		},
	}
}

// setup loads the config file, lets explicit global flags override it and
// installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	loaded, err := config.Load(configFile)
	if err != nil {
		return ctx, err
	}
	if err := loaded.Validate(); err != nil {
		return ctx, fmt.Errorf("config %s: %w", configFile, err)
	}
	cfg = loaded
	applyGlobalConfig(cmd, cfg)

	log, err := logger.Open(logFormat, errWriter(cmd), logger.ParseLevel(logLevel))
	if err != nil {
		return ctx, err
	}
	log.Debug("config loaded", "path", configFile, "store", storeKind, "model", modelName)
	return logger.WithContext(ctx, log), nil
}
