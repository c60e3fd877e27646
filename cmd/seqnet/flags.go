package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/config"
)

var (
	cfg config.Config

	configFile string
	logLevel   string
	logFormat  string
	storeKind  string
	storePath  string

	modelName    string
	modelID      string
	snapshotFile string

	inputPath  string
	columnList string
	hasHeader  bool
	jsonOutput bool
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       config.DefaultPath(),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "snapshot store backend (sqlite, file, memory)",
			Value:       "sqlite",
			Destination: &storeKind,
		},
		&cli.StringFlag{
			Name:        "store-path",
			Usage:       "sqlite database file or snapshot directory",
			Value:       "seqnet.db",
			Destination: &storePath,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
	}
}

// commonModelFlags select the snapshot a command works on: by file, by
// store id, or the latest version of a named model.
func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "model name",
			Value:       "default",
			Destination: &modelName,
		},
		&cli.StringFlag{
			Name:        "id",
			Usage:       "snapshot id (overrides --model)",
			Destination: &modelID,
		},
		&cli.StringFlag{
			Name:        "file",
			Usage:       "read the snapshot from a JSON file instead of the store",
			Destination: &snapshotFile,
		},
	}
}

func commonDataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "CSV file with one row per time step",
			Required:    true,
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "columns",
			Usage:       "comma-separated column indices to read (default: all)",
			Destination: &columnList,
		},
		&cli.BoolFlag{
			Name:        "header",
			Usage:       "the first CSV row is a header",
			Destination: &hasHeader,
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "print JSON instead of a table",
		Destination: &jsonOutput,
	}
}

// parseIndices parses "0, 2,3" into []int{0, 2, 3}. An empty list is nil.
func parseIndices(list string) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
