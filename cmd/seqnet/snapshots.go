package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/seqnet/internal/dataset"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewStore(storeKind, storePath)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("open %s store %s: %w", storeKind, storePath, err)
	}
	return st, nil
}

// fetchSnapshot resolves --file, --id and --model, in that order.
func fetchSnapshot(ctx context.Context, st store.Store) (*net.Snapshot, error) {
	switch {
	case snapshotFile != "":
		return store.LoadFile(snapshotFile)
	case modelID != "":
		return st.Get(ctx, modelID)
	default:
		snap, err := st.Latest(ctx, modelName)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", modelName, err)
		}
		return snap, nil
	}
}

// loadSnapshot is fetchSnapshot for commands that only read; the store is
// not opened when the snapshot comes from a file.
func loadSnapshot(ctx context.Context) (*net.Snapshot, error) {
	if snapshotFile != "" {
		return store.LoadFile(snapshotFile)
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return fetchSnapshot(ctx, st)
}

func loadSeries() (*dataset.Series, error) {
	columns, err := parseIndices(columnList)
	if err != nil {
		return nil, fmt.Errorf("--columns: %w", err)
	}
	return dataset.LoadCSV(inputPath, columns, hasHeader)
}

func saveScaler(path string, sc *dataset.Scaler) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func loadScaler(path string) (*dataset.Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc dataset.Scaler
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scaler %s: %w", path, err)
	}
	if len(sc.Min) == 0 || len(sc.Min) != len(sc.Max) {
		return nil, fmt.Errorf("scaler %s: min and max must be non-empty and the same length", path)
	}
	return &sc, nil
}

func optionalScaler(path string) (*dataset.Scaler, error) {
	if path == "" {
		return nil, nil
	}
	return loadScaler(path)
}
