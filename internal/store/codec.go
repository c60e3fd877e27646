package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Record is the persisted form of a snapshot.
type Record struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`

	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	Kind       string `json:"kind"`
	InSize     int    `json:"in_size"`
	HiddenSize int    `json:"hidden_size"`
	OutSize    int    `json:"out_size"`
	Peephole   bool   `json:"peephole,omitempty"`
	Activation string `json:"activation"`

	KernelParams []float64 `json:"kernel_params"`
	HeadParams   []float64 `json:"head_params"`
}

// NewRecord captures snap.
func NewRecord(snap *net.Snapshot) Record {
	return Record{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
		ID:            snap.ID,
		Name:          snap.Name,
		Version:       snap.Version,
		CreatedAt:     snap.CreatedAt,
		Kind:          snap.Kernel.Kind.String(),
		InSize:        snap.Kernel.InSize,
		HiddenSize:    snap.Kernel.HiddenSize,
		OutSize:       snap.Head.OutSize(),
		Peephole:      snap.Kernel.HasPeephole(),
		Activation:    activations.Name(snap.Head.Act),
		KernelParams:  snap.Kernel.Params(),
		HeadParams:    snap.Head.Params(),
	}
}

// Snapshot rebuilds the snapshot described by r.
func (r Record) Snapshot() (*net.Snapshot, error) {
	if r.SchemaVersion != CurrentSchemaVersion || r.CodecVersion != CurrentCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, r.SchemaVersion, r.CodecVersion)
	}
	kind, err := layer.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	k, err := layer.NewKernel(kind, r.InSize, r.HiddenSize, 0)
	if err != nil {
		return nil, err
	}
	if r.Peephole {
		if k, err = k.WithPeephole(); err != nil {
			return nil, err
		}
	}
	if err := k.SetParams(r.KernelParams); err != nil {
		return nil, err
	}

	act, err := activations.ByName(r.Activation)
	if err != nil {
		return nil, err
	}
	head, err := layer.NewDense(r.HiddenSize, r.OutSize, act, 0)
	if err != nil {
		return nil, err
	}
	if err := head.SetParams(r.HeadParams); err != nil {
		return nil, err
	}

	return net.Restore(r.ID, r.Name, r.Version, r.CreatedAt, k, head)
}

// Encode serializes snap into an opaque blob.
func Encode(snap *net.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, net.ErrNoSnapshot
	}
	return json.Marshal(NewRecord(snap))
}

// Decode restores a ready-to-use snapshot from a blob produced by Encode.
func Decode(data []byte) (*net.Snapshot, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return r.Snapshot()
}

// SaveFile writes snap to path.
func SaveFile(path string, snap *net.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile reads a snapshot written by SaveFile.
func LoadFile(path string) (*net.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
