package layer

import (
	"strings"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// Kind selects the recurrence a Kernel computes.
type Kind uint8

const (
	// KindSimple is the plain tanh recurrence.
	KindSimple Kind = iota + 1
	// KindLSTM is the gated recurrence with a hidden and a cell vector.
	KindLSTM
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "rnn"
	case KindLSTM:
		return "lstm"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rnn", "simple":
		return KindSimple, nil
	case "lstm":
		return KindLSTM, nil
	default:
		return 0, errs.Invalid("unknown kernel kind %q", name)
	}
}
