// Package layer provides the recurrent step kernels, the output projection
// and the unroll loop that threads state between them.
package layer

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// Kernel is a recurrence step function. Kind tags which parameter set is
// populated; Step is the same for every kind.
type Kernel struct {
	Kind       Kind
	InSize     int
	HiddenSize int

	Simple *SimpleParams
	LSTM   *LSTMParams
}

// NewKernel creates a kernel of the given kind with Xavier/Glorot weights
// drawn from a deterministic RNG seeded with seed.
func NewKernel(kind Kind, inSize, hiddenSize int, seed uint64) (*Kernel, error) {
	if inSize <= 0 || hiddenSize <= 0 {
		return nil, errs.Invalid("kernel sizes must be positive, got in=%d hidden=%d", inSize, hiddenSize)
	}
	rng := newRNG(seed)
	switch kind {
	case KindSimple:
		return NewSimpleKernel(randomSimpleParams(rng, inSize, hiddenSize))
	case KindLSTM:
		return NewLSTMKernel(randomLSTMParams(rng, inSize, hiddenSize))
	default:
		return nil, errs.Invalid("unknown kernel kind %d", kind)
	}
}

// Step computes the next state from input x and the previous state.
// prev is never modified.
func (k *Kernel) Step(x []float64, prev State) (State, error) {
	if err := k.CheckInput(x); err != nil {
		return State{}, err
	}
	if len(prev.H) != k.HiddenSize {
		return State{}, errs.Shape("hidden state", k.HiddenSize, len(prev.H))
	}

	switch k.Kind {
	case KindSimple:
		return k.stepSimple(x, prev.H), nil
	case KindLSTM:
		if len(prev.C) != k.HiddenSize {
			return State{}, errs.Shape("cell state", k.HiddenSize, len(prev.C))
		}
		return k.stepLSTM(x, prev.H, prev.C), nil
	default:
		return State{}, errs.Invalid("unknown kernel kind %d", k.Kind)
	}
}

// CheckInput validates the width of one input row.
func (k *Kernel) CheckInput(x []float64) error {
	if len(x) != k.InSize {
		return errs.Shape("input", k.InSize, len(x))
	}
	return nil
}

// ZeroState returns the initial state for this kernel.
func (k *Kernel) ZeroState() State {
	return ZeroState(k.Kind, k.HiddenSize)
}

// Params returns all kernel parameters flattened (copy).
func (k *Kernel) Params() []float64 {
	params := make([]float64, 0, k.NumParams())
	switch k.Kind {
	case KindSimple:
		p := k.Simple
		params = appendDense(params, p.Wx)
		params = appendVec(params, p.Bx)
		params = appendDense(params, p.Ws)
		params = appendVec(params, p.Bs)
	case KindLSTM:
		p := k.LSTM
		params = appendDense(params, p.Wx)
		params = appendDense(params, p.Wh)
		params = appendVec(params, p.B)
		if p.HasPeephole() {
			params = appendVec(params, p.Pi)
			params = appendVec(params, p.Pf)
			params = appendVec(params, p.Po)
		}
	}
	return params
}

// SetParams overwrites the parameters from a flattened slice laid out as
// returned by Params.
func (k *Kernel) SetParams(params []float64) error {
	if len(params) != k.NumParams() {
		return errs.Shape("kernel params", k.NumParams(), len(params))
	}
	off := 0
	switch k.Kind {
	case KindSimple:
		p := k.Simple
		off = setDense(p.Wx, params, off)
		off = setVec(p.Bx, params, off)
		off = setDense(p.Ws, params, off)
		setVec(p.Bs, params, off)
	case KindLSTM:
		p := k.LSTM
		off = setDense(p.Wx, params, off)
		off = setDense(p.Wh, params, off)
		off = setVec(p.B, params, off)
		if p.HasPeephole() {
			off = setVec(p.Pi, params, off)
			off = setVec(p.Pf, params, off)
			setVec(p.Po, params, off)
		}
	}
	return nil
}

// NumParams returns the number of scalar parameters.
func (k *Kernel) NumParams() int {
	in, h := k.InSize, k.HiddenSize
	switch k.Kind {
	case KindSimple:
		return h*in + h + h*h + h
	case KindLSTM:
		n := 4*h*in + 4*h*h + 4*h
		if k.LSTM != nil && k.LSTM.HasPeephole() {
			n += 3 * h
		}
		return n
	default:
		return 0
	}
}

// Clone creates a deep copy of the kernel.
func (k *Kernel) Clone() *Kernel {
	out := &Kernel{Kind: k.Kind, InSize: k.InSize, HiddenSize: k.HiddenSize}
	if k.Simple != nil {
		out.Simple = k.Simple.clone()
	}
	if k.LSTM != nil {
		out.LSTM = k.LSTM.clone()
	}
	return out
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func randomDense(rng *rand.Rand, rows, cols int, scale float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()*2*scale - scale
	}
	return mat.NewDense(rows, cols, data)
}

func checkDense(what string, m *mat.Dense, rows, cols int) error {
	if m == nil {
		return errs.Invalid("%s is nil", what)
	}
	r, c := m.Dims()
	if r != rows {
		return errs.Shape(what+" rows", rows, r)
	}
	if c != cols {
		return errs.Shape(what+" cols", cols, c)
	}
	return nil
}

func checkVec(what string, v *mat.VecDense, n int) error {
	if v == nil {
		return errs.Invalid("%s is nil", what)
	}
	if v.Len() != n {
		return errs.Shape(what, n, v.Len())
	}
	return nil
}

func appendDense(dst []float64, m *mat.Dense) []float64 {
	r, c := m.Dims()
	raw := m.RawMatrix()
	for i := 0; i < r; i++ {
		dst = append(dst, raw.Data[i*raw.Stride:i*raw.Stride+c]...)
	}
	return dst
}

func appendVec(dst []float64, v *mat.VecDense) []float64 {
	for i := 0; i < v.Len(); i++ {
		dst = append(dst, v.AtVec(i))
	}
	return dst
}

func setDense(m *mat.Dense, src []float64, off int) int {
	r, c := m.Dims()
	raw := m.RawMatrix()
	for i := 0; i < r; i++ {
		copy(raw.Data[i*raw.Stride:i*raw.Stride+c], src[off:off+c])
		off += c
	}
	return off
}

func setVec(v *mat.VecDense, src []float64, off int) int {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, src[off+i])
	}
	return off + v.Len()
}

// affine computes W·x + b into a new slice.
func affine(w *mat.Dense, x []float64, b *mat.VecDense) []float64 {
	r, _ := w.Dims()
	out := make([]float64, r)
	dst := mat.NewVecDense(r, out)
	dst.MulVec(w, mat.NewVecDense(len(x), x))
	dst.AddVec(dst, b)
	return out
}

// addMulVec adds W·x into dst.
func addMulVec(dst []float64, w *mat.Dense, x []float64) {
	r, _ := w.Dims()
	var tmp mat.VecDense
	tmp.MulVec(w, mat.NewVecDense(len(x), x))
	for i := 0; i < r; i++ {
		dst[i] += tmp.AtVec(i)
	}
}
