package layer

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// LSTMParams holds the gated recurrence weights.
//
// Gate rows are laid out [input, forget, cell, output], each block
// HiddenSize rows tall:
//
//	z = Wx·x + Wh·h + B
//	i = σ(z_i + Pi∘c)   f = σ(z_f + Pf∘c)   g = tanh(z_g)
//	c' = f∘c + i∘g
//	o = σ(z_o + Po∘c')  h' = o∘tanh(c')
//
// The peephole vectors Pi, Pf, Po are optional; when nil they are treated
// as zero and the kernel is the classic LSTM.
type LSTMParams struct {
	Wx *mat.Dense    // 4·hidden × in
	Wh *mat.Dense    // 4·hidden × hidden
	B  *mat.VecDense // 4·hidden

	Pi *mat.VecDense
	Pf *mat.VecDense
	Po *mat.VecDense
}

// HasPeephole reports whether the peephole connections are present.
func (p *LSTMParams) HasPeephole() bool {
	return p.Pi != nil
}

// NewLSTMKernel validates p and wraps it in a Kernel. The sizes are taken
// from Wx. Peepholes must be all set or all nil.
func NewLSTMKernel(p LSTMParams) (*Kernel, error) {
	if p.Wx == nil {
		return nil, errs.Invalid("Wx is nil")
	}
	rows, in := p.Wx.Dims()
	if rows == 0 || in == 0 {
		return nil, errs.Invalid("Wx must not be empty")
	}
	if rows%4 != 0 {
		return nil, errs.Invalid("Wx has %d rows, expected a multiple of 4", rows)
	}
	hidden := rows / 4
	if err := checkDense("Wh", p.Wh, 4*hidden, hidden); err != nil {
		return nil, err
	}
	if err := checkVec("B", p.B, 4*hidden); err != nil {
		return nil, err
	}

	set := 0
	for _, v := range []*mat.VecDense{p.Pi, p.Pf, p.Po} {
		if v != nil {
			set++
		}
	}
	switch set {
	case 0:
	case 3:
		for name, v := range map[string]*mat.VecDense{"Pi": p.Pi, "Pf": p.Pf, "Po": p.Po} {
			if err := checkVec(name, v, hidden); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errs.Invalid("peephole vectors must be all set or all nil")
	}

	return &Kernel{Kind: KindLSTM, InSize: in, HiddenSize: hidden, LSTM: &p}, nil
}

func randomLSTMParams(rng *rand.Rand, in, hidden int) LSTMParams {
	// Input weights connect in inputs to 4*hidden gate outputs
	inputScale := math.Sqrt(2.0 / float64(in+4*hidden))
	// Recurrent weights connect hidden states to 4*hidden gate outputs
	recurrentScale := math.Sqrt(2.0 / float64(hidden+4*hidden))

	biases := make([]float64, 4*hidden)
	// Forget gate starts open
	for i := hidden; i < 2*hidden; i++ {
		biases[i] = 1.0
	}

	return LSTMParams{
		Wx: randomDense(rng, 4*hidden, in, inputScale),
		Wh: randomDense(rng, 4*hidden, hidden, recurrentScale),
		B:  mat.NewVecDense(4*hidden, biases),
	}
}

func (k *Kernel) stepLSTM(x, h, c []float64) State {
	p := k.LSTM
	n := k.HiddenSize
	inputStart, forgetStart, cellStart, outputStart := 0, n, 2*n, 3*n

	// Pre-activations for all four gates
	z := affine(p.Wx, x, p.B)
	addMulVec(z, p.Wh, h)

	gate := activations.Sigmoid{}
	cand := activations.Tanh{}
	peep := p.HasPeephole()

	next := State{H: make([]float64, n), C: make([]float64, n)}
	for j := 0; j < n; j++ {
		zi, zf := z[inputStart+j], z[forgetStart+j]
		if peep {
			zi += p.Pi.AtVec(j) * c[j]
			zf += p.Pf.AtVec(j) * c[j]
		}
		i := gate.Activate(zi)
		f := gate.Activate(zf)
		g := cand.Activate(z[cellStart+j])

		next.C[j] = f*c[j] + i*g

		zo := z[outputStart+j]
		if peep {
			zo += p.Po.AtVec(j) * next.C[j]
		}
		next.H[j] = gate.Activate(zo) * math.Tanh(next.C[j])
	}
	return next
}

func (p *LSTMParams) clone() *LSTMParams {
	out := &LSTMParams{
		Wx: mat.DenseCopyOf(p.Wx),
		Wh: mat.DenseCopyOf(p.Wh),
		B:  mat.VecDenseCopyOf(p.B),
	}
	if p.HasPeephole() {
		out.Pi = mat.VecDenseCopyOf(p.Pi)
		out.Pf = mat.VecDenseCopyOf(p.Pf)
		out.Po = mat.VecDenseCopyOf(p.Po)
	}
	return out
}

// WithPeephole returns a copy of p with zeroed peephole vectors added.
func (p LSTMParams) WithPeephole() LSTMParams {
	_, hidden := p.Wh.Dims()
	p.Pi = mat.NewVecDense(hidden, nil)
	p.Pf = mat.NewVecDense(hidden, nil)
	p.Po = mat.NewVecDense(hidden, nil)
	return p
}

// HasPeephole reports whether k is an LSTM kernel with peephole connections.
func (k *Kernel) HasPeephole() bool {
	return k.Kind == KindLSTM && k.LSTM != nil && k.LSTM.HasPeephole()
}

// WithPeephole returns a copy of an LSTM kernel with zeroed peephole
// vectors. A kernel that already has them is simply cloned.
func (k *Kernel) WithPeephole() (*Kernel, error) {
	if k.Kind != KindLSTM {
		return nil, errs.Invalid("peephole connections need an lstm kernel, got %s", k.Kind)
	}
	if k.HasPeephole() {
		return k.Clone(), nil
	}
	return NewLSTMKernel(k.LSTM.clone().WithPeephole())
}
