package layer

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// SimpleParams holds the weights of the plain recurrence
// h' = tanh(Wx·x + Bx + Ws·h + Bs).
type SimpleParams struct {
	Wx *mat.Dense    // hidden × in
	Bx *mat.VecDense // hidden
	Ws *mat.Dense    // hidden × hidden
	Bs *mat.VecDense // hidden
}

// NewSimpleKernel validates p and wraps it in a Kernel. The sizes are taken
// from Wx.
func NewSimpleKernel(p SimpleParams) (*Kernel, error) {
	if p.Wx == nil {
		return nil, errs.Invalid("Wx is nil")
	}
	hidden, in := p.Wx.Dims()
	if hidden == 0 || in == 0 {
		return nil, errs.Invalid("Wx must not be empty")
	}
	if err := checkVec("Bx", p.Bx, hidden); err != nil {
		return nil, err
	}
	if err := checkDense("Ws", p.Ws, hidden, hidden); err != nil {
		return nil, err
	}
	if err := checkVec("Bs", p.Bs, hidden); err != nil {
		return nil, err
	}
	return &Kernel{Kind: KindSimple, InSize: in, HiddenSize: hidden, Simple: &p}, nil
}

func randomSimpleParams(rng *rand.Rand, in, hidden int) SimpleParams {
	inputScale := math.Sqrt(2.0 / float64(in+hidden))
	recurrentScale := math.Sqrt(2.0 / float64(2*hidden))
	return SimpleParams{
		Wx: randomDense(rng, hidden, in, inputScale),
		Bx: mat.NewVecDense(hidden, nil),
		Ws: randomDense(rng, hidden, hidden, recurrentScale),
		Bs: mat.NewVecDense(hidden, nil),
	}
}

func (k *Kernel) stepSimple(x, h []float64) State {
	p := k.Simple
	z := affine(p.Wx, x, p.Bx)
	addMulVec(z, p.Ws, h)

	act := activations.Tanh{}
	next := make([]float64, k.HiddenSize)
	for i := range next {
		next[i] = act.Activate(z[i] + p.Bs.AtVec(i))
	}
	return State{H: next}
}

func (p *SimpleParams) clone() *SimpleParams {
	return &SimpleParams{
		Wx: mat.DenseCopyOf(p.Wx),
		Bx: mat.VecDenseCopyOf(p.Bx),
		Ws: mat.DenseCopyOf(p.Ws),
		Bs: mat.VecDenseCopyOf(p.Bs),
	}
}
