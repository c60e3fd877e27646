package layer

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
)

// Dense is the output projection y = act(W·h + B) applied to every hidden
// state of an unroll. It holds no per-call state.
type Dense struct {
	W   *mat.Dense    // out × in
	B   *mat.VecDense // out
	Act activations.Activation
}

// NewDense creates a projection with Xavier/Glorot weights and zero biases.
// A nil act means linear.
func NewDense(in, out int, act activations.Activation, seed uint64) (*Dense, error) {
	if in <= 0 || out <= 0 {
		return nil, errs.Invalid("dense sizes must be positive, got in=%d out=%d", in, out)
	}
	scale := math.Sqrt(2.0 / (float64(in) + float64(out)))
	rng := newRNG(seed ^ 0xd1b54a32d192ed03)
	return NewDenseFromParams(randomDense(rng, out, in, scale), mat.NewVecDense(out, nil), act)
}

// NewDenseFromParams validates explicit weights and biases.
func NewDenseFromParams(w *mat.Dense, b *mat.VecDense, act activations.Activation) (*Dense, error) {
	if w == nil {
		return nil, errs.Invalid("W is nil")
	}
	out, in := w.Dims()
	if out == 0 || in == 0 {
		return nil, errs.Invalid("W must not be empty")
	}
	if err := checkVec("B", b, out); err != nil {
		return nil, err
	}
	if act == nil {
		act = activations.Linear{}
	}
	return &Dense{W: w, B: b, Act: act}, nil
}

// Apply projects one hidden state.
func (d *Dense) Apply(h []float64) ([]float64, error) {
	if len(h) != d.InSize() {
		return nil, errs.Shape("projection input", d.InSize(), len(h))
	}
	y := affine(d.W, h, d.B)
	for i := range y {
		y[i] = d.Act.Activate(y[i])
	}
	return y, nil
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	_, c := d.W.Dims()
	return c
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	r, _ := d.W.Dims()
	return r
}

// NumParams returns the number of scalar parameters.
func (d *Dense) NumParams() int {
	return d.InSize()*d.OutSize() + d.OutSize()
}

// Params returns all dense layer parameters flattened.
func (d *Dense) Params() []float64 {
	params := make([]float64, 0, d.NumParams())
	params = appendDense(params, d.W)
	return appendVec(params, d.B)
}

// SetParams updates weights and biases from a flattened slice (in-place).
func (d *Dense) SetParams(params []float64) error {
	if len(params) != d.NumParams() {
		return errs.Shape("dense params", d.NumParams(), len(params))
	}
	off := setDense(d.W, params, 0)
	setVec(d.B, params, off)
	return nil
}

// Clone creates a deep copy of the projection.
func (d *Dense) Clone() *Dense {
	return &Dense{W: mat.DenseCopyOf(d.W), B: mat.VecDenseCopyOf(d.B), Act: d.Act}
}
