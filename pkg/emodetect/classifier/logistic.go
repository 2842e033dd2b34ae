package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Params holds the logistic regression hyperparameters.
type Params struct {
	C       float64 // inverse regularization strength; higher means weaker L2
	MaxIter int     // solver iteration bound
	Tol     float64 // stop once the largest gradient component is below Tol
}

// DefaultParams returns C=1, MaxIter=100, Tol=1e-4.
func DefaultParams() Params {
	return Params{C: 1.0, MaxIter: 100, Tol: 1e-4}
}

// historySize is the number of L-BFGS correction pairs kept.
const historySize = 10

// sparseRow keeps only the non-zero counts of a feature vector.
type sparseRow struct {
	idx []int
	val []float64
}

func toSparse(v features.Vector) sparseRow {
	var r sparseRow
	for i, c := range v {
		if c != 0 {
			r.idx = append(r.idx, i)
			r.val = append(r.val, float64(c))
		}
	}
	return r
}

// objective is the mean log-loss plus ||w||²/(2Cn). The intercept, stored
// in the last slot of theta, is not penalized.
type objective struct {
	rows []sparseRow
	y    []float64
	dim  int
	c    float64
}

func (o *objective) eval(theta, grad []float64) float64 {
	n := float64(len(o.rows))
	d := o.dim
	for i := range grad {
		grad[i] = 0
	}

	var loss float64
	for i, row := range o.rows {
		z := theta[d]
		for k, j := range row.idx {
			z += theta[j] * row.val[k]
		}
		loss += logOnePlusExp(z) - o.y[i]*z
		resid := sigmoid(z) - o.y[i]
		for k, j := range row.idx {
			grad[j] += resid * row.val[k]
		}
		grad[d] += resid
	}

	var reg float64
	for j := 0; j < d; j++ {
		reg += theta[j] * theta[j]
		grad[j] += theta[j] / o.c
	}
	for i := range grad {
		grad[i] /= n
	}
	return (loss + reg/(2*o.c)) / n
}

// problem exposes eval as the Func/Grad pair gonum's optimizers expect.
// Evaluations run one at a time, so the scratch gradient can be shared.
func (o *objective) problem() optimize.Problem {
	scratch := make([]float64, o.dim+1)
	return optimize.Problem{
		Func: func(theta []float64) float64 { return o.eval(theta, scratch) },
		Grad: func(grad, theta []float64) { o.eval(theta, grad) },
	}
}

// Train fits an L2-regularized binary logistic regression with L-BFGS and a
// More-Thuente line search.
//
// The starting point counts as the first iteration. If the largest gradient
// component is still above p.Tol when the solver stops, the best-effort
// model is returned together with an error wrapping
// internalerr.ErrConvergence; the model is usable in that case.
func Train(vectors []features.Vector, labels []dataset.Label, p Params) (*Model, error) {
	if err := validate(vectors, labels, p); err != nil {
		return nil, err
	}
	if p.Tol <= 0 {
		p.Tol = DefaultParams().Tol
	}

	dim := len(vectors[0])
	obj := &objective{
		rows: make([]sparseRow, len(vectors)),
		y:    make([]float64, len(labels)),
		dim:  dim,
		c:    p.C,
	}
	for i, v := range vectors {
		obj.rows[i] = toSparse(v)
		obj.y[i] = float64(labels[i])
	}

	settings := &optimize.Settings{
		GradientThreshold: p.Tol,
		MajorIterations:   p.MaxIter,
		// only the gradient test decides convergence
		Converger: optimize.NeverTerminate{},
	}
	method := &optimize.LBFGS{
		Store:             historySize,
		Linesearcher:      &optimize.MoreThuente{},
		GradStopThreshold: math.NaN(),
	}
	res, err := optimize.Minimize(obj.problem(), make([]float64, dim+1), settings, method)
	if res == nil {
		return nil, fmt.Errorf("logistic regression: %w: %w", internalerr.ErrInvalidInput, err)
	}

	theta := res.X
	gradNorm := maxAbs(res.Gradient)
	converged := res.Gradient != nil && gradNorm <= p.Tol
	m := &Model{
		Weights:    append([]float64(nil), theta[:dim]...),
		Intercept:  theta[dim],
		Iterations: res.MajorIterations,
		Converged:  converged,
	}
	if !converged {
		reason := res.Status.String()
		if err != nil {
			reason += ": " + err.Error()
		}
		return m, fmt.Errorf("logistic regression stopped after %d iterations (%s, max |grad| %.3g > tol %.3g): %w",
			res.MajorIterations, reason, gradNorm, p.Tol, internalerr.ErrConvergence)
	}
	return m, nil
}

func validate(vectors []features.Vector, labels []dataset.Label, p Params) error {
	if len(vectors) == 0 {
		return fmt.Errorf("no training vectors: %w", internalerr.ErrInvalidInput)
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("%d vectors but %d labels: %w", len(vectors), len(labels), internalerr.ErrInvalidInput)
	}
	if p.C <= 0 || math.IsNaN(p.C) || math.IsInf(p.C, 0) {
		return fmt.Errorf("regularization C=%v must be positive: %w", p.C, internalerr.ErrInvalidInput)
	}
	if p.MaxIter <= 0 {
		return fmt.Errorf("max iterations %d must be positive: %w", p.MaxIter, internalerr.ErrInvalidInput)
	}
	dim := len(vectors[0])
	var pos, neg int
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has width %d, want %d: %w", i, len(v), dim, internalerr.ErrInvalidInput)
		}
		switch labels[i] {
		case dataset.Positive:
			pos++
		case dataset.Negative:
			neg++
		default:
			return fmt.Errorf("label %d at %d: %w", labels[i], i, internalerr.ErrInvalidInput)
		}
	}
	if pos == 0 || neg == 0 {
		return fmt.Errorf("training labels contain a single class: %w", internalerr.ErrInvalidInput)
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logOnePlusExp computes log(1+e^z) without overflow.
func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// maxAbs is the infinity norm, the quantity Tol bounds.
func maxAbs(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}
