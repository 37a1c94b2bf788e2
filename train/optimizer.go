// Package train performs individual optimization steps on
// generators and discriminators.
//
// Scheduling the steps (how many pre-training epochs, how
// many discriminator updates per generator update, etc.)
// is left to the caller.
package train

import (
	"errors"
	"fmt"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"go.uber.org/zap"
)

// ErrNonFinite is returned when a loss is NaN or infinite.
// No step is taken in this case.
var ErrNonFinite = errors.New("non-finite loss")

// An Optimizer minimizes scalar losses with respect to a
// fixed list of parameters.
//
// The Transformer sees gradients for the same variables
// on every step, so a separate Optimizer is needed for
// every distinct set of parameters.
type Optimizer struct {
	Params      []*anydiff.Var
	Transformer anysgd.Transformer
	StepSize    float64
	Logger      *zap.Logger
}

// NewOptimizer creates an Adam optimizer.
// The logger may be nil.
func NewOptimizer(params []*anydiff.Var, stepSize float64, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		Params:      params,
		Transformer: &anysgd.Adam{},
		StepSize:    stepSize,
		Logger:      logger,
	}
}

// Minimize takes a step against the gradient of a
// one-component loss and returns the loss before the step.
func (o *Optimizer) Minimize(objective string, loss anydiff.Res) (float64, error) {
	out := loss.Output()
	if out.Len() != 1 {
		return 0, fmt.Errorf("minimize %s: loss has %d components", objective, out.Len())
	}
	value := numericFloat(anyvec.Sum(out))
	if math.IsNaN(value) || math.IsInf(value, 0) {
		o.Logger.Warn("skipping step", zap.String("objective", objective),
			zap.Float64("loss", value))
		return value, fmt.Errorf("minimize %s: %w", objective, ErrNonFinite)
	}

	c := out.Creator()
	grad := anydiff.NewGrad(o.Params...)
	loss.Propagate(c.MakeVectorData(c.MakeNumericList([]float64{1})), grad)
	grad = o.Transformer.Transform(grad)
	grad.Scale(c.MakeNumeric(-o.StepSize))
	grad.AddToVars()

	o.Logger.Debug("step", zap.String("objective", objective), zap.Float64("loss", value),
		zap.Int("params", len(o.Params)))
	return value, nil
}

func numericFloat(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		panic("unsupported numeric type")
	}
}
