package train

import (
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/seqgan/discriminator"
	"go.uber.org/zap"
)

// Discriminator trains a discriminator.RNN to separate
// real samples from generated ones.
type Discriminator struct {
	Model     *discriminator.RNN
	Optimizer *Optimizer
}

// NewDiscriminator creates a Discriminator trainer with an
// Adam optimizer.
func NewDiscriminator(d *discriminator.RNN, stepSize float64,
	logger *zap.Logger) *Discriminator {
	return &Discriminator{
		Model:     d,
		Optimizer: NewOptimizer(d.Parameters(), stepSize, logger),
	}
}

// Step takes one classification step and returns the
// cross-entropy before the step.
func (d *Discriminator) Step(reals, fakes [][]int) (float64, error) {
	cost, err := d.Model.Cost(reals, fakes)
	if err != nil {
		return 0, essentials.AddCtx("discriminator step", err)
	}
	return d.Optimizer.Minimize("discriminator", cost)
}
