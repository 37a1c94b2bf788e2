package seqgan

import (
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/stat"
)

// TargetLoss generates total/batchSize batches of samples
// and returns the mean loss that ref assigns to them.
func (g *Generator) TargetLoss(ref ReferenceModel, total, batchSize int) (float64, error) {
	if ref == nil {
		return 0, essentials.AddCtx("target loss", malformed("nil reference model"))
	}
	if batchSize < 1 || total < batchSize {
		return 0, essentials.AddCtx("target loss",
			malformed("%d samples in batches of %d", total, batchSize))
	}
	losses := make([]float64, total/batchSize)
	for i := range losses {
		samples, err := g.Generate(batchSize)
		if err != nil {
			return 0, essentials.AddCtx("target loss", err)
		}
		losses[i], err = ref.Loss(samples)
		if err != nil {
			return 0, essentials.AddCtx("target loss", err)
		}
	}
	return stat.Mean(losses, nil), nil
}
