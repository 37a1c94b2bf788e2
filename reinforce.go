package seqgan

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
)

// PolicyGradientLoss computes the REINFORCE surrogate loss
// for a batch of sampled sequences.
//
// The rewards matrix has one row per sequence and one
// column per timestep; entry (i, t) weighs the
// log-probability of token t of sequence i.
// The weighted log-likelihood is summed, negated, and
// divided by normalizer (typically the number of
// generator updates per training round).
func (g *Generator) PolicyGradientLoss(samples [][]int, rewards mat.Matrix,
	normalizer float64) (anydiff.Res, error) {
	if err := g.checkSamples(samples); err != nil {
		return nil, essentials.AddCtx("policy gradient loss", err)
	}
	if rewards == nil {
		return nil, essentials.AddCtx("policy gradient loss", malformed("nil rewards"))
	}
	if rows, cols := rewards.Dims(); rows != len(samples) || cols != g.Config.SeqLen {
		return nil, essentials.AddCtx("policy gradient loss",
			mismatch("rewards are %dx%d (expected %dx%d)", rows, cols, len(samples),
				g.Config.SeqLen))
	}
	if !(normalizer > 0) || math.IsInf(normalizer, 0) {
		return nil, essentials.AddCtx("policy gradient loss",
			malformed("normalizer %f", normalizer))
	}

	ll := g.logLikelihood(g.NewCell(), samples, nil, true, rewards.At)
	return anydiff.Scale(ll, g.Creator.MakeNumeric(-1/normalizer)), nil
}
