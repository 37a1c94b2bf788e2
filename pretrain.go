package seqgan

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// PretrainLoss computes the teacher-forced cross-entropy
// of a batch of sequences, averaged over the batch and
// over time.
//
// In free pre-training mode, the first input is Gaussian
// noise rather than the start token.
func (g *Generator) PretrainLoss(samples [][]int) (anydiff.Res, error) {
	if err := g.checkSamples(samples); err != nil {
		return nil, essentials.AddCtx("pretrain loss", err)
	}
	cell := g.NewCell()
	var first anydiff.Res
	if g.Config.FreePretrain {
		noise := g.Creator.MakeVector(len(samples) * g.Config.EmbedDim)
		randomize(noise, 0.1, cell.rand)
		first = anydiff.NewConst(noise)
	}
	return g.crossEntropy(cell, samples, first, true), nil
}

// PretrainAutoencoderLoss is like PretrainLoss, but the
// first layer's hidden state starts as the encoding of
// the samples produced by the configured Encoder.
func (g *Generator) PretrainAutoencoderLoss(samples [][]int) (anydiff.Res, error) {
	if err := g.checkSamples(samples); err != nil {
		return nil, essentials.AddCtx("autoencoder loss", err)
	}
	hidden, _, _, err := g.encode(samples)
	if err != nil {
		return nil, essentials.AddCtx("autoencoder loss", err)
	}
	if err := g.checkLatent("hidden", hidden, len(samples)); err != nil {
		return nil, essentials.AddCtx("autoencoder loss", err)
	}
	cell := g.NewCell()
	cell.SetHidden(hidden, len(samples))
	return g.crossEntropy(cell, samples, nil, true), nil
}

// PretrainVariationalLoss is like PretrainAutoencoderLoss,
// but the initial hidden state is sampled from the
// Gaussian produced by the Encoder.
//
// It returns the reconstruction cross-entropy and the KL
// divergence between the Gaussian and a standard normal,
// divided by the batch size.
// The caller decides how to weigh the two terms.
func (g *Generator) PretrainVariationalLoss(samples [][]int) (recon, kl anydiff.Res,
	err error) {
	defer essentials.AddCtxTo("variational loss", &err)
	if err := g.checkSamples(samples); err != nil {
		return nil, nil, err
	}
	_, mean, logVar, err := g.encode(samples)
	if err != nil {
		return nil, nil, err
	}
	n := len(samples)
	if err := g.checkLatent("mean", mean, n); err != nil {
		return nil, nil, err
	}
	if err := g.checkLatent("log variance", logVar, n); err != nil {
		return nil, nil, err
	}

	cell := g.NewCell()
	c := g.Creator
	noise := c.MakeVector(mean.Output().Len())
	anyvec.Rand(noise, anyvec.Normal, cell.rand)
	stddev := anydiff.Exp(anydiff.Scale(logVar, c.MakeNumeric(0.5)))
	z := anydiff.Add(mean, anydiff.Mul(stddev, anydiff.NewConst(noise)))
	cell.SetHidden(z, n)

	recon = g.crossEntropy(cell, samples, nil, true)
	kl = anydiff.Scale(gaussianKL(mean, logVar), c.MakeNumeric(1/float64(n)))
	return recon, kl, nil
}

// Loss computes the mean per-token negative
// log-likelihood of the samples without dropout.
//
// This makes a Generator usable as a ReferenceModel.
func (g *Generator) Loss(samples [][]int) (float64, error) {
	if err := g.checkSamples(samples); err != nil {
		return 0, essentials.AddCtx("loss", err)
	}
	cell := g.NewCell()
	cell.NoGrad = true
	loss := g.crossEntropy(cell, samples, nil, false)
	return numericFloat(anyvec.Sum(loss.Output())), nil
}

func (g *Generator) crossEntropy(cell *Cell, samples [][]int, first anydiff.Res,
	training bool) anydiff.Res {
	ll := g.logLikelihood(cell, samples, first, training, func(i, t int) float64 {
		return 1
	})
	scale := -1 / float64(len(samples)*g.Config.SeqLen)
	return anydiff.Scale(ll, g.Creator.MakeNumeric(scale))
}

// logLikelihood runs the Cell on the samples with teacher
// forcing and sums the log-probabilities of the sampled
// tokens, each multiplied by weight(i, t) for sequence i
// and timestep t.
//
// If first is non-nil, it is fed to the first timestep in
// place of the start token.
//
// The Cell is reset unless it already has a state for
// the batch, making it possible to pre-load a hidden
// state with SetHidden.
func (g *Generator) logLikelihood(cell *Cell, samples [][]int, first anydiff.Res,
	training bool, weight func(i, t int) float64) anydiff.Res {
	c := g.Creator
	n := len(samples)
	if cell.BatchSize() != n {
		cell.Reset()
	}

	weights := make([]float64, n)
	var total anydiff.Res = anydiff.NewConst(c.MakeVector(1))
	for t := 0; t < g.Config.SeqLen; t++ {
		var logits anydiff.Res
		if t == 0 && first != nil {
			logits = cell.StepVector(first, training)
		} else if t == 0 {
			logits = cell.Step(repeatToken(g.Config.StartToken, n), training)
		} else {
			logits = cell.Step(column(samples, t-1), training)
		}
		for i := range weights {
			weights[i] = weight(i, t)
		}
		mask := oneHot(c, column(samples, t), weights, g.Config.VocabSize)
		logProbs := anydiff.LogSoftmax(logits, g.Config.VocabSize)
		total = anydiff.Add(total, anydiff.Sum(anydiff.Mul(logProbs, anydiff.NewConst(mask))))
	}
	return total
}

func (g *Generator) encode(samples [][]int) (hidden, mean, logVar anydiff.Res, err error) {
	if g.Config.Encoder == nil {
		return nil, nil, nil, malformed("no encoder configured")
	}
	hidden, mean, logVar, err = g.Config.Encoder.Encode(samples)
	if err != nil {
		return nil, nil, nil, essentials.AddCtx("encode", err)
	}
	return
}

func (g *Generator) checkLatent(name string, r anydiff.Res, n int) error {
	if r == nil {
		return mismatch("encoder produced no %s", name)
	}
	if r.Output().Len() != n*g.Config.HiddenDim {
		return mismatch("encoder %s has %d components (expected %d)", name,
			r.Output().Len(), n*g.Config.HiddenDim)
	}
	return nil
}

// gaussianKL computes the KL divergence between a diagonal
// Gaussian and the standard normal, summed over every
// component.
func gaussianKL(mean, logVar anydiff.Res) anydiff.Res {
	c := mean.Output().Creator()
	terms := anydiff.Sub(anydiff.Add(anydiff.Mul(mean, mean), anydiff.Exp(logVar)), logVar)
	count := c.MakeVectorData(c.MakeNumericList([]float64{float64(mean.Output().Len())}))
	return anydiff.Scale(anydiff.Sub(anydiff.Sum(terms), anydiff.NewConst(count)),
		c.MakeNumeric(0.5))
}
