// Package seqgan implements a sequence generator that is
// trained adversarially with policy gradients.
//
// The generator is a stack of LSTMs that is first
// pre-trained with maximum likelihood, then fine-tuned
// with REINFORCE using rewards that a discriminator
// assigns to Monte-Carlo rollouts of partial sequences.
//
// Losses are returned as anydiff results, leaving the
// choice of optimizer up to the caller (see the train
// sub-package).
package seqgan

import "github.com/unixpickle/anydiff"

// A Discriminator scores complete sequences.
//
// Reward returns one scalar per sequence in the batch,
// typically the probability that the sequence is real.
//
// A Discriminator used for parallel rollouts must be safe
// to call from multiple Goroutines at once.
type Discriminator interface {
	Reward(samples [][]int) ([]float64, error)
}

// An Encoder maps a batch of sequences to a latent code.
//
// The hidden result has one hidden vector (of the
// generator's hidden size) per sequence.
// The mean and logVar results parameterize a diagonal
// Gaussian with the same shape.
type Encoder interface {
	Encode(samples [][]int) (hidden, mean, logVar anydiff.Res, err error)
}

// A ReferenceModel measures how likely it is to produce a
// batch of sequences.
// It is usually an oracle used to evaluate a generator on
// synthetic data.
type ReferenceModel interface {
	Loss(samples [][]int) (float64, error)
}
