package seqgan

import "math"

// DefaultRewardGamma is the reward discount used when a
// Config leaves RewardGamma unset.
const DefaultRewardGamma = 0.95

// MaxLayers is the maximum number of stacked LSTMs.
const MaxLayers = 4

// Config stores the hyper-parameters of a Generator.
//
// A Config is fixed for the lifetime of the Generator it
// was used to create.
type Config struct {
	SeqLen     int
	VocabSize  int
	EmbedDim   int
	HiddenDim  int
	StartToken int

	// NumLayers is the number of stacked LSTMs, from 1 to
	// MaxLayers.
	NumLayers int

	// RewardGamma is a reward discount factor.
	// It must be finite and non-negative.
	// It is not used by the generator itself, but it is
	// kept alongside the other hyper-parameters.
	RewardGamma float64

	// DropoutRate is the probability of dropping an input
	// to each LSTM during training.
	// A rate of 0 disables dropout.
	DropoutRate float64

	// FreePretrain, if true, feeds Gaussian noise instead
	// of the start token at the first pre-training step.
	FreePretrain bool

	// Oracle, if true, initializes the first LSTM with
	// N(0, 0.1^2) weights, which makes the generator more
	// suitable as a synthetic data oracle.
	Oracle bool

	// Encoder is used by the conditioned pre-training
	// objectives.
	// It may be nil.
	Encoder Encoder
}

// Validate checks that the hyper-parameters can be used
// to build a Generator.
func (c *Config) Validate() error {
	switch {
	case c.SeqLen < 1:
		return malformed("sequence length %d", c.SeqLen)
	case c.VocabSize < 1:
		return malformed("vocabulary size %d", c.VocabSize)
	case c.EmbedDim < 1:
		return malformed("embedding dimension %d", c.EmbedDim)
	case c.HiddenDim < 1:
		return malformed("hidden dimension %d", c.HiddenDim)
	case c.StartToken < 0 || c.StartToken >= c.VocabSize:
		return malformed("start token %d outside vocabulary", c.StartToken)
	case c.NumLayers < 1 || c.NumLayers > MaxLayers:
		return malformed("layer count %d (must be 1 to %d)", c.NumLayers, MaxLayers)
	case !(c.DropoutRate >= 0 && c.DropoutRate < 1):
		return malformed("dropout rate %f", c.DropoutRate)
	case math.IsNaN(c.RewardGamma) || math.IsInf(c.RewardGamma, 0) || c.RewardGamma < 0:
		return malformed("reward discount %f", c.RewardGamma)
	}
	return nil
}
