// Package discriminator implements a recurrent classifier
// that tells real token sequences apart from generated
// ones.
//
// An *RNN can be used as a seqgan.Discriminator.
package discriminator

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// ErrInvalidSamples is returned for empty batches, empty
// sequences, and out-of-vocabulary tokens.
var ErrInvalidSamples = errors.New("invalid samples")

// An RNN reads one-hot tokens with an LSTM and classifies
// the final hidden state.
type RNN struct {
	VocabSize int
	Block     anyrnn.Block

	// Out maps the final hidden state to a logit.
	// Positive logits mean "real".
	Out *anynet.FC
}

// New creates a randomly initialized RNN.
func New(c anyvec.Creator, vocabSize, hiddenSize int) *RNN {
	return &RNN{
		VocabSize: vocabSize,
		Block:     anyrnn.NewLSTM(c, vocabSize, hiddenSize),
		Out:       anynet.NewFC(c, hiddenSize, 1),
	}
}

// Apply computes one logit per sequence.
//
// Sequences need not have the same length.
func (r *RNN) Apply(samples [][]int) (anydiff.Res, error) {
	if err := r.check(samples); err != nil {
		return nil, essentials.AddCtx("apply discriminator", err)
	}
	c := r.creator()
	seqs := make([][]anyvec.Vector, len(samples))
	for i, sample := range samples {
		for _, tok := range sample {
			data := make([]float64, r.VocabSize)
			data[tok] = 1
			seqs[i] = append(seqs[i], c.MakeVectorData(c.MakeNumericList(data)))
		}
	}
	outSeq := anyrnn.Map(anyseq.ConstSeqList(c, seqs), r.Block)
	return r.Out.Apply(anyseq.Tail(outSeq), len(samples)), nil
}

// Reward returns the probability that each sequence is
// real.
func (r *RNN) Reward(samples [][]int) ([]float64, error) {
	logits, err := r.Apply(samples)
	if err != nil {
		return nil, err
	}
	return vectorData(anydiff.Sigmoid(logits).Output()), nil
}

// Cost computes the mean binary cross-entropy of the
// classifier on a batch of real and fake sequences.
func (r *RNN) Cost(reals, fakes [][]int) (anydiff.Res, error) {
	all := append(append([][]int{}, reals...), fakes...)
	logits, err := r.Apply(all)
	if err != nil {
		return nil, essentials.AddCtx("discriminator cost", err)
	}
	c := r.creator()
	signs := make([]float64, len(all))
	for i := range signs {
		if i < len(reals) {
			signs[i] = 1
		} else {
			signs[i] = -1
		}
	}
	signVec := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(signs)))
	logProbs := anydiff.LogSigmoid(anydiff.Mul(logits, signVec))
	return anydiff.Scale(anydiff.Sum(logProbs), c.MakeNumeric(-1/float64(len(all)))), nil
}

// Parameters returns the trainable parameters.
func (r *RNN) Parameters() []*anydiff.Var {
	return anynet.AllParameters(r.Block, r.Out)
}

func (r *RNN) creator() anyvec.Creator {
	return r.Out.Weights.Vector.Creator()
}

func (r *RNN) check(samples [][]int) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidSamples)
	}
	for i, sample := range samples {
		if len(sample) == 0 {
			return fmt.Errorf("%w: sequence %d is empty", ErrInvalidSamples, i)
		}
		for _, tok := range sample {
			if tok < 0 || tok >= r.VocabSize {
				return fmt.Errorf("%w: token %d outside vocabulary of size %d",
					ErrInvalidSamples, tok, r.VocabSize)
			}
		}
	}
	return nil
}

func vectorData(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		return data
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	default:
		panic("unsupported numeric type")
	}
}
