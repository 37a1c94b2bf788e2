package seqgan

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedArgument is returned when an argument can
	// never be valid, e.g. a non-positive rollout count.
	ErrMalformedArgument = errors.New("malformed argument")

	// ErrShapeMismatch is returned when batch or sequence
	// dimensions disagree with each other or with the
	// model configuration.
	ErrShapeMismatch = errors.New("shape mismatch")
)

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformedArgument}, args...)...)
}

func mismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrShapeMismatch}, args...)...)
}

// checkSamples makes sure that a token batch is non-empty,
// rectangular with the configured sequence length, and
// within the vocabulary.
func (g *Generator) checkSamples(samples [][]int) error {
	if len(samples) == 0 {
		return mismatch("empty batch")
	}
	for i, seq := range samples {
		if len(seq) != g.Config.SeqLen {
			return mismatch("sequence %d has length %d (expected %d)", i, len(seq),
				g.Config.SeqLen)
		}
		for j, tok := range seq {
			if tok < 0 || tok >= g.Config.VocabSize {
				return mismatch("token %d at (%d, %d) outside vocabulary of size %d",
					tok, i, j, g.Config.VocabSize)
			}
		}
	}
	return nil
}
