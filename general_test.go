package seqgan

import (
	"sync"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func smallConfig() Config {
	return Config{
		SeqLen:     5,
		VocabSize:  10,
		EmbedDim:   4,
		HiddenDim:  6,
		StartToken: 0,
		NumLayers:  2,
	}
}

func testGenerator(t *testing.T, cfg Config) *Generator {
	g, err := NewGenerator(anyvec64.DefaultCreator{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	g.Seed(1337)
	return g
}

func scalar(r anydiff.Res) float64 {
	return numericFloat(anyvec.Sum(r.Output()))
}

func vectorsClose(t *testing.T, context string, actual, expected anyvec.Vector) {
	if actual.Len() != expected.Len() {
		t.Errorf("%s: length %d (expected %d)", context, actual.Len(), expected.Len())
		return
	}
	diff := actual.Copy()
	diff.Sub(expected)
	if maxDiff := numericFloat(anyvec.AbsMax(diff)); maxDiff > 1e-8 {
		t.Errorf("%s: max difference %e", context, maxDiff)
	}
}

// constDiscriminator gives every sequence the same reward.
type constDiscriminator float64

func (c constDiscriminator) Reward(samples [][]int) ([]float64, error) {
	res := make([]float64, len(samples))
	for i := range res {
		res[i] = float64(c)
	}
	return res, nil
}

// countDiscriminator rewards sequences for containing a
// given token.
type countDiscriminator int

func (c countDiscriminator) Reward(samples [][]int) ([]float64, error) {
	res := make([]float64, len(samples))
	for i, seq := range samples {
		for _, tok := range seq {
			if tok == int(c) {
				res[i]++
			}
		}
		res[i] /= float64(len(seq))
	}
	return res, nil
}

// prefixDiscriminator scores sequences by the length of
// their common prefix with a reference batch.
// It records every batch it is asked to score.
type prefixDiscriminator struct {
	Reference [][]int

	lock    sync.Mutex
	Batches [][][]int
}

func (p *prefixDiscriminator) Reward(samples [][]int) ([]float64, error) {
	p.lock.Lock()
	p.Batches = append(p.Batches, samples)
	p.lock.Unlock()

	res := make([]float64, len(samples))
	for i, seq := range samples {
		for j, tok := range seq {
			if tok != p.Reference[i][j] {
				break
			}
			res[i]++
		}
	}
	return res, nil
}

// repeatEncoder encodes every sequence as the same learned
// vector.
type repeatEncoder struct {
	Hidden *anydiff.Var
	LogVar *anydiff.Var
}

func newRepeatEncoder(c anyvec.Creator, size int) *repeatEncoder {
	hidden := c.MakeVector(size)
	anyvec.Rand(hidden, anyvec.Normal, nil)
	logVar := c.MakeVector(size)
	logVar.AddScalar(c.MakeNumeric(-1))
	return &repeatEncoder{Hidden: anydiff.NewVar(hidden), LogVar: anydiff.NewVar(logVar)}
}

func (r *repeatEncoder) Encode(samples [][]int) (hidden, mean, logVar anydiff.Res,
	err error) {
	var hiddens, logVars []anydiff.Res
	for range samples {
		hiddens = append(hiddens, r.Hidden)
		logVars = append(logVars, r.LogVar)
	}
	hidden = anydiff.Concat(hiddens...)
	return hidden, hidden, anydiff.Concat(logVars...), nil
}

func defaultCreator() anyvec.Creator {
	return anyvec64.DefaultCreator{}
}
