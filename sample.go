package seqgan

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// Generate samples a batch of n sequences.
func (g *Generator) Generate(n int) ([][]int, error) {
	if n < 1 {
		return nil, essentials.AddCtx("generate", malformed("batch size %d", n))
	}
	if err := g.checkTemperature(); err != nil {
		return nil, essentials.AddCtx("generate", err)
	}
	cell := g.NewCell()
	cell.NoGrad = true
	return cell.generate(n), nil
}

func (c *Cell) generate(n int) [][]int {
	g := c.Generator
	res := make([][]int, n)
	for i := range res {
		res[i] = make([]int, g.Config.SeqLen)
	}

	c.Reset()
	tokens := repeatToken(g.Config.StartToken, n)
	for t := 0; t < g.Config.SeqLen; t++ {
		logits := c.Step(tokens, false)
		tokens = c.sample(logits.Output())
		for i, tok := range tokens {
			res[i][t] = tok
		}
	}
	return res
}

// sample draws one token per row of a packed batch of
// logits.
func (c *Cell) sample(logits anyvec.Vector) []int {
	g := c.Generator
	vocab := g.Config.VocabSize

	probs := logits.Copy()
	if g.Temperature != 0 && g.Temperature != 1 {
		probs.Scale(probs.Creator().MakeNumeric(1 / g.Temperature))
	}
	anyvec.LogSoftmax(probs, vocab)
	anyvec.Exp(probs)

	data := vectorData(probs)
	res := make([]int, len(data)/vocab)
	for i := range res {
		res[i] = sampleIndex(data[i*vocab:(i+1)*vocab], c.rand)
	}
	return res
}

func (g *Generator) checkTemperature() error {
	t := g.Temperature
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return malformed("temperature %f", t)
	}
	return nil
}

// sampleIndex samples an index from a categorical
// distribution.
func sampleIndex(probs []float64, r *rand.Rand) int {
	x := r.Float64()
	last := 0
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		x -= p
		if x < 0 {
			return i
		}
		last = i
	}
	// Rounding error left some probability mass over.
	return last
}

func repeatToken(tok, n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = tok
	}
	return res
}

func column(samples [][]int, t int) []int {
	res := make([]int, len(samples))
	for i, seq := range samples {
		res[i] = seq[t]
	}
	return res
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
