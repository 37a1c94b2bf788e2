package seqgan

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// A Cell runs a Generator one timestep at a time,
// keeping track of the recurrent state of every layer.
//
// A Cell is not safe for concurrent use.
// Use one Cell per Goroutine.
type Cell struct {
	Generator *Generator

	// NoGrad, if true, detaches each new state from the
	// graph of previous timesteps.
	// This keeps sampling from retaining every timestep
	// in memory, but gradients no longer flow through the
	// recurrent connections.
	NoGrad bool

	rand   *rand.Rand
	batch  int
	states []*LayerState
}

// Reset clears the recurrent state.
// The next step will start from a zero state.
func (c *Cell) Reset() {
	c.batch = 0
	c.states = nil
}

// BatchSize returns the batch size of the current state,
// or 0 if the state is clear.
func (c *Cell) BatchSize() int {
	return c.batch
}

// Step feeds a batch of tokens to the model and returns
// the next-token logits for every sequence.
//
// If training is true and the Generator has a dropout
// rate, dropout is applied to the input of every layer.
func (c *Cell) Step(tokens []int, training bool) anydiff.Res {
	g := c.Generator
	n := len(tokens)
	in := &anydiff.Matrix{
		Data: anydiff.NewConst(oneHot(g.Creator, tokens, nil, g.Config.VocabSize)),
		Rows: n,
		Cols: g.Config.VocabSize,
	}
	embedding := &anydiff.Matrix{
		Data: g.Embedding,
		Rows: g.Config.VocabSize,
		Cols: g.Config.EmbedDim,
	}
	return c.forward(anydiff.MatMul(false, false, in, embedding).Data, n, training)
}

// StepVector is like Step, but it takes packed input
// vectors of the embedding dimension instead of tokens.
func (c *Cell) StepVector(in anydiff.Res, training bool) anydiff.Res {
	embedDim := c.Generator.Config.EmbedDim
	if in.Output().Len()%embedDim != 0 || in.Output().Len() == 0 {
		panic("input size must be a positive multiple of the embedding dimension")
	}
	return c.forward(in, in.Output().Len()/embedDim, training)
}

// SetHidden starts a new state for a batch of n sequences
// in which the first layer's hidden state is h.
// All other state is zero.
func (c *Cell) SetHidden(h anydiff.Res, n int) {
	g := c.Generator
	if h.Output().Len() != n*g.Config.HiddenDim {
		panic("hidden state size mismatch")
	}
	c.start(n)
	c.states[0].Hidden = h
}

// Save takes a snapshot of the current state.
//
// The snapshot shares no memory with the Cell, so it is
// unaffected by later steps.
func (c *Cell) Save() *Snapshot {
	res := &Snapshot{batch: c.batch}
	for _, s := range c.states {
		res.layers = append(res.layers, copyState(s))
	}
	return res
}

// Restore sets the state to a copy of a snapshot.
//
// A snapshot may be restored any number of times, and
// it may be restored into a Cell other than the one it
// came from, provided both Cells share a Generator.
func (c *Cell) Restore(s *Snapshot) {
	c.batch = s.batch
	c.states = nil
	for _, l := range s.layers {
		c.states = append(c.states, copyState(l))
	}
}

func (c *Cell) start(n int) {
	g := c.Generator
	c.batch = n
	c.states = make([]*LayerState, len(g.Layers))
	for i, l := range g.Layers {
		c.states[i] = l.Start(g.Creator, n)
	}
}

func (c *Cell) forward(in anydiff.Res, n int, training bool) anydiff.Res {
	g := c.Generator
	if c.states == nil {
		c.start(n)
	} else if n != c.batch {
		panic("batch size changed without a reset")
	}

	dropout := &anynet.Dropout{
		Enabled:  training && g.Config.DropoutRate > 0,
		KeepProb: 1 - g.Config.DropoutRate,
	}

	x := in
	for i, layer := range g.Layers {
		next := layer.Step(c.states[i], dropout.Apply(x, n), n)
		if c.NoGrad {
			next = &LayerState{
				Cell:   anydiff.NewConst(next.Cell.Output()),
				Hidden: anydiff.NewConst(next.Hidden.Output()),
			}
		}
		c.states[i] = next
		x = next.Hidden
	}
	return g.Out.Apply(x, n)
}

// A Snapshot is an immutable copy of a Cell's state.
type Snapshot struct {
	batch  int
	layers []*LayerState
}

// BatchSize returns the batch size of the saved state.
func (s *Snapshot) BatchSize() int {
	return s.batch
}

func (s *Snapshot) layer(i int) *LayerState {
	return copyState(s.layers[i])
}

func copyState(s *LayerState) *LayerState {
	return &LayerState{
		Cell:   anydiff.NewConst(s.Cell.Output().Copy()),
		Hidden: anydiff.NewConst(s.Hidden.Output().Copy()),
	}
}

// oneHot creates a packed batch of one-hot vectors.
// If weights is non-nil, each vector is scaled by the
// corresponding weight.
func oneHot(c anyvec.Creator, tokens []int, weights []float64, vocab int) anyvec.Vector {
	data := make([]float64, len(tokens)*vocab)
	for i, tok := range tokens {
		if weights != nil {
			data[i*vocab+tok] = weights[i]
		} else {
			data[i*vocab+tok] = 1
		}
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}
