package seqgan

import (
	"math/rand"
	"sync"
	"time"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// A Generator is a stacked-LSTM language model over a
// fixed-size vocabulary that produces fixed-length token
// sequences.
//
// The Generator only stores weights.
// Recurrent state lives in a Cell, so many Cells may use
// the same Generator at once as long as the weights are
// not being updated.
type Generator struct {
	Config  Config
	Creator anyvec.Creator

	// Embedding is a VocabSize x EmbedDim row-major matrix.
	Embedding *anydiff.Var

	Layers []*LSTM
	Out    *anynet.FC

	// Temperature divides the logits before sampling.
	// It must be finite and non-negative; 0 is treated
	// like 1.
	Temperature float64

	seedLock sync.Mutex
	seeds    *rand.Rand
}

// NewGenerator creates a randomly initialized Generator.
func NewGenerator(c anyvec.Creator, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("new generator", err)
	}
	if cfg.RewardGamma == 0 {
		cfg.RewardGamma = DefaultRewardGamma
	}

	res := &Generator{
		Config:      cfg,
		Creator:     c,
		Temperature: 1,
		seeds:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	embedding := c.MakeVector(cfg.VocabSize * cfg.EmbedDim)
	randomize(embedding, 0.1, nil)
	res.Embedding = anydiff.NewVar(embedding)

	for i := 0; i < cfg.NumLayers; i++ {
		inSize := cfg.HiddenDim
		if i == 0 {
			inSize = cfg.EmbedDim
		}
		res.Layers = append(res.Layers, NewLSTM(c, nil, inSize, cfg.HiddenDim))
	}
	if cfg.Oracle {
		for _, p := range res.Layers[0].Parameters() {
			randomize(p.Vector, 0.1, nil)
		}
	}

	res.Out = anynet.NewFC(c, cfg.HiddenDim, cfg.VocabSize)
	randomize(res.Out.Weights.Vector, 0.1, nil)
	res.Out.Biases.Vector.Scale(c.MakeNumeric(0))

	return res, nil
}

// Seed re-seeds the source from which every new Cell gets
// its random number generator.
func (g *Generator) Seed(seed int64) {
	g.seedLock.Lock()
	defer g.seedLock.Unlock()
	g.seeds = rand.New(rand.NewSource(seed))
}

// NewCell creates a Cell with a fresh state and a private
// random number generator.
func (g *Generator) NewCell() *Cell {
	g.seedLock.Lock()
	seed := g.seeds.Int63()
	g.seedLock.Unlock()
	return &Cell{
		Generator: g,
		rand:      rand.New(rand.NewSource(seed)),
	}
}

// Parameters returns every trainable parameter.
func (g *Generator) Parameters() []*anydiff.Var {
	res := []*anydiff.Var{g.Embedding}
	for _, l := range g.Layers {
		res = append(res, l.Parameters()...)
	}
	return append(res, g.Out.Parameters()...)
}
