package seqgan

import (
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RolloutConfig controls how Rewards estimates rewards for
// partial sequences.
type RolloutConfig struct {
	// Count is the number of Monte-Carlo rollouts averaged
	// for every prefix.
	Count int

	// Workers is the maximum number of prefixes to roll
	// out concurrently.
	// Values of 0 and 1 both mean sequential rollouts.
	Workers int
}

// Rewards estimates a reward for every token of every
// sequence in a batch.
//
// The result has one row per sequence and one column per
// timestep.
// Column t (for t < SeqLen-1) is the discriminator's score
// averaged over cfg.Count random completions of the first
// t+1 tokens.
// The last column is the discriminator's score for the
// unmodified samples.
func (g *Generator) Rewards(samples [][]int, dis Discriminator,
	cfg RolloutConfig) (*mat.Dense, error) {
	if err := g.checkRollout(samples, dis, cfg); err != nil {
		return nil, essentials.AddCtx("rewards", err)
	}

	seqLen := g.Config.SeqLen
	res := mat.NewDense(len(samples), seqLen, nil)

	tasks := g.rolloutTasks(samples, cfg)
	cols := make([][]float64, len(tasks))
	if cfg.Workers <= 1 {
		cell := g.NewCell()
		cell.NoGrad = true
		for i, task := range tasks {
			col, err := cell.rollout(samples, dis, task)
			if err != nil {
				return nil, essentials.AddCtx("rewards", err)
			}
			cols[i] = col
		}
	} else {
		// Cells are seeded in task order so that results do
		// not depend on goroutine scheduling.
		cells := make([]*Cell, len(tasks))
		for i := range cells {
			cells[i] = g.NewCell()
			cells[i].NoGrad = true
		}
		var group errgroup.Group
		group.SetLimit(cfg.Workers)
		for i, task := range tasks {
			i, task := i, task
			group.Go(func() error {
				col, err := cells[i].rollout(samples, dis, task)
				cols[i] = col
				return err
			})
		}
		if err := group.Wait(); err != nil {
			return nil, essentials.AddCtx("rewards", err)
		}
	}
	for i, task := range tasks {
		res.SetCol(task.Given-1, cols[i])
	}

	final, err := g.score(dis, samples)
	if err != nil {
		return nil, essentials.AddCtx("rewards", err)
	}
	res.SetCol(seqLen-1, final)

	return res, nil
}

// A rolloutTask estimates the rewards for one prefix
// length.
type rolloutTask struct {
	// Given is the number of tokens taken from the samples.
	Given int

	// Count is the number of rollouts to average.
	Count int

	// State is the Cell state after reading the prefix.
	State *Snapshot

	// Logits predict the token at index Given.
	Logits anyvec.Vector
}

// rolloutTasks reads the samples once, saving the state
// after every prefix.
// This avoids re-reading the prefix for every task.
func (g *Generator) rolloutTasks(samples [][]int, cfg RolloutConfig) []*rolloutTask {
	cell := g.NewCell()
	cell.NoGrad = true
	cell.Step(repeatToken(g.Config.StartToken, len(samples)), false)

	var res []*rolloutTask
	for given := 1; given < g.Config.SeqLen; given++ {
		logits := cell.Step(column(samples, given-1), false)
		res = append(res, &rolloutTask{
			Given:  given,
			Count:  cfg.Count,
			State:  cell.Save(),
			Logits: logits.Output().Copy(),
		})
	}
	return res
}

// rollout completes the prefix of the samples task.Count
// times and returns the mean discriminator score.
func (c *Cell) rollout(samples [][]int, dis Discriminator, task *rolloutTask) ([]float64,
	error) {
	g := c.Generator
	seqLen := g.Config.SeqLen
	sum := make([]float64, len(samples))
	for r := 0; r < task.Count; r++ {
		seqs := copySamples(samples)
		c.Restore(task.State)
		logits := task.Logits.Copy()
		for t := task.Given; t < seqLen; t++ {
			tokens := c.sample(logits)
			for i, tok := range tokens {
				seqs[i][t] = tok
			}
			if t+1 < seqLen {
				logits = c.Step(tokens, false).Output()
			}
		}
		rewards, err := g.score(dis, seqs)
		if err != nil {
			return nil, err
		}
		floats.Add(sum, rewards)
	}
	floats.Scale(1/float64(task.Count), sum)
	return sum, nil
}

func (g *Generator) score(dis Discriminator, samples [][]int) ([]float64, error) {
	rewards, err := dis.Reward(samples)
	if err != nil {
		return nil, essentials.AddCtx("discriminator reward", err)
	}
	if len(rewards) != len(samples) {
		return nil, mismatch("discriminator returned %d rewards for %d samples",
			len(rewards), len(samples))
	}
	return rewards, nil
}

func (g *Generator) checkRollout(samples [][]int, dis Discriminator,
	cfg RolloutConfig) error {
	if dis == nil {
		return malformed("nil discriminator")
	}
	if cfg.Count < 1 {
		return malformed("rollout count %d", cfg.Count)
	}
	if cfg.Workers < 0 {
		return malformed("worker count %d", cfg.Workers)
	}
	if err := g.checkTemperature(); err != nil {
		return err
	}
	return g.checkSamples(samples)
}

func copySamples(samples [][]int) [][]int {
	res := make([][]int, len(samples))
	for i, seq := range samples {
		res[i] = append([]int{}, seq...)
	}
	return res
}
