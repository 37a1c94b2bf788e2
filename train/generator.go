package train

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/seqgan"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Generator performs maximum likelihood and policy
// gradient steps on a seqgan.Generator.
type Generator struct {
	Model     *seqgan.Generator
	Optimizer *Optimizer
}

// NewGenerator creates a Generator trainer with an Adam
// optimizer over the model's parameters.
func NewGenerator(g *seqgan.Generator, stepSize float64, logger *zap.Logger) *Generator {
	return &Generator{
		Model:     g,
		Optimizer: NewOptimizer(g.Parameters(), stepSize, logger),
	}
}

// Pretrain takes a maximum likelihood step on real
// samples and returns the loss.
func (g *Generator) Pretrain(samples [][]int) (float64, error) {
	loss, err := g.Model.PretrainLoss(samples)
	if err != nil {
		return 0, essentials.AddCtx("pretrain step", err)
	}
	return g.Optimizer.Minimize("pretrain", loss)
}

// Reinforce takes a policy gradient step using rewards
// for previously generated samples.
func (g *Generator) Reinforce(samples [][]int, rewards mat.Matrix,
	normalizer float64) (float64, error) {
	loss, err := g.Model.PolicyGradientLoss(samples, rewards, normalizer)
	if err != nil {
		return 0, essentials.AddCtx("reinforce step", err)
	}
	return g.Optimizer.Minimize("reinforce", loss)
}

// Adversarial generates a batch, estimates rewards for it
// with rollouts, and takes a policy gradient step.
func (g *Generator) Adversarial(batchSize int, dis seqgan.Discriminator,
	cfg seqgan.RolloutConfig, normalizer float64) (float64, error) {
	samples, err := g.Model.Generate(batchSize)
	if err != nil {
		return 0, essentials.AddCtx("adversarial step", err)
	}
	rewards, err := g.Model.Rewards(samples, dis, cfg)
	if err != nil {
		return 0, essentials.AddCtx("adversarial step", err)
	}
	return g.Reinforce(samples, rewards, normalizer)
}

// Conditioned trains a generator together with the
// encoder that initializes its hidden state.
type Conditioned struct {
	Model     *seqgan.Generator
	Optimizer *Optimizer

	// Variational selects the VRAE objective instead of the
	// deterministic autoencoder objective.
	Variational bool

	// KLWeight scales the KL term of the VRAE objective.
	KLWeight float64
}

// NewConditioned creates a Conditioned trainer whose
// optimizer covers the generator and encoder parameters.
func NewConditioned(g *seqgan.Generator, encoderParams []*anydiff.Var, stepSize float64,
	variational bool, logger *zap.Logger) *Conditioned {
	params := append(g.Parameters(), encoderParams...)
	return &Conditioned{
		Model:       g,
		Optimizer:   NewOptimizer(params, stepSize, logger),
		Variational: variational,
		KLWeight:    1,
	}
}

// Step takes one step on real samples and returns the
// combined loss.
func (c *Conditioned) Step(samples [][]int) (float64, error) {
	if !c.Variational {
		loss, err := c.Model.PretrainAutoencoderLoss(samples)
		if err != nil {
			return 0, essentials.AddCtx("autoencoder step", err)
		}
		return c.Optimizer.Minimize("autoencoder", loss)
	}
	recon, kl, err := c.Model.PretrainVariationalLoss(samples)
	if err != nil {
		return 0, essentials.AddCtx("variational step", err)
	}
	weight := kl.Output().Creator().MakeNumeric(c.KLWeight)
	return c.Optimizer.Minimize("variational", anydiff.Add(recon, anydiff.Scale(kl, weight)))
}
