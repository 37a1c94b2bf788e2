package seqgan

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
)

func TestPretrainLossUniform(t *testing.T) {
	cfg := smallConfig()
	cfg.VocabSize = 20
	g := testGenerator(t, cfg)
	samples, err := g.Generate(16)
	if err != nil {
		t.Fatal(err)
	}
	loss, err := g.PretrainLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	expected := math.Log(float64(cfg.VocabSize))
	if actual := scalar(loss); math.Abs(actual-expected) > 0.2 {
		t.Errorf("expected about %f but got %f", expected, actual)
	}
}

func TestPretrainEndToEnd(t *testing.T) {
	g := testGenerator(t, Config{
		SeqLen:     5,
		VocabSize:  10,
		EmbedDim:   8,
		HiddenDim:  8,
		StartToken: 0,
		NumLayers:  1,
	})
	samples, err := g.Generate(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 || len(samples[0]) != 5 || len(samples[1]) != 5 {
		t.Fatalf("unexpected shape: %v", samples)
	}
	loss, err := g.PretrainLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if value := scalar(loss); math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		t.Errorf("bad loss %f", value)
	}
}

func TestPretrainLossMatchesLoss(t *testing.T) {
	g := testGenerator(t, smallConfig())
	samples := [][]int{{1, 2, 3, 4, 5}, {9, 8, 7, 6, 5}}
	loss, err := g.PretrainLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	nll, err := g.Loss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(nll-scalar(loss)) > 1e-8 {
		t.Errorf("expected %f but got %f", nll, scalar(loss))
	}
}

func TestPretrainGradient(t *testing.T) {
	g := testGenerator(t, smallConfig())
	samples := [][]int{{1, 2, 3, 4, 5}, {0, 0, 9, 9, 1}, {3, 3, 3, 3, 3}}
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			loss, err := g.PretrainLoss(samples)
			if err != nil {
				panic(err)
			}
			return loss
		},
		V: g.Parameters(),
	}
	checker.FullCheck(t)
}

func TestPretrainFree(t *testing.T) {
	cfg := smallConfig()
	cfg.FreePretrain = true
	cfg.DropoutRate = 0.5
	g := testGenerator(t, cfg)
	samples := [][]int{{1, 2, 3, 4, 5}, {9, 8, 7, 6, 5}}

	loss1, err := g.PretrainLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	loss2, err := g.PretrainLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []float64{scalar(loss1), scalar(loss2)} {
		if math.IsNaN(l) || l <= 0 {
			t.Fatalf("bad loss %f", l)
		}
	}
	if scalar(loss1) == scalar(loss2) {
		t.Error("noise and dropout should make losses differ")
	}
}

func TestPretrainInvalid(t *testing.T) {
	g := testGenerator(t, smallConfig())
	for _, samples := range [][][]int{
		nil,
		{{1, 2, 3}},
		{{1, 2, 3, 4, 5}, {1, 2, 3, 4}},
		{{1, 2, 3, 4, 10}},
		{{-1, 2, 3, 4, 5}},
	} {
		if _, err := g.PretrainLoss(samples); err == nil {
			t.Errorf("samples %v: expected error", samples)
		}
	}
}

func TestPretrainAutoencoder(t *testing.T) {
	cfg := smallConfig()
	enc := newRepeatEncoder(defaultCreator(), cfg.HiddenDim)
	cfg.Encoder = enc
	g := testGenerator(t, cfg)
	samples := [][]int{{1, 2, 3, 4, 5}, {9, 8, 7, 6, 5}}

	loss, err := g.PretrainAutoencoderLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := g.PretrainLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if scalar(loss) == scalar(plain) {
		t.Error("encoding had no effect on the loss")
	}

	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			loss, err := g.PretrainAutoencoderLoss(samples)
			if err != nil {
				panic(err)
			}
			return loss
		},
		V: append([]*anydiff.Var{enc.Hidden}, g.Parameters()...),
	}
	checker.FullCheck(t)
}

func TestPretrainVariational(t *testing.T) {
	cfg := smallConfig()
	enc := newRepeatEncoder(defaultCreator(), cfg.HiddenDim)
	cfg.Encoder = enc
	g := testGenerator(t, cfg)
	samples := [][]int{{1, 2, 3, 4, 5}, {9, 8, 7, 6, 5}, {0, 0, 0, 0, 0}}

	recon, kl, err := g.PretrainVariationalLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if value := scalar(recon); math.IsNaN(value) || value <= 0 {
		t.Errorf("bad reconstruction loss %f", value)
	}

	var expected float64
	mean := vectorData(enc.Hidden.Vector)
	logVar := vectorData(enc.LogVar.Vector)
	for i, m := range mean {
		expected += 0.5 * (m*m + math.Exp(logVar[i]) - logVar[i] - 1)
	}
	if actual := scalar(kl); math.Abs(actual-expected) > 1e-8 {
		t.Errorf("expected KL %f but got %f", expected, actual)
	}
}

func TestPretrainEncoderErrors(t *testing.T) {
	cfg := smallConfig()
	g := testGenerator(t, cfg)
	samples := [][]int{{1, 2, 3, 4, 5}}
	if _, err := g.PretrainAutoencoderLoss(samples); err == nil {
		t.Error("expected error without encoder")
	}
	if _, _, err := g.PretrainVariationalLoss(samples); err == nil {
		t.Error("expected error without encoder")
	}

	cfg.Encoder = newRepeatEncoder(defaultCreator(), cfg.HiddenDim+1)
	g = testGenerator(t, cfg)
	if _, err := g.PretrainAutoencoderLoss(samples); err == nil {
		t.Error("expected error for wrong hidden size")
	}
	if _, _, err := g.PretrainVariationalLoss(samples); err == nil {
		t.Error("expected error for wrong latent size")
	}
}
