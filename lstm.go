package seqgan

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// LayerState is the recurrent state of one LSTM for a
// batch of sequences.
// Both vectors are packed, with HiddenDim components per
// sequence.
type LayerState struct {
	Cell   anydiff.Res
	Hidden anydiff.Res
}

// An LSTMGate computes the pre-activation of one gate from
// the layer input and the previous hidden state.
type LSTMGate struct {
	In *anynet.FC

	// Hidden is a HiddenDim x HiddenDim row-major matrix
	// with one row per output.
	Hidden *anydiff.Var
}

func newLSTMGate(c anyvec.Creator, r *rand.Rand, inSize, hiddenSize int) *LSTMGate {
	hidden := c.MakeVector(hiddenSize * hiddenSize)
	randomize(hidden, 1/math.Sqrt(float64(hiddenSize)), r)
	return &LSTMGate{
		In:     anynet.NewFC(c, inSize, hiddenSize),
		Hidden: anydiff.NewVar(hidden),
	}
}

// Apply computes the gate pre-activation for a batch of n
// inputs.
func (l *LSTMGate) Apply(in, hidden anydiff.Res, n int) anydiff.Res {
	hiddenSize := l.In.OutCount
	stateMat := &anydiff.Matrix{Data: hidden, Rows: n, Cols: hiddenSize}
	weightMat := &anydiff.Matrix{Data: l.Hidden, Rows: hiddenSize, Cols: hiddenSize}
	return anydiff.Add(l.In.Apply(in, n), anydiff.MatMul(false, true, stateMat, weightMat).Data)
}

// Parameters returns the gate's parameters.
func (l *LSTMGate) Parameters() []*anydiff.Var {
	return append(l.In.Parameters(), l.Hidden)
}

// An LSTM is a single long short-term memory layer whose
// cell and hidden state are explicit, making it possible
// to save, restore, and overwrite them.
type LSTM struct {
	InSize     int
	HiddenSize int

	Input     *LSTMGate
	Forget    *LSTMGate
	Output    *LSTMGate
	Candidate *LSTMGate
}

// NewLSTM creates a randomly initialized LSTM.
//
// The forget gate bias starts at 1.
// The random source r may be nil.
func NewLSTM(c anyvec.Creator, r *rand.Rand, inSize, hiddenSize int) *LSTM {
	res := &LSTM{
		InSize:     inSize,
		HiddenSize: hiddenSize,
		Input:      newLSTMGate(c, r, inSize, hiddenSize),
		Forget:     newLSTMGate(c, r, inSize, hiddenSize),
		Output:     newLSTMGate(c, r, inSize, hiddenSize),
		Candidate:  newLSTMGate(c, r, inSize, hiddenSize),
	}
	res.Forget.In.Biases.Vector.AddScalar(c.MakeNumeric(1))
	return res
}

// Start creates a zero state for a batch of n sequences.
func (l *LSTM) Start(c anyvec.Creator, n int) *LayerState {
	return &LayerState{
		Cell:   anydiff.NewConst(c.MakeVector(n * l.HiddenSize)),
		Hidden: anydiff.NewConst(c.MakeVector(n * l.HiddenSize)),
	}
}

// Step applies the LSTM to a batch of n inputs and
// produces the next state.
// The output of the layer is the new hidden state.
func (l *LSTM) Step(s *LayerState, in anydiff.Res, n int) *LayerState {
	inGate := anydiff.Sigmoid(l.Input.Apply(in, s.Hidden, n))
	forget := anydiff.Sigmoid(l.Forget.Apply(in, s.Hidden, n))
	outGate := anydiff.Sigmoid(l.Output.Apply(in, s.Hidden, n))
	candidate := anydiff.Tanh(l.Candidate.Apply(in, s.Hidden, n))

	cell := anydiff.Add(anydiff.Mul(forget, s.Cell), anydiff.Mul(inGate, candidate))
	return &LayerState{
		Cell:   cell,
		Hidden: anydiff.Mul(outGate, anydiff.Tanh(cell)),
	}
}

// Parameters returns the parameters of every gate.
func (l *LSTM) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, g := range l.gates() {
		res = append(res, g.Parameters()...)
	}
	return res
}

func (l *LSTM) gates() []*LSTMGate {
	return []*LSTMGate{l.Input, l.Forget, l.Output, l.Candidate}
}

// randomize fills v with N(0, stddev^2) samples.
func randomize(v anyvec.Vector, stddev float64, r *rand.Rand) {
	anyvec.Rand(v, anyvec.Normal, r)
	v.Scale(v.Creator().MakeNumeric(stddev))
}
