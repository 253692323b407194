package nnue

import "github.com/lucidchess/akimbo/internal/board"

// Network holds the quantized weights of the single-hidden-layer evaluator.
type Network struct {
	FeatureWeights [InputSize][Hidden]int16
	FeatureBias    [Hidden]int16

	// OutputWeights[0] scores the side-to-move's accumulator,
	// OutputWeights[1] scores the opponent's. Output perspective order
	// matters; the accumulators themselves do not swap.
	OutputWeights [2][Hidden]int16
	OutputBias    int16
}

// NewNetwork allocates a zero-valued network; callers must either load
// weights or call InitRandom before evaluating anything meaningful.
func NewNetwork() *Network {
	return &Network{}
}

func flatten(acc *[Hidden]int16, weights *[Hidden]int16) int64 {
	var sum int64
	for i := 0; i < Hidden; i++ {
		sum += int64(screlu(acc[i])) * int64(weights[i])
	}
	return sum
}

// Evaluate folds the accumulator pair through the output layer:
//
//	out = ((flatten(stm, w0) + flatten(nstm, w1)) / QA + bias) * SCALE / QAB
func (n *Network) Evaluate(acc *Accumulator, stm board.Color) int {
	var us, them *[Hidden]int16
	if stm == board.White {
		us, them = &acc.White, &acc.Black
	} else {
		us, them = &acc.Black, &acc.White
	}

	sum := flatten(us, &n.OutputWeights[0]) + flatten(them, &n.OutputWeights[1])
	sum /= QA
	sum += int64(n.OutputBias)
	sum = sum * Scale / QAB
	return int(sum)
}

// InitRandom seeds the network with small deterministic pseudo-random
// weights via a splitmix64-style generator. Only meant to keep the engine
// functional (if weak) when no trained weight blob is supplied.
func (n *Network) InitRandom(seed uint64) {
	state := seed
	next := func() int16 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		return int16(z>>48) >> 4 // small magnitude
	}

	for i := 0; i < InputSize; i++ {
		for j := 0; j < Hidden; j++ {
			n.FeatureWeights[i][j] = next() >> 3
		}
	}
	for j := 0; j < Hidden; j++ {
		n.FeatureBias[j] = next() >> 3
	}
	for k := 0; k < 2; k++ {
		for j := 0; j < Hidden; j++ {
			n.OutputWeights[k][j] = next() >> 4
		}
	}
	n.OutputBias = 0
}
