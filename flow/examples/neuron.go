// Package examples ships demonstration node bodies that exercise the
// engine's narrow interfaces end to end: a neural-network unit, a text
// classifier, and an LLM tool-call agent. None of this is imported by
// flow itself — it exists so a deployment has working references for
// the shapes a real node body takes.
package examples

import (
	"context"

	"github.com/dshills/dagflow/flow"
)

// NeuronNode is one artificial-neuron forward-pass unit: a weighted sum
// of its predecessors' numeric outputs plus a bias, through a ReLU.
// Grounded on the original implementation's NeuronProcessor, which sums
// w[i]*inputs[i].a + b and clamps negative activations to zero.
type NeuronNode struct {
	Weights []float64
	Bias    float64
}

// Execute implements flow.NodeBody.
func (n *NeuronNode) Execute(ctx context.Context, ec *flow.ExecutorContext) (any, error) {
	inputs := ec.Inputs.Successful()
	z := n.Bias
	for i, io := range inputs {
		if i >= len(n.Weights) {
			break
		}
		v, ok := io.Output.(float64)
		if !ok {
			return nil, &flow.ExecuteError{
				NodeName: ec.NodeName,
				Code:     "invalid_input",
				Message:  "neuron input must be float64",
			}
		}
		z += n.Weights[i] * v
	}
	if z < 0 {
		z = 0
	}
	return z, nil
}
