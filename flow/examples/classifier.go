package examples

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/dagflow/flow"
	"github.com/dshills/dagflow/flow/model"
)

// ClassifierNode routes its single text input to one of Labels by asking
// an LLM to pick a label, then narrows routing to the successor edge
// matching the chosen label (Clear-ing the rest). Successor names must
// match Labels exactly; every other successor, including any whose name
// is not a label, is skipped, and a reply that matches no label skips
// them all.
type ClassifierNode struct {
	Model  model.ChatModel
	Labels []string
}

// Execute implements flow.NodeBody.
func (c *ClassifierNode) Execute(ctx context.Context, ec *flow.ExecutorContext) (any, error) {
	inputs := ec.Inputs.Successful()
	if len(inputs) == 0 {
		return nil, &flow.ExecuteError{NodeName: ec.NodeName, Code: "input_not_found", Message: "classifier has no successful inputs"}
	}
	text := fmt.Sprint(inputs[0].Output)

	prompt := []model.Message{
		{Role: model.RoleSystem, Content: "Classify the user text into exactly one of: " + strings.Join(c.Labels, ", ") + ". Reply with only the label."},
		{Role: model.RoleUser, Content: text},
	}
	out, err := c.Model.Chat(ctx, prompt, nil)
	if err != nil {
		return nil, &flow.ExecuteError{NodeName: ec.NodeName, Code: "model_error", Message: err.Error(), Cause: err}
	}

	label := strings.TrimSpace(out.Text)
	ec.Routing.Clear()
	for _, want := range c.Labels {
		if strings.EqualFold(label, want) {
			if err := ec.Routing.Add(want); err != nil {
				return nil, &flow.ExecuteError{NodeName: ec.NodeName, Code: "invalid_routing", Message: err.Error(), Cause: err}
			}
			break
		}
	}
	return label, nil
}
