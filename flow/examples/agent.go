package examples

import (
	"context"
	"fmt"

	"github.com/dshills/dagflow/flow"
	"github.com/dshills/dagflow/flow/model"
	"github.com/dshills/dagflow/flow/tool"
)

// AgentNode drives an LLM tool-call loop: it sends the conversation,
// and whenever the model responds with tool calls, executes each
// against Tools and feeds the results back as assistant/user turns
// until the model answers with text or MaxSteps is exhausted. Grounded
// on the original implementation's operator agent, which chains tool
// calls one concrete value at a time rather than planning ahead.
type AgentNode struct {
	Model        model.ChatModel
	Tools        []tool.Tool
	SystemPrompt string
	MaxSteps     int
}

func (a *AgentNode) specs() []model.ToolSpec {
	specs := make([]model.ToolSpec, len(a.Tools))
	for i, t := range a.Tools {
		specs[i] = model.ToolSpec{Name: t.Name()}
	}
	return specs
}

func (a *AgentNode) lookup(name string) tool.Tool {
	for _, t := range a.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// Execute implements flow.NodeBody.
func (a *AgentNode) Execute(ctx context.Context, ec *flow.ExecutorContext) (any, error) {
	inputs := ec.Inputs.Successful()
	if len(inputs) == 0 {
		return nil, &flow.ExecuteError{NodeName: ec.NodeName, Code: "input_not_found", Message: "agent has no successful inputs"}
	}

	messages := []model.Message{}
	if a.SystemPrompt != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: a.SystemPrompt})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: fmt.Sprint(inputs[0].Output)})

	maxSteps := a.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 8
	}

	for step := 0; step < maxSteps; step++ {
		out, err := a.Model.Chat(ctx, messages, a.specs())
		if err != nil {
			return nil, &flow.ExecuteError{NodeName: ec.NodeName, Code: "model_error", Message: err.Error(), Cause: err}
		}
		if len(out.ToolCalls) == 0 {
			return out.Text, nil
		}

		messages = append(messages, model.Message{Role: model.RoleAssistant, Content: out.Text})
		for _, call := range out.ToolCalls {
			t := a.lookup(call.Name)
			if t == nil {
				messages = append(messages, model.Message{Role: model.RoleUser, Content: fmt.Sprintf("tool %q is not available", call.Name)})
				continue
			}
			result, err := t.Call(ctx, call.Input)
			if err != nil {
				messages = append(messages, model.Message{Role: model.RoleUser, Content: fmt.Sprintf("tool %q failed: %s", call.Name, err)})
				continue
			}
			messages = append(messages, model.Message{Role: model.RoleUser, Content: fmt.Sprintf("tool %q returned: %v", call.Name, result)})
		}
	}
	return nil, &flow.ExecuteError{NodeName: ec.NodeName, Code: "max_steps_exceeded", Message: "agent exceeded max tool-call steps without a final answer"}
}
