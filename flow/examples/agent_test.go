package examples

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/dagflow/flow"
	"github.com/dshills/dagflow/flow/model"
	"github.com/dshills/dagflow/flow/tool"
)

func TestAgentNode_AnswersWithoutToolCalls(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "42"}}}
	a := &AgentNode{Model: mock}
	ec := &flow.ExecutorContext{Inputs: textInput("what is the answer?")}

	out, err := a.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.(string) != "42" {
		t.Fatalf("got %v, want 42", out)
	}
}

func TestAgentNode_ChainsToolCallUntilFinalAnswer(t *testing.T) {
	addTool := &tool.MockTool{ToolName: "add", Responses: []map[string]interface{}{{"result": 7}}}
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{ToolCalls: []model.ToolCall{{Name: "add", Input: map[string]interface{}{"a": 3, "b": 4}}}},
		{Text: "the result is 7"},
	}}
	a := &AgentNode{Model: mock, Tools: []tool.Tool{addTool}}
	ec := &flow.ExecutorContext{Inputs: textInput("what is 3+4?")}

	out, err := a.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.(string) != "the result is 7" {
		t.Fatalf("got %v, want final text answer", out)
	}
	if addTool.CallCount() != 1 {
		t.Fatalf("tool called %d times, want 1", addTool.CallCount())
	}
	call, ok := addTool.LastCall()
	if !ok {
		t.Fatal("expected a recorded tool call")
	}
	if call.Input["a"] != 3 || call.Input["b"] != 4 {
		t.Fatalf("got input %+v, want a=3 b=4", call.Input)
	}
}

func TestAgentNode_UnknownToolReportedBackToModel(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{ToolCalls: []model.ToolCall{{Name: "ghost"}}},
		{Text: "done"},
	}}
	a := &AgentNode{Model: mock}
	ec := &flow.ExecutorContext{Inputs: textInput("x")}

	out, err := a.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.(string) != "done" {
		t.Fatalf("got %v, want done", out)
	}
}

func TestAgentNode_MaxStepsExceeded(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{ToolCalls: []model.ToolCall{{Name: "add"}}},
	}}
	addTool := &tool.MockTool{ToolName: "add", Responses: []map[string]interface{}{{"result": 1}}}
	a := &AgentNode{Model: mock, Tools: []tool.Tool{addTool}, MaxSteps: 2}
	ec := &flow.ExecutorContext{Inputs: textInput("loop forever")}

	if _, err := a.Execute(context.Background(), ec); err == nil {
		t.Fatal("expected max_steps_exceeded error")
	}
}

func TestAgentNode_ToolErrorReportedBackToModel(t *testing.T) {
	failingTool := &tool.MockTool{ToolName: "flaky", Err: errors.New("upstream down")}
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{ToolCalls: []model.ToolCall{{Name: "flaky"}}},
		{Text: "fell back"},
	}}
	a := &AgentNode{Model: mock, Tools: []tool.Tool{failingTool}}
	ec := &flow.ExecutorContext{Inputs: textInput("x")}

	out, err := a.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.(string) != "fell back" {
		t.Fatalf("got %v, want fell back", out)
	}
}
