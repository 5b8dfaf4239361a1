package tools

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LLMTool answers general-knowledge questions directly with the model.
type LLMTool struct {
	Model   llms.Model
	Options []llms.CallOption
}

func NewLLMTool(model llms.Model, opts ...llms.CallOption) *LLMTool {
	return &LLMTool{Model: model, Options: opts}
}

func (l *LLMTool) Name() string {
	return "llm"
}

func (l *LLMTool) Description() string {
	return "Answers general knowledge questions that need no live data."
}

func (l *LLMTool) Argument() Argument {
	return Argument{Name: "prompt", Description: "The question or instruction for the model."}
}

func (l *LLMTool) Execute(ctx context.Context, input string) Result {
	if strings.TrimSpace(input) == "" {
		return Fail(KindInvalidInput, "empty prompt")
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, l.Model, input, l.Options...)
	if err != nil {
		return Fail(KindTransport, "model call failed: %v", err)
	}
	return OK(strings.TrimSpace(out))
}
