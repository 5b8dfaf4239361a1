// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// ErrExhausted is returned once a Scripted model runs out of responses.
var ErrExhausted = errors.New("llmtest: script exhausted")

// Response is one canned model reply.
type Response struct {
	Text      string
	ToolCalls []llms.ToolCall
	Err       error
}

func Text(s string) Response {
	return Response{Text: s}
}

func Fail(err error) Response {
	return Response{Err: err}
}

// ToolCall is a reply requesting a single tool invocation.
func ToolCall(id, name, args string) Response {
	return Response{ToolCalls: []llms.ToolCall{{
		ID:           id,
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
	}}}
}

// Scripted replays Responses in order. When the script is exhausted it
// repeats Fallback, or fails with ErrExhausted if Fallback is nil.
type Scripted struct {
	mu        sync.Mutex
	Responses []Response
	Fallback  *Response

	Calls [][]llms.MessageContent
	Tools [][]llms.Tool
}

func New(responses ...Response) *Scripted {
	return &Scripted{Responses: responses}
}

func (s *Scripted) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, append([]llms.MessageContent(nil), messages...))
	s.Tools = append(s.Tools, opts.Tools)

	var r Response
	switch {
	case len(s.Responses) > 0:
		r = s.Responses[0]
		s.Responses = s.Responses[1:]
	case s.Fallback != nil:
		r = *s.Fallback
	default:
		return nil, ErrExhausted
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:   r.Text,
		ToolCalls: r.ToolCalls,
	}}}, nil
}

func (s *Scripted) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

// Prompts returns the text of the last message of every call made so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Calls))
	for _, msgs := range s.Calls {
		if len(msgs) == 0 {
			out = append(out, "")
			continue
		}
		var sb strings.Builder
		for _, p := range msgs[len(msgs)-1].Parts {
			if t, ok := p.(llms.TextContent); ok {
				sb.WriteString(t.Text)
			}
		}
		out = append(out, sb.String())
	}
	return out
}

// CallCount returns how many times the model was invoked.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
