// Package chat implements the conversational agent: a two-node graph that
// alternates between the model and the tools it asks for, with history kept
// per thread in a store.Checkpointer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rahul/finmate/internal/observability"
	"github.com/rahul/finmate/internal/store"
	"github.com/rahul/finmate/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// DefaultMaxRounds caps model-to-tool round trips per turn.
const DefaultMaxRounds = 10

// MaxRoundsAnswer is returned when a turn hits the round cap.
const MaxRoundsAnswer = "Thinking too much... I've reached the maximum reasoning steps. Please try a simpler request."

// ErrEmptyQuery is returned for blank user input.
var ErrEmptyQuery = errors.New("empty query")

type node string

const (
	nodeChatbot node = "chatbot"
	nodeTools   node = "tools"
	nodeEnd     node = "__end__"
)

// Agent answers user messages, calling tools as the model requests.
type Agent struct {
	Model        llms.Model
	Registry     *tools.Registry
	Store        store.Checkpointer
	SystemPrompt string
	MaxRounds    int
	Options      []llms.CallOption
	Events       *observability.Logger

	locks keyedMutex
}

func NewAgent(model llms.Model, registry *tools.Registry, cp store.Checkpointer, systemPrompt string) *Agent {
	return &Agent{
		Model:        model,
		Registry:     registry,
		Store:        cp,
		SystemPrompt: systemPrompt,
		MaxRounds:    DefaultMaxRounds,
	}
}

// turn is the graph state for one Dialogue call.
type turn struct {
	threadID string
	messages []llms.MessageContent
	pending  []llms.ToolCall
	rounds   int
	answer   string
}

// Dialogue sends query on the given thread and returns the model's final
// reply. The first message on a thread is preceded by the system prompt.
// New messages are persisted only when the turn completes.
func (a *Agent) Dialogue(ctx context.Context, threadID, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	unlock := a.locks.Lock(threadID)
	defer unlock()

	history, err := a.Store.Load(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	t := &turn{threadID: threadID, messages: history}
	if len(history) == 0 && a.SystemPrompt != "" {
		t.messages = append(t.messages, llms.TextParts(llms.ChatMessageTypeSystem, a.SystemPrompt))
	}
	t.messages = append(t.messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

	if err := a.run(ctx, t); err != nil {
		return "", err
	}

	if err := a.Store.Append(ctx, threadID, t.messages[len(history):]...); err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}
	observability.ChatRounds.Observe(float64(t.rounds))
	return t.answer, nil
}

func (a *Agent) run(ctx context.Context, t *turn) error {
	maxRounds := a.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	current := nodeChatbot
	for current != nodeEnd {
		switch current {
		case nodeChatbot:
			if t.rounds >= maxRounds {
				log.Printf("[CHAT] thread %s hit the %d round limit", t.threadID, maxRounds)
				t.answer = MaxRoundsAnswer
				t.messages = append(t.messages, llms.TextParts(llms.ChatMessageTypeAI, t.answer))
				current = nodeEnd
				continue
			}
			if err := a.chatbot(ctx, t); err != nil {
				return err
			}
			current = route(t)
		case nodeTools:
			a.callTools(ctx, t)
			t.rounds++
			current = nodeChatbot
		}
	}
	return nil
}

// route is the conditional edge out of the chatbot node.
func route(t *turn) node {
	if len(t.pending) > 0 {
		return nodeTools
	}
	return nodeEnd
}

func (a *Agent) chatbot(ctx context.Context, t *turn) error {
	opts := append([]llms.CallOption{}, a.Options...)
	if a.Registry != nil {
		if defs := a.Registry.Definitions(); len(defs) > 0 {
			opts = append(opts, llms.WithTools(defs))
		}
	}

	resp, err := a.Model.GenerateContent(ctx, t.messages, opts...)
	if err != nil {
		return fmt.Errorf("model call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("model returned no choices")
	}
	choice := resp.Choices[0]
	a.Events.LogLLM(t.threadID, len(t.messages), choice.Content, choice.ToolCalls)

	var parts []llms.ContentPart
	if choice.Content != "" || len(choice.ToolCalls) == 0 {
		parts = append(parts, llms.TextPart(choice.Content))
	}
	for _, tc := range choice.ToolCalls {
		parts = append(parts, tc)
	}
	t.messages = append(t.messages, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})

	t.pending = choice.ToolCalls
	if len(t.pending) == 0 {
		t.answer = strings.TrimSpace(choice.Content)
	}
	return nil
}

// callTools executes every pending call and appends one tool message per call.
func (a *Agent) callTools(ctx context.Context, t *turn) {
	for _, tc := range t.pending {
		name, args := "", ""
		if tc.FunctionCall != nil {
			name, args = tc.FunctionCall.Name, tc.FunctionCall.Arguments
		}
		a.Events.LogToolCall(t.threadID, name, args)

		var res tools.Result
		if a.Registry == nil {
			res = tools.Fail(tools.KindNotFound, "tool %s not found", name)
		} else {
			res = a.Registry.Invoke(ctx, name, args)
		}
		a.Events.LogToolResult(t.threadID, name, res.Text(), res.Failed())

		t.messages = append(t.messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: tc.ID,
				Name:       name,
				Content:    res.Text(),
			}},
		})
	}
	t.pending = nil
}
