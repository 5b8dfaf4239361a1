package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Checkpointer persists conversation state keyed by thread id. History only
// grows: Append adds to the end, nothing is rewritten.
type Checkpointer interface {
	Load(ctx context.Context, threadID string) ([]llms.MessageContent, error)
	Append(ctx context.Context, threadID string, msgs ...llms.MessageContent) error
	// Threads lists stored thread ids, most recently appended first.
	Threads(ctx context.Context) ([]string, error)
}

// record is the persisted form of one llms.MessageContent.
type record struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Arguments  string `json:"arguments,omitempty"`
}

const (
	partText         = "text"
	partToolCall     = "tool_call"
	partToolResponse = "tool_response"
)

func encodeMessage(msg llms.MessageContent) ([]byte, error) {
	rec := record{Role: string(msg.Role)}
	for _, p := range msg.Parts {
		switch v := p.(type) {
		case llms.TextContent:
			rec.Parts = append(rec.Parts, part{Type: partText, Text: v.Text})
		case llms.ToolCall:
			tp := part{Type: partToolCall, ToolCallID: v.ID}
			if v.FunctionCall != nil {
				tp.Name = v.FunctionCall.Name
				tp.Arguments = v.FunctionCall.Arguments
			}
			rec.Parts = append(rec.Parts, tp)
		case llms.ToolCallResponse:
			rec.Parts = append(rec.Parts, part{Type: partToolResponse, ToolCallID: v.ToolCallID, Name: v.Name, Text: v.Content})
		default:
			return nil, fmt.Errorf("unsupported message part %T", p)
		}
	}
	return json.Marshal(rec)
}

func decodeMessage(data []byte) (llms.MessageContent, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return llms.MessageContent{}, fmt.Errorf("decode message: %w", err)
	}
	msg := llms.MessageContent{Role: llms.ChatMessageType(rec.Role)}
	for _, p := range rec.Parts {
		switch p.Type {
		case partText:
			msg.Parts = append(msg.Parts, llms.TextPart(p.Text))
		case partToolCall:
			msg.Parts = append(msg.Parts, llms.ToolCall{
				ID:   p.ToolCallID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      p.Name,
					Arguments: p.Arguments,
				},
			})
		case partToolResponse:
			msg.Parts = append(msg.Parts, llms.ToolCallResponse{ToolCallID: p.ToolCallID, Name: p.Name, Content: p.Text})
		default:
			return llms.MessageContent{}, fmt.Errorf("unknown message part type %q", p.Type)
		}
	}
	return msg, nil
}
