package gateway

import (
	"context"
	"log"
	"strings"
	"time"
)

// Messenger is a chat platform the assistant can listen on and push to.
// Every Messenger also satisfies finance.Notifier through Send.
type Messenger interface {
	// Start blocks, answering incoming messages until Stop is called.
	Start() error
	Send(chatID string, text string) error
	Stop() error
}

// Dialoguer answers one user turn in a persistent thread.
type Dialoguer interface {
	Dialogue(ctx context.Context, threadID, query string) (string, error)
}

const (
	sorryMessage = "I'm having trouble thinking right now..."
	replyTimeout = 5 * time.Minute
)

// respond runs a single turn and never returns an empty reply.
func respond(d Dialoguer, platform, threadID, text string) string {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	answer, err := d.Dialogue(ctx, platform+":"+threadID, text)
	if err != nil {
		log.Printf("[%s] dialogue failed for %s: %v", platform, threadID, err)
		return sorryMessage
	}
	if strings.TrimSpace(answer) == "" {
		return "(no answer)"
	}
	return answer
}

// split breaks text into chunks of at most limit runes, preferring line breaks.
func split(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
