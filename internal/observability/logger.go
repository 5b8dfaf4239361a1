package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan       EventType = "plan"
	EventTypeReplan     EventType = "replan"
	EventTypeStep       EventType = "step"
	EventTypeSynthesis  EventType = "synthesis"
	EventTypeToolCall   EventType = "tool_call"
	EventTypeToolResult EventType = "tool_result"
	EventTypeIngest     EventType = "ingest"
	EventTypeHeartbeat  EventType = "heartbeat"
	EventTypeLLM        EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger writes structured JSON events. LLM events are also appended to a
// size-rotated jsonl file.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		out:        os.Stdout,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// NewLoggerTo returns a Logger writing events to w and LLM transcripts under dir.
func NewLoggerTo(w io.Writer, dir string) *Logger {
	l := NewLogger()
	l.out = w
	l.llmLogPath = filepath.Join(dir, "llm.jsonl")
	return l
}

// Log emits a structured JSON event. A nil Logger discards events.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"error\": %q}", "failed to marshal event: "+err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

// Keeps one .old file.
func (l *Logger) rotateLogs() {
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

func (l *Logger) LogPlan(sessionID string, attempt int, steps any, parseErr error) {
	data := map[string]any{"attempt": attempt, "steps": steps}
	if parseErr != nil {
		data["parse_error"] = parseErr.Error()
	}
	l.Log(Event{Type: EventTypePlan, SessionID: sessionID, Data: data})
}

func (l *Logger) LogReplan(sessionID string, retry int, failedStep int) {
	l.Log(Event{
		Type:      EventTypeReplan,
		SessionID: sessionID,
		Data:      map[string]int{"retry": retry, "failed_step": failedStep},
	})
}

func (l *Logger) LogStep(sessionID string, index int, action, input, result string, failed bool) {
	l.Log(Event{
		Type:      EventTypeStep,
		SessionID: sessionID,
		Data: map[string]any{
			"index":  index,
			"action": action,
			"input":  input,
			"result": result,
			"failed": failed,
		},
	})
}

func (l *Logger) LogSynthesis(sessionID string, retries int, answer string) {
	l.Log(Event{
		Type:      EventTypeSynthesis,
		SessionID: sessionID,
		Data:      map[string]any{"retries": retries, "answer": answer},
	})
}

func (l *Logger) LogToolCall(sessionID, tool, args string) {
	l.Log(Event{
		Type:      EventTypeToolCall,
		SessionID: sessionID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(sessionID, tool, result string, failed bool) {
	l.Log(Event{
		Type:      EventTypeToolResult,
		SessionID: sessionID,
		Data: map[string]any{
			"tool":   tool,
			"result": result,
			"failed": failed,
		},
	})
}

func (l *Logger) LogIngest(file string, rows int, err error) {
	data := map[string]any{"file": file, "rows": rows}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeIngest, Data: data})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(sessionID string, prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type:      EventTypeLLM,
		SessionID: sessionID,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}
