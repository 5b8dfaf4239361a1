package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rahul/finmate/internal/llm/llmtest"
	"github.com/rahul/finmate/internal/store"
	"github.com/rahul/finmate/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

func newRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(tools.NewCalculatorTool())
	r.Register(&tools.DateTool{Now: func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }})
	return r
}

func TestDialogue_ToolLoop(t *testing.T) {
	model := llmtest.New(
		llmtest.ToolCall("call_1", "calculator", `{"expression": "1500*12"}`),
		llmtest.Text("Your yearly rent is 18000."),
	)
	cp := store.NewMemoryStore()
	a := NewAgent(model, newRegistry(), cp, "system prompt")

	answer, err := a.Dialogue(context.Background(), "t1", "Rent is 1500 a month, what is that per year?")
	if err != nil {
		t.Fatalf("Dialogue: %v", err)
	}
	if answer != "Your yearly rent is 18000." {
		t.Errorf("unexpected answer %q", answer)
	}

	if len(model.Tools[0]) != 2 {
		t.Errorf("expected tools to be bound on the model call, got %d", len(model.Tools[0]))
	}

	// Second call sees: system, human, ai(tool call), tool response.
	second := model.Calls[1]
	if len(second) != 4 {
		t.Fatalf("expected 4 messages on second call, got %d", len(second))
	}
	resp, ok := second[3].Parts[0].(llms.ToolCallResponse)
	if !ok || resp.ToolCallID != "call_1" || resp.Content != "18000" {
		t.Errorf("unexpected tool response %+v", second[3].Parts[0])
	}

	history, _ := cp.Load(context.Background(), "t1")
	if len(history) != 5 {
		t.Errorf("expected 5 persisted messages, got %d", len(history))
	}
	if history[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("thread should start with the system prompt, got %s", history[0].Role)
	}
}

func TestDialogue_PersistsAcrossCalls(t *testing.T) {
	model := llmtest.New(
		llmtest.Text("Hello Sam."),
		llmtest.Text("Your name is Sam."),
	)
	cp := store.NewMemoryStore()
	a := NewAgent(model, nil, cp, "system prompt")
	ctx := context.Background()

	if _, err := a.Dialogue(ctx, "t1", "Hi, I'm Sam"); err != nil {
		t.Fatal(err)
	}
	answer, err := a.Dialogue(ctx, "t1", "What's my name?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Your name is Sam." {
		t.Errorf("unexpected answer %q", answer)
	}

	second := model.Calls[1]
	if len(second) != 4 {
		t.Fatalf("expected system, human, ai, human on second call; got %d messages", len(second))
	}
	systems := 0
	for _, m := range second {
		if m.Role == llms.ChatMessageTypeSystem {
			systems++
		}
	}
	if systems != 1 {
		t.Errorf("system prompt should be seeded once, found %d", systems)
	}
}

func TestDialogue_MaxRounds(t *testing.T) {
	loop := llmtest.ToolCall("call_x", "date", `{}`)
	model := &llmtest.Scripted{Fallback: &loop}
	cp := store.NewMemoryStore()
	a := NewAgent(model, newRegistry(), cp, "")
	a.MaxRounds = 3

	answer, err := a.Dialogue(context.Background(), "t1", "loop forever")
	if err != nil {
		t.Fatal(err)
	}
	if answer != MaxRoundsAnswer {
		t.Errorf("expected round limit answer, got %q", answer)
	}
	if model.CallCount() != 3 {
		t.Errorf("expected 3 model calls, got %d", model.CallCount())
	}

	history, _ := cp.Load(context.Background(), "t1")
	last := history[len(history)-1]
	if last.Role != llms.ChatMessageTypeAI {
		t.Errorf("conversation should end with the limit answer, got %s", last.Role)
	}
}

func TestDialogue_UnknownToolIsReported(t *testing.T) {
	model := llmtest.New(
		llmtest.ToolCall("c1", "shell", `{"cmd": "rm -rf /"}`),
		llmtest.Text("I can't do that."),
	)
	a := NewAgent(model, newRegistry(), store.NewMemoryStore(), "")
	if _, err := a.Dialogue(context.Background(), "t1", "clean up"); err != nil {
		t.Fatal(err)
	}
	resp := model.Calls[1][2].Parts[0].(llms.ToolCallResponse)
	if !strings.HasPrefix(resp.Content, "Error: ") {
		t.Errorf("expected error text for unknown tool, got %q", resp.Content)
	}
}

func TestDialogue_ModelErrorPersistsNothing(t *testing.T) {
	model := llmtest.New(llmtest.Fail(errors.New("quota")))
	cp := store.NewMemoryStore()
	a := NewAgent(model, nil, cp, "sys")

	if _, err := a.Dialogue(context.Background(), "t1", "hi"); err == nil {
		t.Fatal("expected error")
	}
	history, _ := cp.Load(context.Background(), "t1")
	if len(history) != 0 {
		t.Errorf("failed turn should not be persisted, got %d messages", len(history))
	}

	if _, err := a.Dialogue(context.Background(), "t1", "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestKeyedMutex(t *testing.T) {
	var k keyedMutex
	var mu sync.Mutex
	active := map[string]int{}
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "a"
			if i%2 == 0 {
				key = "b"
			}
			unlock := k.Lock(key)
			mu.Lock()
			active[key]++
			if active[key] > maxActive {
				maxActive = active[key]
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active[key]--
			mu.Unlock()
			unlock()
		}(i)
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected at most one holder per key, saw %d", maxActive)
	}
	if len(k.locks) != 0 {
		t.Errorf("expected lock table to drain, %d left", len(k.locks))
	}
}
