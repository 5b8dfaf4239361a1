package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rahul/finmate/internal/agent"
	"github.com/rahul/finmate/internal/ledger"
	"github.com/rahul/finmate/internal/llm/llmtest"
)

func testApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"app": {"data_dir": "` + dir + `", "prompts_dir": "` + filepath.Join(dir, "prompts") + `"},
		"memory": {"type": "memory"},
		"search": {"provider": "duckduckgo"},
		"agent": {"max_retries": 1, "max_tool_rounds": 4}
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_URL", "")
	a, err := newApp(context.Background(), path, false)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	a.model = llmtest.New(llmtest.Text("ok"))
	a.events = nil
	t.Cleanup(a.Close)
	return a
}

func TestRegistryWithoutLedger(t *testing.T) {
	a := testApp(t)
	if _, err := a.requireLedger(); err == nil {
		t.Fatal("expected ledger to be unavailable")
	}

	r := a.registry()
	for _, name := range []string{"date", "calculator", "llm", "search", "list_data_files", "read_document", "fetch_page"} {
		if r.Get(name) == nil {
			t.Errorf("expected tool %q to be registered", name)
		}
	}
	if r.Get("run_sql_query") != nil {
		t.Error("sql tool needs a ledger")
	}

	a.ledger, _ = ledger.Open("postgres://localhost/finmate")
	if a.registry().Get("run_sql_query") == nil {
		t.Error("expected sql tool once a ledger is configured")
	}
}

func TestExecutorAndChatAgent(t *testing.T) {
	a := testApp(t)

	exec := a.executor()
	if exec.MaxRetries != 1 {
		t.Errorf("expected configured max retries, got %d", exec.MaxRetries)
	}
	for _, act := range []agent.Action{agent.ActionDate, agent.ActionCalculator, agent.ActionLLM, agent.ActionSearch} {
		if exec.Dispatch[act] == nil {
			t.Errorf("no tool bound to %s", act)
		}
	}

	ag, err := a.chatAgent()
	if err != nil {
		t.Fatal(err)
	}
	if ag.MaxRounds != 4 {
		t.Errorf("expected configured max rounds, got %d", ag.MaxRounds)
	}
	if ag.SystemPrompt == "" {
		t.Error("expected the default chat prompt when no prompt files exist")
	}

	if _, err := ag.Dialogue(context.Background(), "terminal", "hello"); err != nil {
		t.Fatal(err)
	}
	threads, err := ag.Store.Threads(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) != 1 || threads[0] != "terminal" {
		t.Errorf("expected the terminal thread to be listed, got %v", threads)
	}
}
