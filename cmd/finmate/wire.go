package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/rahul/finmate/internal/agent"
	"github.com/rahul/finmate/internal/chat"
	"github.com/rahul/finmate/internal/governance"
	"github.com/rahul/finmate/internal/ledger"
	"github.com/rahul/finmate/internal/llm"
	"github.com/rahul/finmate/internal/observability"
	"github.com/rahul/finmate/internal/store"
	"github.com/rahul/finmate/internal/tools"
	"github.com/rahul/finmate/pkg/config"
	"github.com/tmc/langchaingo/llms"
)

var errNoLedger = errors.New("ledger database is not configured (database.url or DATABASE_URL)")

// app holds the shared pieces every command builds from config.
type app struct {
	cfg     *config.Config
	model   llms.Model
	opts    []llms.CallOption
	events  *observability.Logger
	prompts *agent.PromptManager
	ledger  *ledger.Ledger
	closers []io.Closer
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads config and opens the ledger. The model client is built only
// when withModel is set so that ledger-only commands need no API key.
func newApp(ctx context.Context, cfgPath string, withModel bool) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		events:  observability.NewLogger(),
		prompts: agent.NewPromptManager(cfg.App.PromptsDir),
	}

	if withModel {
		model, provider, err := llm.FromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.model = model
		a.opts = llm.CallOptions(provider)
	}

	if dsn, err := cfg.PostgresDSN(); err == nil {
		l, err := ledger.Open(dsn)
		if err != nil {
			return nil, err
		}
		a.ledger = l
		a.closers = append(a.closers, l)
	} else {
		log.Printf("Warning: %v; ledger features disabled", err)
	}
	return a, nil
}

func (a *app) requireLedger() (*ledger.Ledger, error) {
	if a.ledger == nil {
		return nil, errNoLedger
	}
	return a.ledger, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func (a *app) searcher() (tools.Searcher, error) {
	s := a.cfg.Search
	if s.Provider == "google" && s.APIKey != "" && s.CX != "" {
		return tools.NewGoogleSearcher(s.APIKey, s.CX, s.Timeout)
	}
	if s.Provider == "google" {
		log.Printf("Warning: Google search keys missing, falling back to DuckDuckGo")
	}
	return tools.NewDuckDuckGoSearcher(s.MaxResults)
}

func (a *app) searchTool() *tools.SearchTool {
	searcher, err := a.searcher()
	if err != nil {
		log.Printf("Warning: Failed to initialize search tool: %v", err)
		return nil
	}
	return tools.NewSearchTool(searcher, a.cfg.Search.MaxResults)
}

// executor builds the planner/executor pipeline.
func (a *app) executor() *agent.Executor {
	planner := agent.NewPlanner(a.model, a.prompts.PlannerPrompt(), a.opts...)
	planner.Events = a.events

	var search tools.Tool
	if st := a.searchTool(); st != nil {
		search = tools.NewSearchAnswerTool(st, a.model, a.opts...)
	}
	dispatch := agent.DispatchTable(
		tools.NewDateTool(),
		tools.NewCalculatorTool(),
		tools.NewLLMTool(a.model, a.opts...),
		search,
	)

	exec := agent.NewExecutor(planner, dispatch)
	if a.cfg.Agent.MaxRetries > 0 {
		exec.MaxRetries = a.cfg.Agent.MaxRetries
	}
	return exec
}

// registry builds the tool set offered to the chat model.
func (a *app) registry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(tools.NewDateTool())
	r.Register(tools.NewCalculatorTool())
	r.Register(tools.NewLLMTool(a.model, a.opts...))
	if st := a.searchTool(); st != nil {
		r.Register(st)
	}
	r.Register(tools.NewListFilesTool(a.cfg.App.DataDir))
	r.Register(tools.NewReadDocumentTool(a.cfg.App.DataDir))
	r.Register(tools.NewScraperTool(tools.NewChromeRenderer("")))
	if a.ledger != nil {
		r.Register(tools.NewSQLTool(a.ledger, governance.NewReadOnlySQLPolicy()))
	}
	return r
}

// chatAgent opens the checkpoint store and builds the conversational agent.
func (a *app) chatAgent() (*chat.Agent, error) {
	cp, err := store.Open(a.cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}
	if c, ok := cp.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	ag := chat.NewAgent(a.model, a.registry(), cp, a.prompts.ChatPrompt())
	ag.Options = a.opts
	ag.Events = a.events
	if a.cfg.Agent.MaxToolRounds > 0 {
		ag.MaxRounds = a.cfg.Agent.MaxToolRounds
	}
	return ag, nil
}
