package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rahul/finmate/internal/observability"
	"github.com/rahul/finmate/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// DefaultMaxRetries bounds replan cycles per question.
const DefaultMaxRetries = 2

// Executor runs a plan step by step, replans on the first failing step up to
// MaxRetries times, then synthesizes a short answer from whatever results it
// has.
type Executor struct {
	Planner    *Planner
	Dispatch   map[Action]tools.Tool
	MaxRetries int
	Events     *observability.Logger
}

func NewExecutor(planner *Planner, dispatch map[Action]tools.Tool) *Executor {
	return &Executor{
		Planner:    planner,
		Dispatch:   dispatch,
		MaxRetries: DefaultMaxRetries,
		Events:     planner.Events,
	}
}

// Solve plans, executes and synthesizes an answer for question. The returned
// state is complete even when the plan could not be parsed; only a failed
// synthesis call is reported as an error.
func (e *Executor) Solve(ctx context.Context, sessionID, question string) (*State, error) {
	state := NewState(question)
	e.Planner.Plan(ctx, sessionID, state)
	if err := e.Run(ctx, sessionID, state); err != nil {
		return state, err
	}
	return state, nil
}

// Answer is Solve reduced to the final answer text.
func (e *Executor) Answer(ctx context.Context, sessionID, question string) (string, error) {
	state, err := e.Solve(ctx, sessionID, question)
	if err != nil {
		return "", err
	}
	return state.FinalAnswer, nil
}

// Run drives an already planned state to a final answer.
func (e *Executor) Run(ctx context.Context, sessionID string, state *State) error {
	for {
		e.execute(ctx, sessionID, state)
		if !state.Failed || state.Retries >= e.MaxRetries {
			break
		}
		state.Retries++
		observability.Replans.Inc()
		e.Events.LogReplan(sessionID, state.Retries, state.FailedStep)
		log.Printf("[EXECUTOR] step %d failed, replanning (%d/%d)", state.FailedStep, state.Retries, e.MaxRetries)
		if !e.Planner.Replan(ctx, sessionID, state) {
			break
		}
	}
	return e.synthesize(ctx, sessionID, state)
}

// execute runs the current plan from the first step. Results from an
// earlier pass are discarded.
func (e *Executor) execute(ctx context.Context, sessionID string, state *State) {
	state.StepResults = nil
	state.Failed = false
	state.FailedStep = -1

	for i, step := range state.Plan {
		var res tools.Result
		if t, ok := e.Dispatch[step.Action]; ok && t != nil {
			res = tools.Run(ctx, t, step.Input)
		} else {
			res = tools.Fail(tools.KindUnknownAction, "Unknown action: %s", step.Name)
		}

		sr := StepResult{Index: i, Action: step.Name, Input: step.Input, Result: res.Text()}
		if res.Failed() {
			sr.Error = string(res.Err.Kind)
		}
		state.StepResults = append(state.StepResults, sr)
		e.Events.LogStep(sessionID, i, step.Name, step.Input, sr.Result, res.Failed())

		if res.Failed() {
			state.Failed = true
			state.FailedStep = i
			break
		}
	}
}

func (e *Executor) synthesize(ctx context.Context, sessionID string, state *State) error {
	prompt := synthesisPrompt(state)
	text, err := llms.GenerateFromSinglePrompt(ctx, e.Planner.Model, prompt, e.Planner.Options...)
	e.Events.LogLLM(sessionID, prompt, text, nil)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	state.FinalAnswer = strings.TrimSpace(StripThink(text))
	e.Events.LogSynthesis(sessionID, state.Retries, state.FinalAnswer)
	return nil
}

// DispatchTable maps each planner action onto a registered tool.
func DispatchTable(date, calculator, model, search tools.Tool) map[Action]tools.Tool {
	return map[Action]tools.Tool{
		ActionDate:       date,
		ActionCalculator: calculator,
		ActionLLM:        model,
		ActionSearch:     search,
	}
}
