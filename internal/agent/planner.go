package agent

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/rahul/finmate/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// Planner turns a question into a Plan with a single model call.
type Planner struct {
	Model        llms.Model
	Options      []llms.CallOption
	Instructions string
	Events       *observability.Logger
}

func NewPlanner(model llms.Model, instructions string, opts ...llms.CallOption) *Planner {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultPlannerPrompt
	}
	return &Planner{Model: model, Options: opts, Instructions: instructions}
}

// Plan fills state.Plan from the model's answer. A model or parse failure is
// recorded on the state as PlanErr with an empty plan; it is not returned.
func (p *Planner) Plan(ctx context.Context, sessionID string, state *State) {
	p.apply(ctx, sessionID, state, plannerPrompt(p.Instructions, state.Question), 0)
}

// Replan asks for a revised plan after a failed step. It reports whether a
// new plan was adopted; on failure the previous plan is kept and PlanErr set.
func (p *Planner) Replan(ctx context.Context, sessionID string, state *State) bool {
	return p.apply(ctx, sessionID, state, replanPrompt(state), state.Retries)
}

func (p *Planner) apply(ctx context.Context, sessionID string, state *State, prompt string, attempt int) bool {
	text, err := llms.GenerateFromSinglePrompt(ctx, p.Model, prompt, p.Options...)
	p.Events.LogLLM(sessionID, prompt, text, nil)
	if err != nil {
		log.Printf("[PLANNER] model call failed: %v", err)
		state.PlanErr = &PlanParseError{Reason: "model call failed: " + err.Error()}
		if attempt == 0 {
			state.Plan = Plan{}
		}
		observability.PlanParseFailures.Inc()
		p.Events.LogPlan(sessionID, attempt, nil, state.PlanErr)
		return false
	}

	state.PlanRaw = StripThink(text)
	plan, err := ParsePlan(text)
	if err != nil {
		var perr *PlanParseError
		if !errors.As(err, &perr) {
			perr = &PlanParseError{Reason: err.Error()}
		}
		log.Printf("[PLANNER] %v", perr)
		state.PlanErr = perr
		if attempt == 0 {
			state.Plan = Plan{}
		}
		observability.PlanParseFailures.Inc()
		p.Events.LogPlan(sessionID, attempt, nil, perr)
		return false
	}

	state.Plan = plan
	state.PlanErr = nil
	p.Events.LogPlan(sessionID, attempt, plan, nil)
	return true
}
