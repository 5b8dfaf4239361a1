package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Advisor turns balances and forecasts into short recommendations.
type Advisor struct {
	Model   llms.Model
	Options []llms.CallOption
}

func NewAdvisor(model llms.Model, opts ...llms.CallOption) *Advisor {
	return &Advisor{Model: model, Options: opts}
}

// SuggestActions proposes a compact savings plan.
func (a *Advisor) SuggestActions(ctx context.Context, balance, forecastExpenses, savingsGoal float64) (string, error) {
	prompt := fmt.Sprintf("You are a financial planning assistant.\n"+
		"Current balance: $%.2f\n"+
		"Forecasted total expenses: $%.2f\n"+
		"Savings goal: $%.2f\n\n"+
		"Suggest a clear plan to meet the goal less than 50 words. It should be compact and in points.",
		balance, forecastExpenses, savingsGoal)
	return a.generate(ctx, prompt)
}

// Decide produces an action plan for free-form context.
func (a *Advisor) Decide(ctx context.Context, situation string) (string, error) {
	prompt := fmt.Sprintf("You are an execution agent. Based on the following context, make a decision:\n%s\n\n"+
		"Provide a clear and concise action plan.", situation)
	return a.generate(ctx, prompt)
}

func (a *Advisor) generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, a.Model, prompt, a.Options...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
