package tools

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// Only numbers (including exponent literals) and arithmetic operators pass.
// Identifiers never reach the evaluator, so no builtin or call can run.
var arithmeticRE = regexp.MustCompile(`^(?:[0-9]*\.?[0-9]+(?:[eE][+-]?[0-9]+)?|[0-9]+\.|[\s+\-*/%()^])+$`)

// CalculatorTool evaluates arithmetic expressions.
type CalculatorTool struct{}

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (c *CalculatorTool) Name() string {
	return "calculator"
}

func (c *CalculatorTool) Description() string {
	return "Evaluates an arithmetic expression using + - * / % ** and parentheses, e.g. '(1200-350)*12' or '1000*1.05**10'."
}

func (c *CalculatorTool) Argument() Argument {
	return Argument{Name: "expression", Description: "The arithmetic expression to evaluate."}
}

func (c *CalculatorTool) Execute(ctx context.Context, input string) Result {
	src := strings.TrimSpace(strings.ReplaceAll(input, ",", ""))
	if src == "" {
		return Fail(KindInvalidInput, "empty expression")
	}
	if !arithmeticRE.MatchString(src) {
		return Fail(KindInvalidInput, "evaluating expression %q: only numbers and arithmetic operators are allowed", input)
	}

	program, err := expr.Compile(src, expr.Env(map[string]any{}), expr.DisableAllBuiltins())
	if err != nil {
		return Fail(KindExecution, "evaluating expression: %v", err)
	}
	v, err := expr.Run(program, map[string]any{})
	if err != nil {
		return Fail(KindExecution, "evaluating expression: %v", err)
	}
	return formatValue(v)
}

func formatValue(v any) Result {
	switch n := v.(type) {
	case int:
		return OK(strconv.Itoa(n))
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return Fail(KindExecution, "evaluating expression: result is not a finite number (division by zero?)")
		}
		return OK(strconv.FormatFloat(n, 'f', -1, 64))
	default:
		return Fail(KindExecution, "evaluating expression: unexpected result %v", v)
	}
}
