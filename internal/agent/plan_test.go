package agent

import (
	"errors"
	"testing"
)

func TestParsePlan_WellFormed(t *testing.T) {
	text := `[{"action": " Date ", "input": " today "}, {"action": "Calculator", "input": "2+2"}, {"action": "google search", "input": "cpi march"}]`
	plan, err := ParsePlan(text)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(plan))
	}
	if plan[0].Name != "Date" || plan[0].Input != "today" {
		t.Errorf("values not trimmed: %+v", plan[0])
	}
	want := []Action{ActionDate, ActionCalculator, ActionSearch}
	for i, a := range want {
		if plan[i].Action != a {
			t.Errorf("step %d: expected %v, got %v", i, a, plan[i].Action)
		}
	}
}

func TestParsePlan_Extraction(t *testing.T) {
	cases := []struct {
		name string
		text string
		n    int
	}{
		{"think block", "<think>I should check the date [maybe]</think>\n[{\"action\":\"Date\",\"input\":\"today\"}]", 1},
		{"prose around array", "Sure! Here is the plan:\n[{\"action\":\"LLM\",\"input\":\"what is an ETF\"}]\nLet me know.", 1},
		{"fenced", "```json\n[{\"action\":\"Date\",\"input\":\"\"},{\"action\":\"LLM\",\"input\":\"x\"}]\n```", 2},
		{"single object", `{"action": "Calculator", "input": "3*4"}`, 1},
		{"wrapped steps", `{"steps": [{"action": "Date", "input": "today"}]}`, 1},
		{"numeric input", `[{"action": "Calculator", "input": 12}]`, 1},
		{"empty array", `[]`, 0},
	}
	for _, c := range cases {
		plan, err := ParsePlan(c.text)
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
			continue
		}
		if len(plan) != c.n {
			t.Errorf("%s: expected %d steps, got %d", c.name, c.n, len(plan))
		}
	}
}

func TestParsePlan_MissingKeyFailsWholePlan(t *testing.T) {
	for _, text := range []string{
		`[{"action": "Date", "input": "today"}, {"action": "Calculator"}]`,
		`[{"action": "", "input": ""}]`,
		`[{"action": "Date", "input": null}]`,
		`[{"action": "Date", "input": "today"}, {"action": "  ", "input": "2+2"}]`,
		`[{"action": "Calculator", "input": "   "}]`,
	} {
		plan, err := ParsePlan(text)
		if err == nil {
			t.Fatalf("%s: expected parse error", text)
		}
		var perr *PlanParseError
		if !errors.As(err, &perr) {
			t.Errorf("%s: expected PlanParseError, got %T", text, err)
		}
		if len(plan) != 0 {
			t.Errorf("%s: expected empty plan, got %d steps", text, len(plan))
		}
	}
}

func TestParsePlan_Garbage(t *testing.T) {
	for _, text := range []string{"I cannot help with that.", `{"answer": 42}`, `"just a string"`, ""} {
		if _, err := ParsePlan(text); err == nil {
			t.Errorf("%q: expected error", text)
		}
	}
}

func TestParseAction(t *testing.T) {
	cases := map[string]Action{
		"Date":           ActionDate,
		"CALCULATOR":     ActionCalculator,
		"llm":            ActionLLM,
		"Google Search":  ActionSearch,
		"google  search": ActionSearch,
		"web search":     ActionSearch,
		"Search":         ActionSearch,
		"Weather":        ActionUnknown,
		"":               ActionUnknown,
	}
	for in, want := range cases {
		if got := ParseAction(in); got != want {
			t.Errorf("ParseAction(%q) = %v, want %v", in, got, want)
		}
	}
}
