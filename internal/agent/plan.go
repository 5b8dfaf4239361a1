package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	thinkRE  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	arrayRE  = regexp.MustCompile(`(?s)\[.*\]`)
	objectRE = regexp.MustCompile(`(?s)\{.*\}`)
)

// PlanParseError means the planner output could not be turned into a plan.
// It is recoverable: the executor proceeds with an empty plan.
type PlanParseError struct {
	Reason string
}

func (e *PlanParseError) Error() string {
	return "plan parse error: " + e.Reason
}

// StripThink removes <think>...</think> reasoning blocks some models emit.
func StripThink(text string) string {
	return strings.TrimSpace(thinkRE.ReplaceAllString(text, ""))
}

// ParsePlan extracts a plan from model output. It tries the whole text as
// JSON, then the first [...] span, then the first {...} span. Any step
// with a missing or blank "action" or "input" fails the whole plan.
func ParsePlan(text string) (Plan, error) {
	raw, err := extractJSON(StripThink(text))
	if err != nil {
		return nil, &PlanParseError{Reason: err.Error()}
	}
	plan, err := decodeSteps(raw)
	if err != nil {
		return nil, &PlanParseError{Reason: err.Error()}
	}
	return plan, nil
}

func extractJSON(text string) ([]byte, error) {
	if json.Valid([]byte(text)) {
		return []byte(text), nil
	}
	for _, re := range []*regexp.Regexp{arrayRE, objectRE} {
		if m := re.FindString(text); m != "" && json.Valid([]byte(m)) {
			return []byte(m), nil
		}
	}
	return nil, errors.New("could not parse JSON from model output")
}

func decodeSteps(raw []byte) (Plan, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if _, ok := v["action"]; ok {
			items = []any{v}
			break
		}
		for _, key := range []string{"steps", "plan"} {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, errors.New("planner JSON is not a list")
		}
	default:
		return nil, errors.New("planner JSON is not a list")
	}

	plan := make(Plan, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d is not an object", i)
		}
		action, hasAction := obj["action"]
		input, hasInput := obj["input"]
		if !hasAction || !hasInput {
			return nil, fmt.Errorf("planner returned invalid step %d: missing action or input", i)
		}
		name, ok := action.(string)
		if !ok {
			return nil, fmt.Errorf("step %d action is not a string", i)
		}
		name = strings.TrimSpace(name)
		in := strings.TrimSpace(inputString(input))
		if name == "" || in == "" {
			return nil, fmt.Errorf("planner returned invalid step %d: empty action or input", i)
		}
		plan = append(plan, Step{
			Name:   name,
			Action: ParseAction(name),
			Input:  in,
		})
	}
	return plan, nil
}

func inputString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
