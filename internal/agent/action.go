package agent

import "strings"

// Action is the closed set of tools a plan step may name.
type Action int

const (
	ActionUnknown Action = iota
	ActionDate
	ActionCalculator
	ActionLLM
	ActionSearch
)

var actionNames = map[string]Action{
	"date":          ActionDate,
	"calculator":    ActionCalculator,
	"llm":           ActionLLM,
	"google search": ActionSearch,
	"search":        ActionSearch,
	"web search":    ActionSearch,
}

// ParseAction maps a planner action string onto an Action, ignoring case and
// surrounding whitespace. Unrecognized names yield ActionUnknown.
func ParseAction(s string) Action {
	name := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if a, ok := actionNames[name]; ok {
		return a
	}
	return ActionUnknown
}

func (a Action) String() string {
	switch a {
	case ActionDate:
		return "Date"
	case ActionCalculator:
		return "Calculator"
	case ActionLLM:
		return "LLM"
	case ActionSearch:
		return "Google Search"
	default:
		return "Unknown"
	}
}
