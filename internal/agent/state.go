package agent

// Step is one planned tool invocation. Name keeps the planner's original
// spelling for reporting; Action is its parsed form.
type Step struct {
	Name   string `json:"action"`
	Action Action `json:"-"`
	Input  string `json:"input"`
}

// Plan is an ordered list of steps. A replan replaces it wholesale.
type Plan []Step

// StepResult records the outcome of executing one step.
type StepResult struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
	Input  string `json:"input"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// State carries one question through planning, execution and synthesis.
type State struct {
	Question    string
	Plan        Plan
	PlanRaw     string
	PlanErr     error
	StepResults []StepResult
	Retries     int
	Failed      bool
	FailedStep  int
	FinalAnswer string
}

func NewState(question string) *State {
	return &State{Question: question, FailedStep: -1}
}
