package agent

import (
	"encoding/json"
	"fmt"
)

// DefaultPlannerPrompt lists the actions a plan may use. The question is
// appended by the planner.
const DefaultPlannerPrompt = `You are a strict planner AI.
Given the user's QUESTION, return ONLY a JSON array of ordered steps.
You have access to the following tools:
- Date: returns today's date.
- Calculator: evaluates math expressions safely
- LLM: answers general knowledge questions
- Google Search: Use it for getting information about future events.
Each step must be an object with exactly two fields:
  "action": one of ["Date", "Calculator", "LLM", "Google Search"]
  "input": string to pass to that tool

STRICT RULES:
- Do NOT include any text before or after the JSON.
- No explanations, no reasoning, no commentary.
- Output must start with [ and end with ].

Example:
[{"action": "Date", "input": "today"}, {"action": "Google Search", "input": "latest cricket news"}]`

// DefaultChatPrompt is the system instruction that opens every chat thread.
const DefaultChatPrompt = `You are a personal finance assistant with access to tools that can list and read account statements, query the transactions database and search the web.
If the user asks about transactions, money received, spending, or summaries from account statements, use list_data_files, read_document and run_sql_query to extract and analyze the data.
The transactions table has columns id, amount, category, date, description; expenses have negative amounts.
If a question does not require file or data access, respond directly.
Use the tools aggressively to find the relevant information.`

func plannerPrompt(instructions, question string) string {
	return fmt.Sprintf("%s\n\nQUESTION: %s\n", instructions, question)
}

func replanPrompt(state *State) string {
	var failing StepResult
	if state.FailedStep >= 0 && state.FailedStep < len(state.StepResults) {
		failing = state.StepResults[state.FailedStep]
	}
	failJSON, _ := json.Marshal(failing)
	return fmt.Sprintf("A previous plan failed at step index %d. The failing step: %s.\n"+
		"User question: %s\n"+
		"Existing plan (raw): %s\n"+
		"Please return a revised JSON plan that avoids the failure. Strictly return JSON array.\n",
		state.FailedStep, failJSON, state.Question, state.PlanRaw)
}

func synthesisPrompt(state *State) string {
	results := state.StepResults
	if results == nil {
		results = []StepResult{}
	}
	resJSON, _ := json.Marshal(results)
	return fmt.Sprintf("You are a concise synthesizer. Given the user question and the step execution results (JSON),\n"+
		"produce a short final answer (one or two sentences) that directly answers the user's question.\n"+
		"Return FINAL ANSWER ONLY (no reasoning). Question: %s\nResults: %s\n",
		state.Question, resJSON)
}
