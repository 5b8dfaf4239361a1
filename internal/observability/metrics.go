package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finmate",
		Name:      "tool_calls_total",
		Help:      "Tool invocations by tool name and outcome.",
	}, []string{"tool", "outcome"})

	PlanParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finmate",
		Name:      "plan_parse_failures_total",
		Help:      "Planner responses that could not be parsed into a plan.",
	})

	Replans = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finmate",
		Name:      "replans_total",
		Help:      "Replan cycles triggered by a failed step.",
	})

	ChatRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "finmate",
		Name:      "chat_tool_rounds",
		Help:      "Model-to-tool rounds per dialogue turn.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
	})

	Asks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finmate",
		Name:      "asks_total",
		Help:      "Questions received over HTTP by mode and status code.",
	}, []string{"mode", "code"})

	IngestedRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finmate",
		Name:      "ingested_rows_total",
		Help:      "Transaction rows inserted from CSV files.",
	})
)

// ObserveTool records one tool invocation outcome.
func ObserveTool(tool string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	ToolCalls.WithLabelValues(tool, outcome).Inc()
}
