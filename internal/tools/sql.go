package tools

import (
	"context"
	"strings"

	"github.com/rahul/finmate/internal/governance"
)

// Querier runs a read query and renders the rows as text.
type Querier interface {
	QueryTable(ctx context.Context, query string) (string, error)
}

// SQLTool lets the model query the transactions ledger.
type SQLTool struct {
	DB     Querier
	Policy governance.PolicyEngine
}

func NewSQLTool(db Querier, policy governance.PolicyEngine) *SQLTool {
	return &SQLTool{DB: db, Policy: policy}
}

func (s *SQLTool) Name() string {
	return "run_sql_query"
}

func (s *SQLTool) Description() string {
	return "Run a read-only PostgreSQL SELECT against the table transactions(id, amount, category, date, description). Expenses have negative amounts."
}

func (s *SQLTool) Argument() Argument {
	return Argument{Name: "query", Description: "A single SELECT statement."}
}

func (s *SQLTool) Execute(ctx context.Context, input string) Result {
	query := strings.TrimSpace(input)
	if query == "" {
		return Fail(KindInvalidInput, "empty query")
	}
	if s.Policy != nil {
		res, err := s.Policy.Evaluate(ctx, governance.Request{Tool: s.Name(), Arguments: query})
		if err != nil {
			return Fail(KindExecution, "policy check failed: %v", err)
		}
		if res.Effect == governance.EffectDeny {
			return Fail(KindDenied, "%s", res.Reason)
		}
	}
	out, err := s.DB.QueryTable(ctx, query)
	if err != nil {
		return Fail(KindExecution, "database error: %v", err)
	}
	return OK(out)
}
