package governance

import (
	"context"
	"strings"
	"testing"
)

func TestRuleEngine(t *testing.T) {
	engine := NewRuleEngine()
	ctx := context.Background()

	res, err := engine.Evaluate(ctx, Request{Tool: "search", Arguments: "rent prices"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res.Effect)
	}

	engine.BlockTool("run_sql_query")
	res, _ = engine.Evaluate(ctx, Request{Tool: "run_sql_query"})
	if res.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny for blocked tool, got %s", res.Effect)
	}

	if err := engine.Deny("Card number", `\b\d{16}\b`); err != nil {
		t.Fatal(err)
	}
	res, _ = engine.Evaluate(ctx, Request{Tool: "search", Arguments: "4111111111111111"})
	if res.Effect != EffectDeny || !strings.Contains(res.Reason, "Card number") {
		t.Errorf("expected named rule in reason, got %+v", res)
	}

	if err := engine.Deny("broken", `(`); err == nil {
		t.Error("expected compile error for bad pattern")
	}
}

func TestReadOnlySQLPolicy(t *testing.T) {
	policy := NewReadOnlySQLPolicy()
	ctx := context.Background()

	cases := []struct {
		stmt string
		want Effect
	}{
		{"SELECT category, SUM(amount) FROM transactions GROUP BY category", EffectAllow},
		{"  select * from transactions;", EffectAllow},
		{"WITH m AS (SELECT 1) SELECT * FROM m", EffectAllow},
		{"SELECT description FROM transactions WHERE description ILIKE '%updated%'", EffectAllow},
		{"DELETE FROM transactions", EffectDeny},
		{"SELECT 1; DROP TABLE transactions", EffectDeny},
		{"update transactions set amount = 0", EffectDeny},
		{"SHOW ALL", EffectDeny},
		{"SELECT pg_sleep(10)", EffectDeny},
		{"SELECT * FROM transactions FOR UPDATE", EffectDeny},
		{"SELECT '--'; SELECT 2", EffectDeny},
		{"   ", EffectDeny},
	}

	for _, tc := range cases {
		res, err := policy.Evaluate(ctx, Request{Tool: "run_sql_query", Arguments: tc.stmt})
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", tc.stmt, err)
		}
		if res.Effect != tc.want {
			t.Errorf("Evaluate(%q) = %s (%s), want %s", tc.stmt, res.Effect, res.Reason, tc.want)
		}
	}
}
