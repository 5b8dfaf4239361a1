package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes one tool invocation awaiting approval.
type Request struct {
	Tool      string
	Arguments string
	SessionID string
}

type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine decides whether a tool call may run.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// Rule denies any request whose arguments match Pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// RuleEngine denies blocked tools and arguments matching any rule. Everything
// else is allowed.
type RuleEngine struct {
	BlockedTools map[string]bool
	Rules        []Rule
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{BlockedTools: make(map[string]bool)}
}

func (e *RuleEngine) BlockTool(name string) {
	e.BlockedTools[name] = true
}

// Deny adds a named argument rule.
func (e *RuleEngine) Deny(name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("rule %q: %w", name, err)
	}
	e.Rules = append(e.Rules, Rule{Name: name, Pattern: re})
	return nil
}

func (e *RuleEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.BlockedTools[req.Tool] {
		return deny("Tool '%s' is disabled", req.Tool), nil
	}
	for _, r := range e.Rules {
		if r.Pattern.MatchString(req.Arguments) {
			return deny("%s is not allowed", r.Name), nil
		}
	}
	return Result{Effect: EffectAllow, Reason: "no rule matched"}, nil
}

func deny(format string, args ...any) Result {
	return Result{Effect: EffectDeny, Reason: fmt.Sprintf(format, args...)}
}

// ReadOnlySQLPolicy admits a single SELECT or WITH statement and nothing
// that writes, touches server files or stalls the connection.
type ReadOnlySQLPolicy struct {
	*RuleEngine
}

func NewReadOnlySQLPolicy() *ReadOnlySQLPolicy {
	e := NewRuleEngine()
	for _, r := range []struct{ name, pattern string }{
		{"Data modification", `(?i)\b(insert|update|delete|merge|drop|alter|truncate|create|grant|revoke|copy|vacuum|lock)\b`},
		{"Server function access", `(?i)\bpg_(read|write|sleep|terminate|cancel|ls_dir|stat_file)\w*`},
		{"Row locking", `(?i)\bfor\s+(update|share)\b`},
		{"SQL comment", `--|/\*`},
	} {
		if err := e.Deny(r.name, r.pattern); err != nil {
			panic(err)
		}
	}
	return &ReadOnlySQLPolicy{RuleEngine: e}
}

func (p *ReadOnlySQLPolicy) Evaluate(ctx context.Context, req Request) (Result, error) {
	res, err := p.RuleEngine.Evaluate(ctx, req)
	if err != nil || res.Effect == EffectDeny {
		return res, err
	}

	stmt := strings.TrimSuffix(strings.TrimSpace(req.Arguments), ";")
	if stmt == "" {
		return deny("Empty query"), nil
	}
	if strings.Contains(stmt, ";") {
		return deny("Only a single statement is allowed"), nil
	}
	first := strings.ToLower(strings.Fields(stmt)[0])
	if first != "select" && first != "with" {
		return deny("Only SELECT queries are allowed"), nil
	}
	return res, nil
}
