package finance

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/rahul/finmate/internal/ledger"
	"github.com/tmc/langchaingo/llms"
	"gopkg.in/yaml.v3"
)

// Categories is the fixed set every transaction is classified into.
var Categories = []string{"Groceries", "Rent", "Utilities", "Entertainment", "Income", "Miscellaneous"}

// FallbackCategory is used when nothing else matches.
const FallbackCategory = "Miscellaneous"

// Rule assigns Category to any transaction whose description contains one
// of Keywords (case-insensitive).
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads keyword rules from a YAML file. An empty path yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, r := range rf.Rules {
		if NormalizeCategory(r.Category) != r.Category {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
	}
	return rf.Rules, nil
}

// MatchRule returns the category of the first rule matching description.
func MatchRule(rules []Rule, description string) (string, bool) {
	desc := strings.ToLower(description)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(desc, strings.ToLower(kw)) {
				return r.Category, true
			}
		}
	}
	return "", false
}

// NormalizeCategory maps a free-form model reply onto Categories. An exact
// (case-insensitive) answer wins; otherwise the earliest category named in
// the text; otherwise FallbackCategory.
func NormalizeCategory(reply string) string {
	clean := strings.Trim(strings.TrimSpace(reply), ".*\"' \n")
	for _, c := range Categories {
		if strings.EqualFold(clean, c) {
			return c
		}
	}
	lower := strings.ToLower(reply)
	best, bestIdx := FallbackCategory, -1
	for _, c := range Categories {
		if idx := strings.Index(lower, strings.ToLower(c)); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = c, idx
		}
	}
	return best
}

// Categorizer classifies transactions by rule, falling back to the model.
type Categorizer struct {
	Model   llms.Model
	Options []llms.CallOption
	Rules   []Rule
}

func NewCategorizer(model llms.Model, rules []Rule, opts ...llms.CallOption) *Categorizer {
	return &Categorizer{Model: model, Rules: rules, Options: opts}
}

func classifyPrompt(description string, amount float64) string {
	return fmt.Sprintf("Classify this transaction into one of these categories:\n"+
		"[%s]\n\n"+
		"Transaction: '%s - $%.2f'\n"+
		"Answer with the category name only.", strings.Join(Categories, ", "), description, math.Abs(amount))
}

func (c *Categorizer) Classify(ctx context.Context, description string, amount float64) (string, error) {
	if cat, ok := MatchRule(c.Rules, description); ok {
		return cat, nil
	}
	if c.Model == nil {
		return FallbackCategory, nil
	}
	reply, err := llms.GenerateFromSinglePrompt(ctx, c.Model, classifyPrompt(description, amount), c.Options...)
	if err != nil {
		return "", fmt.Errorf("classify %q: %w", description, err)
	}
	return NormalizeCategory(reply), nil
}

// CategoryStore is the part of the ledger the batch job needs.
type CategoryStore interface {
	Uncategorized(ctx context.Context, limit int) ([]ledger.Transaction, error)
	UpdateCategory(ctx context.Context, id int64, category string) error
}

// CategorizePending classifies every uncategorized transaction, batchSize
// rows at a time, and returns how many were updated.
func (c *Categorizer) CategorizePending(ctx context.Context, s CategoryStore, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = ledger.DefaultBatchSize
	}
	updated := 0
	for {
		batch, err := s.Uncategorized(ctx, batchSize)
		if err != nil {
			return updated, err
		}
		if len(batch) == 0 {
			return updated, nil
		}
		for _, t := range batch {
			cat, err := c.Classify(ctx, t.Description, t.Amount)
			if err != nil {
				return updated, err
			}
			if err := s.UpdateCategory(ctx, t.ID, cat); err != nil {
				return updated, err
			}
			updated++
		}
		log.Printf("[CATEGORIZE] %d transactions categorized", updated)
	}
}
