package finance

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rahul/finmate/internal/ledger"
	"github.com/rahul/finmate/internal/llm/llmtest"
)

func TestParseCSV(t *testing.T) {
	body := "Amount,Date,Description,Category\n" +
		"\"$1,200.00\",2024-03-01,Salary,Income\n" +
		"(45.10),03/02/2024,Corner shop,\n" +
		"\n" +
		"-12.5,2024-03-03,Netflix,\n"
	txs, err := ParseCSV(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txs))
	}
	if txs[0].Amount != 1200 || txs[0].Category != "Income" {
		t.Errorf("unexpected first row %+v", txs[0])
	}
	if txs[1].Amount != -45.10 || !txs[1].Date.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected second row %+v", txs[1])
	}
	if txs[2].Description != "Netflix" || txs[2].Category != "" {
		t.Errorf("unexpected third row %+v", txs[2])
	}
}

func TestParseCSV_Errors(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("date,amount\n2024-01-01,5\n")); err == nil {
		t.Error("expected missing column error")
	}

	_, err := ParseCSV(strings.NewReader("date,description,amount\n2024-01-01,ok,5\nyesterday,bad,5\n"))
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Errorf("expected row error on line 3, got %v", err)
	}

	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"12":        12,
		"-12.50":    -12.5,
		"$1,234.56": 1234.56,
		"-$20":      -20,
		"(7.25)":    -7.25,
		"+3":        3,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
	for _, bad := range []string{"", "abc", "1.2.3"} {
		if _, err := ParseAmount(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

type recordingWriter struct {
	txs   []ledger.Transaction
	batch int
}

func (r *recordingWriter) InsertTransactions(ctx context.Context, txs []ledger.Transaction, batchSize int) (int, error) {
	r.txs = append(r.txs, txs...)
	r.batch = batchSize
	return len(txs), nil
}

func TestIngester_AppliesRules(t *testing.T) {
	w := &recordingWriter{}
	rules := []Rule{{Category: "Groceries", Keywords: []string{"whole foods", "aldi"}}}
	ing := NewIngester(w, rules, 0)

	n, err := ing.Ingest(context.Background(), "march.csv", strings.NewReader(
		"date,description,amount,category\n"+
			"2024-03-01,WHOLE FOODS #123,-80,\n"+
			"2024-03-02,Landlord,-1500,Rent\n"+
			"2024-03-03,Unknown shop,-5,\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || w.batch != ledger.DefaultBatchSize {
		t.Errorf("unexpected n=%d batch=%d", n, w.batch)
	}
	got := []string{w.txs[0].Category, w.txs[1].Category, w.txs[2].Category}
	want := []string{"Groceries", "Rent", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected category %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	body := "rules:\n  - category: Utilities\n    keywords: [\"electric\", \"water bill\"]\n  - category: Entertainment\n    keywords: [netflix, spotify]\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if cat, ok := MatchRule(rules, "Spotify Premium"); !ok || cat != "Entertainment" {
		t.Errorf("expected Entertainment, got %q %v", cat, ok)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("rules:\n  - category: Crypto\n    keywords: [btc]\n"), 0644)
	if _, err := LoadRules(bad); err == nil {
		t.Error("expected error for unknown category")
	}

	if rules, err := LoadRules(""); err != nil || rules != nil {
		t.Errorf("empty path should yield no rules, got %v %v", rules, err)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Groceries":                          "Groceries",
		" rent. ":                            "Rent",
		"**Utilities**":                      "Utilities",
		"This looks like Entertainment.":     "Entertainment",
		"Income, not Miscellaneous":          "Income",
		"I am not sure what this should be.": "Miscellaneous",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

type memCategoryStore struct {
	rows    []ledger.Transaction
	updates map[int64]string
}

func (m *memCategoryStore) Uncategorized(ctx context.Context, limit int) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, r := range m.rows {
		if _, done := m.updates[r.ID]; done {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memCategoryStore) UpdateCategory(ctx context.Context, id int64, category string) error {
	m.updates[id] = category
	return nil
}

func TestCategorizePending(t *testing.T) {
	s := &memCategoryStore{
		rows: []ledger.Transaction{
			{ID: 1, Description: "Netflix", Amount: -15},
			{ID: 2, Description: "ACME payroll", Amount: 3000},
			{ID: 3, Description: "City power", Amount: -60},
		},
		updates: map[int64]string{},
	}
	model := llmtest.New(
		llmtest.Text("Income"),
		llmtest.Text("Category: Utilities"),
	)
	c := NewCategorizer(model, []Rule{{Category: "Entertainment", Keywords: []string{"netflix"}}})

	n, err := c.CategorizePending(context.Background(), s, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 updates, got %d", n)
	}
	want := map[int64]string{1: "Entertainment", 2: "Income", 3: "Utilities"}
	for id, cat := range want {
		if s.updates[id] != cat {
			t.Errorf("row %d: expected %s, got %s", id, cat, s.updates[id])
		}
	}
	if model.CallCount() != 2 {
		t.Errorf("rule match should skip the model, got %d calls", model.CallCount())
	}
	if !strings.Contains(model.Prompts()[0], "'ACME payroll - $3000.00'") {
		t.Errorf("unexpected prompt %q", model.Prompts()[0])
	}
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestForecast_LinearTrend(t *testing.T) {
	history := []ledger.DailyTotal{
		{Day: day(1), Total: 10},
		{Day: day(2), Total: 20},
		{Day: day(3), Total: 30},
		{Day: day(4), Total: 40},
	}
	points, err := Forecast(history, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if !points[0].DS.Equal(day(5)) {
		t.Errorf("forecast should start the day after the history, got %v", points[0].DS)
	}
	for i, want := range []float64{50, 60, 70} {
		if math.Abs(points[i].YHat-want) > 1e-9 {
			t.Errorf("point %d: expected %v, got %v", i, want, points[i].YHat)
		}
		if math.Abs(points[i].YHatUpper-points[i].YHatLower) > 1e-9 {
			t.Errorf("perfect fit should have no band, got %+v", points[i])
		}
	}
	if math.Abs(Total(points)-180) > 1e-9 {
		t.Errorf("unexpected total %v", Total(points))
	}
}

func TestForecast_GapsAndBand(t *testing.T) {
	history := []ledger.DailyTotal{
		{Day: day(1), Total: 50},
		{Day: day(3), Total: 10},
		{Day: day(4), Total: 70},
		{Day: day(6), Total: 20},
	}
	points, err := Forecast(history, 1)
	if err != nil {
		t.Fatal(err)
	}
	p := points[0]
	if !p.DS.Equal(day(7)) {
		t.Errorf("unexpected date %v", p.DS)
	}
	if !(p.YHatLower <= p.YHat && p.YHat < p.YHatUpper) {
		t.Errorf("expected a band around the estimate, got %+v", p)
	}
	if p.YHatLower < 0 {
		t.Errorf("lower bound should be floored at zero, got %v", p.YHatLower)
	}

	if _, err := Forecast(history[:1], 5); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestForecast_ResidualBand(t *testing.T) {
	history := []ledger.DailyTotal{
		{Day: day(1), Total: 0},
		{Day: day(2), Total: 2},
		{Day: day(3), Total: 0},
		{Day: day(4), Total: 2},
	}
	points, err := Forecast(history, 1)
	if err != nil {
		t.Fatal(err)
	}
	// slope 0.4, intercept 0.4, SSE 3.2 over 2 degrees of freedom
	sigma := math.Sqrt(1.6)
	p := points[0]
	if math.Abs(p.YHat-2) > 1e-9 {
		t.Errorf("expected yhat 2, got %v", p.YHat)
	}
	if math.Abs(p.YHatUpper-(2+1.96*sigma)) > 1e-9 {
		t.Errorf("unexpected upper bound %v", p.YHatUpper)
	}
	if p.YHatLower != 0 {
		t.Errorf("lower bound should be floored at zero, got %v", p.YHatLower)
	}
}

func TestAdvisor(t *testing.T) {
	model := llmtest.New(llmtest.Text("  - Cut dining out by $200\n- Move $500 to savings  "))
	a := NewAdvisor(model)
	out, err := a.SuggestActions(context.Background(), 2500, 1800, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "- Cut dining") {
		t.Errorf("expected trimmed output, got %q", out)
	}
	prompt := model.Prompts()[0]
	for _, want := range []string{"Current balance: $2500.00", "Forecasted total expenses: $1800.00", "Savings goal: $1000.00", "less than 50 words"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
