package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rahul/finmate/internal/ledger"
	"github.com/rahul/finmate/pkg/config"
)

type fakeChat struct {
	threads []string
	answer  string
	err     error
}

func (f *fakeChat) Dialogue(ctx context.Context, threadID, query string) (string, error) {
	f.threads = append(f.threads, threadID)
	return f.answer, f.err
}

type fakePlanner struct {
	answer string
	err    error
}

func (f *fakePlanner) Answer(ctx context.Context, sessionID, question string) (string, error) {
	return f.answer, f.err
}

func serverConfig() config.ServerConfig {
	return config.ServerConfig{
		ExcludedCategories: []string{"Transfer", "Credit Card Payment"},
		DashboardMonths:    12,
		TopCategories:      8,
	}
}

func do(t *testing.T, e *echo.Echo, method, target, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestAsk_MissingQuestion(t *testing.T) {
	s := New(serverConfig(), &fakeChat{}, &fakePlanner{}, nil)
	rec, out := do(t, s.Echo(), http.MethodPost, "/ask", `{"question": "  "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if out["error"] != "No question provided" {
		t.Errorf("unexpected error body %v", out)
	}
}

func TestAsk_ChatModeAssignsSession(t *testing.T) {
	chat := &fakeChat{answer: "You spent $320 on groceries."}
	s := New(serverConfig(), chat, &fakePlanner{}, nil)

	rec, out := do(t, s.Echo(), http.MethodPost, "/ask", `{"question": "groceries last month?"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if out["answer"] != "You spent $320 on groceries." {
		t.Errorf("unexpected answer %v", out["answer"])
	}
	sid, _ := out["session_id"].(string)
	if len(sid) != 36 || chat.threads[0] != sid {
		t.Errorf("expected a generated uuid session id, got %q (threads %v)", sid, chat.threads)
	}

	_, out = do(t, s.Echo(), http.MethodPost, "/ask", `{"question": "and rent?"}`, map[string]string{"X-Session-ID": "abc"})
	if out["session_id"] != "abc" || chat.threads[1] != "abc" {
		t.Errorf("header session id not used: %v", out)
	}
}

func TestAsk_PlanModeError(t *testing.T) {
	s := New(serverConfig(), &fakeChat{}, &fakePlanner{err: errors.New("synthesis: model unavailable")}, nil)
	rec, out := do(t, s.Echo(), http.MethodPost, "/ask", `{"question": "what is 2+2?", "mode": "plan"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if out["error"] != "synthesis: model unavailable" {
		t.Errorf("unexpected error body %v", out)
	}
}

func TestAsk_DefaultsToPlanWithoutChat(t *testing.T) {
	s := New(serverConfig(), nil, &fakePlanner{answer: "4"}, nil)
	rec, out := do(t, s.Echo(), http.MethodPost, "/ask", `{"question": "what is 2+2?"}`, nil)
	if rec.Code != http.StatusOK || out["answer"] != "4" {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}

	rec, _ = do(t, s.Echo(), http.MethodPost, "/ask", `{"question": "x", "mode": "dance"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func newLedgerServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := New(serverConfig(), nil, nil, ledger.New(db))
	s.now = func() time.Time { return time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestExpensesData(t *testing.T) {
	s, mock := newLedgerServer(t)
	mock.ExpectQuery(`FROM transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"month", "sum"}).AddRow("2024-12", 410.0))

	rec, out := do(t, s.Echo(), http.MethodGet, "/expenses-data", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	labels := out["labels"].([]any)
	values := out["values"].([]any)
	if len(labels) != 12 || labels[0] != "Jan 2024" || labels[11] != "Dec 2024" {
		t.Errorf("unexpected labels %v", labels)
	}
	if values[11].(float64) != 410 || values[0].(float64) != 0 {
		t.Errorf("unexpected values %v", values)
	}
}

func TestExpensesCategoryData_EmptyMonth(t *testing.T) {
	s, mock := newLedgerServer(t)
	mock.ExpectQuery(`FROM transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total"}))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses-category-data?label=Feb+2019", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"labels":[],"values":[]}` {
		t.Errorf("expected empty chart, got %s", got)
	}
}

func TestExpensesCategoryData_DBErrorFallsBack(t *testing.T) {
	s, mock := newLedgerServer(t)
	mock.ExpectQuery(`FROM transactions`).WillReturnError(errors.New("connection refused"))

	rec, out := do(t, s.Echo(), http.MethodGet, "/expenses-category-data?label=Mar+2024", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	labels := out["labels"].([]any)
	values := out["values"].([]any)
	if len(labels) == 0 || len(labels) != len(values) {
		t.Errorf("expected placeholder data, got %v", out)
	}
}

func TestExpensesCategoryData_BadLabel(t *testing.T) {
	s, _ := newLedgerServer(t)
	rec, _ := do(t, s.Echo(), http.MethodGet, "/expenses-category-data?label=2024-03", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	rec, _ = do(t, s.Echo(), http.MethodGet, "/expenses-category-data", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without label, got %d", rec.Code)
	}
}

func TestHealthAndHome(t *testing.T) {
	s := New(serverConfig(), nil, nil, nil)
	e := s.Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("unexpected healthz %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "<form id=\"askForm\">") {
		t.Error("home page should contain the ask form")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics endpoint should expose prometheus metrics")
	}
}
