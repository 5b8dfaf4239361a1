package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rahul/finmate/internal/ledger"
	"github.com/rahul/finmate/pkg/config"
)

// Dialoguer is the conversational agent.
type Dialoguer interface {
	Dialogue(ctx context.Context, threadID, query string) (string, error)
}

// Answerer is the planner/executor pipeline.
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string) (string, error)
}

// Dashboard supplies the spending charts.
type Dashboard interface {
	MonthlyExpenses(ctx context.Context, now time.Time, months int, excluded []string) ([]string, []float64, error)
	CategoryExpenses(ctx context.Context, label string, excluded []string, limit int) ([]string, []float64, error)
}

// Server is the HTTP front end.
type Server struct {
	Chat      Dialoguer
	Planner   Answerer
	Dashboard Dashboard

	Excluded      []string
	Months        int
	TopCategories int

	now    func() time.Time
	randMu sync.Mutex
	rand   *rand.Rand
}

func New(cfg config.ServerConfig, chat Dialoguer, planner Answerer, dash Dashboard) *Server {
	return &Server{
		Chat:          chat,
		Planner:       planner,
		Dashboard:     dash,
		Excluded:      cfg.ExcludedCategories,
		Months:        cfg.DashboardMonths,
		TopCategories: cfg.TopCategories,
		now:           time.Now,
		rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Echo builds the router with all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Session-ID"},
	}))

	e.GET("/", s.home)
	e.POST("/ask", s.ask)
	e.GET("/expenses-data", s.expensesData)
	e.GET("/expenses-category-data", s.expensesCategoryData)
	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	e := s.Echo()
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func (s *Server) home(c echo.Context) error {
	return c.HTML(http.StatusOK, homeHTML)
}

// chartData is the shape both dashboard endpoints return.
type chartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s *Server) expensesData(c echo.Context) error {
	if s.Dashboard == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ledger not configured")
	}
	labels, values, err := s.Dashboard.MonthlyExpenses(c.Request().Context(), s.now(), s.Months, s.Excluded)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, chartData{Labels: labels, Values: values})
}

var placeholderCategories = []string{"Groceries", "Rent", "Utilities", "Entertainment", "Miscellaneous"}

func (s *Server) expensesCategoryData(c echo.Context) error {
	label := c.QueryParam("label")
	if label == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "label is required")
	}
	if s.Dashboard == nil {
		return c.JSON(http.StatusOK, s.placeholder())
	}

	labels, values, err := s.Dashboard.CategoryExpenses(c.Request().Context(), label, s.Excluded, s.TopCategories)
	if errors.Is(err, ledger.ErrBadLabel) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		log.Printf("category query failed, serving placeholder data: %v", err)
		return c.JSON(http.StatusOK, s.placeholder())
	}
	if labels == nil {
		labels = []string{}
	}
	if values == nil {
		values = []float64{}
	}
	return c.JSON(http.StatusOK, chartData{Labels: labels, Values: values})
}

func (s *Server) placeholder() chartData {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	values := make([]float64, len(placeholderCategories))
	for i := range values {
		values[i] = float64(50+s.rand.Intn(450)) + float64(s.rand.Intn(100))/100
	}
	return chartData{Labels: append([]string(nil), placeholderCategories...), Values: values}
}
