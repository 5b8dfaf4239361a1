package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rahul/finmate/internal/observability"
)

// ErrNoQuestion is returned when /ask has no question.
var ErrNoQuestion = errors.New("no question provided")

const (
	ModeChat = "chat"
	ModePlan = "plan"
)

type askRequest struct {
	Question  string `json:"question"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return s.askError(c, "", echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}

	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = ModeChat
		if s.Chat == nil {
			mode = ModePlan
		}
	}
	if strings.TrimSpace(req.Question) == "" {
		return s.askError(c, mode, echo.NewHTTPError(http.StatusBadRequest, "No question provided").SetInternal(ErrNoQuestion))
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.Request().Header.Get("X-Session-ID")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request().Context()
	var (
		answer string
		err    error
	)
	switch {
	case mode == ModeChat && s.Chat != nil:
		answer, err = s.Chat.Dialogue(ctx, sessionID, req.Question)
	case mode == ModePlan && s.Planner != nil:
		answer, err = s.Planner.Answer(ctx, sessionID, req.Question)
	default:
		return s.askError(c, mode, echo.NewHTTPError(http.StatusBadRequest, "unsupported mode: "+mode))
	}
	if err != nil {
		return s.askError(c, mode, echo.NewHTTPError(http.StatusInternalServerError, err.Error()))
	}

	observability.Asks.WithLabelValues(mode, "200").Inc()
	return c.JSON(http.StatusOK, askResponse{Answer: answer, SessionID: sessionID})
}

func (s *Server) askError(c echo.Context, mode string, he *echo.HTTPError) error {
	observability.Asks.WithLabelValues(mode, strconv.Itoa(he.Code)).Inc()
	return he
}
