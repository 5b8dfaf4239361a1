package tools

import (
	"context"
	"time"
)

// DateTool returns today's date. The input is ignored.
type DateTool struct {
	Now func() time.Time
}

func NewDateTool() *DateTool {
	return &DateTool{Now: time.Now}
}

func (d *DateTool) Name() string {
	return "date"
}

func (d *DateTool) Description() string {
	return "Returns today's date in YYYY-MM-DD format."
}

func (d *DateTool) Argument() Argument {
	return Argument{Name: "query", Description: "What date is wanted, e.g. 'today'. Informational only."}
}

func (d *DateTool) Execute(ctx context.Context, input string) Result {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return OK(now().Format("2006-01-02"))
}
