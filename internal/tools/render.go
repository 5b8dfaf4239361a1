package tools

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer returns the HTML of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer loads pages in a throwaway headless Chrome.
type ChromeRenderer struct {
	UserAgent string
	Timeout   time.Duration
}

func NewChromeRenderer(userAgent string) *ChromeRenderer {
	if userAgent == "" {
		userAgent = browserUserAgent
	}
	return &ChromeRenderer{UserAgent: userAgent, Timeout: 60 * time.Second}
}

func (c *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
		chromedp.UserAgent(c.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, cancel := context.WithTimeout(browserCtx, c.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
