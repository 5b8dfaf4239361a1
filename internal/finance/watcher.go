package finance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
)

// Notifier delivers a message to a chat, e.g. a gateway.
type Notifier interface {
	Send(chatID string, text string) error
}

// IngestTracker remembers which files were already loaded.
type IngestTracker interface {
	IsIngested(ctx context.Context, name, checksum string) (bool, error)
	MarkIngested(ctx context.Context, name, checksum string, rows int) error
}

// Watcher scans a directory on a cron schedule and ingests CSV files it has
// not seen before. A file is identified by name and content checksum, so an
// edited export is loaded again.
type Watcher struct {
	Dir        string
	Schedule   *cronexpr.Expression
	Ingester   *Ingester
	Tracker    IngestTracker
	Notifier   Notifier
	NotifyChat string

	now func() time.Time
}

func NewWatcher(dir, schedule string, ing *Ingester, tracker IngestTracker) (*Watcher, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest schedule %q: %w", schedule, err)
	}
	return &Watcher{
		Dir:      dir,
		Schedule: expr,
		Ingester: ing,
		Tracker:  tracker,
		now:      time.Now,
	}, nil
}

func (w *Watcher) Start(ctx context.Context) {
	log.Printf("Ingest watcher started on %s...", w.Dir)
	for {
		next := w.Schedule.Next(w.now())
		if next.IsZero() {
			log.Printf("Ingest schedule has no future runs; watcher stopping")
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := w.Scan(ctx); err != nil {
				log.Printf("Error scanning %s: %v", w.Dir, err)
			}
		}
	}
}

// Scan ingests every new CSV in Dir and returns the number of files loaded.
// A file that fails to ingest is logged and retried on the next scan.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		path := filepath.Join(w.Dir, name)
		sum, err := checksum(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			continue
		}
		seen, err := w.Tracker.IsIngested(ctx, name, sum)
		if err != nil {
			return loaded, err
		}
		if seen {
			continue
		}

		rows, err := w.Ingester.IngestFile(ctx, path)
		if err != nil {
			log.Printf("Error ingesting %s: %v", path, err)
			w.notify(fmt.Sprintf("Failed to import %s: %v", name, err))
			continue
		}
		if err := w.Tracker.MarkIngested(ctx, name, sum, rows); err != nil {
			return loaded, err
		}
		loaded++
		w.notify(fmt.Sprintf("Imported %d transactions from %s", rows, name))
	}
	return loaded, nil
}

func (w *Watcher) notify(text string) {
	if w.Notifier == nil || w.NotifyChat == "" {
		return
	}
	if err := w.Notifier.Send(w.NotifyChat, text); err != nil {
		log.Printf("Error sending ingest notification: %v", err)
	}
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
