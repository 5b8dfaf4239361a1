package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

const maxDocumentChars = 50000

// ErrDenied is returned for paths that leave the data directory.
var ErrDenied = errors.New("access denied")

// dataDir confines file access to one directory tree.
type dataDir struct {
	Root string
}

func newDataDir(root string) dataDir {
	absRoot, _ := filepath.Abs(root)
	return dataDir{Root: absRoot}
}

func (d dataDir) resolve(name string) (string, error) {
	target := filepath.Join(d.Root, name)
	rel, err := filepath.Rel(d.Root, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s is outside the data directory", ErrDenied, name)
	}
	return target, nil
}

// ListFilesTool lists statements and exports in the data directory.
type ListFilesTool struct {
	dir dataDir
}

func NewListFilesTool(root string) *ListFilesTool {
	return &ListFilesTool{dir: newDataDir(root)}
}

func (l *ListFilesTool) Name() string {
	return "list_data_files"
}

func (l *ListFilesTool) Description() string {
	return "List the account statements and transaction files available in the data directory."
}

func (l *ListFilesTool) Argument() Argument {
	return Argument{Name: "subdir", Description: "Optional sub-directory to list; empty for the top level."}
}

func (l *ListFilesTool) Execute(ctx context.Context, input string) Result {
	target, err := l.dir.resolve(input)
	if err != nil {
		return Fail(KindDenied, "%v", err)
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		return Fail(KindNotFound, "failed to list directory: %v", err)
	}
	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&sb, "[dir] %s\n", entry.Name())
			continue
		}
		size := int64(0)
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(&sb, "[file] %s (%d bytes)\n", entry.Name(), size)
	}
	if sb.Len() == 0 {
		return OK("Directory is empty")
	}
	return OK(sb.String())
}

// ReadDocumentTool extracts the text of a PDF or plain-text file.
type ReadDocumentTool struct {
	dir      dataDir
	MaxChars int
}

func NewReadDocumentTool(root string) *ReadDocumentTool {
	return &ReadDocumentTool{dir: newDataDir(root), MaxChars: maxDocumentChars}
}

func (r *ReadDocumentTool) Name() string {
	return "read_document"
}

func (r *ReadDocumentTool) Description() string {
	return "Extract the text of a PDF statement or a text/CSV file from the data directory."
}

func (r *ReadDocumentTool) Argument() Argument {
	return Argument{Name: "path", Description: "File path relative to the data directory, as listed by list_data_files."}
}

func (r *ReadDocumentTool) Execute(ctx context.Context, input string) Result {
	if strings.TrimSpace(input) == "" {
		return Fail(KindInvalidInput, "empty path")
	}
	target, err := r.dir.resolve(input)
	if err != nil {
		return Fail(KindDenied, "%v", err)
	}
	f, err := os.Open(target)
	if err != nil {
		return Fail(KindNotFound, "failed to open file: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fail(KindExecution, "failed to stat file: %v", err)
	}

	var docs []schema.Document
	if strings.EqualFold(filepath.Ext(target), ".pdf") {
		docs, err = documentloaders.NewPDF(f, info.Size()).Load(ctx)
	} else {
		docs, err = documentloaders.NewText(f).Load(ctx)
	}
	if err != nil {
		return Fail(KindExecution, "failed to extract text from %s: %v", input, err)
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.PageContent)
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return OK(fmt.Sprintf("%s contains no extractable text.", input))
	}
	if t, cut := truncate(text, r.MaxChars); cut {
		text = t + "\n... (content truncated) ..."
	}
	return OK(text)
}

// truncate keeps at most max runes of s. It reports whether s was cut.
func truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
