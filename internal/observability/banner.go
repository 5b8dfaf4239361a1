package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// termMu serialises terminal writes so log lines never split an interactive prompt.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
func NewTermWriter() io.Writer {
	return termWriter{}
}

func PrintBanner(subtitle string) {
	banner := `
    _______       __  ___      __
   / ____(_)___  /  |/  /___ _/ /____
  / /_  / / __ \/ /|_/ / __ '/ __/ _ \
 / __/ / / / / / /  / / /_/ / /_/  __/
/_/   /_/_/ /_/_/  /_/\__,_/\__/\___/
`
	width := termWidth()
	lines := strings.Split(banner, "\n")
	lines = append(lines, ">> "+strings.ToUpper(subtitle)+" <<", "")

	termMu.Lock()
	defer termMu.Unlock()
	for _, l := range lines {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

// PrintPrompt writes an interactive prompt label without a trailing newline.
func PrintPrompt(label string) {
	termMu.Lock()
	defer termMu.Unlock()
	fmt.Print(colorNeonMag + label + colorReset)
}
