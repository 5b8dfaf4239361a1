package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PromptManager loads prompt overrides from a directory of markdown files.
// Chat prompts are assembled from every *.md except planner.md; the planner
// prompt comes from planner.md alone.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

func (pm *PromptManager) GetChatPrompt() (string, error) {
	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	order := map[string]int{
		"identity.md": 1,
		"tools.md":    2,
		"ledger.md":   3,
		"user.md":     4,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	var contents []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") || f.Name() == "planner.md" {
			continue
		}
		path := filepath.Join(pm.Directory, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, strings.TrimSpace(string(data)))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", pm.Directory)
	}
	return strings.Join(contents, "\n\n---\n\n"), nil
}

func (pm *PromptManager) GetPlannerPrompt() (string, error) {
	path := filepath.Join(pm.Directory, "planner.md")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read planner prompt: %v", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ChatPrompt returns the directory's chat prompt, or DefaultChatPrompt when
// there is none.
func (pm *PromptManager) ChatPrompt() string {
	if pm == nil || pm.Directory == "" {
		return DefaultChatPrompt
	}
	p, err := pm.GetChatPrompt()
	if err != nil {
		return DefaultChatPrompt
	}
	return p
}

// PlannerPrompt returns planner.md, or DefaultPlannerPrompt when absent.
func (pm *PromptManager) PlannerPrompt() string {
	if pm == nil || pm.Directory == "" {
		return DefaultPlannerPrompt
	}
	p, err := pm.GetPlannerPrompt()
	if err != nil || p == "" {
		return DefaultPlannerPrompt
	}
	return p
}
