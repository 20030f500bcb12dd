// Package prompt builds analysis prompts from on-disk templates with
// built-in fallbacks. Templates are plain text files named after the
// analysis type, loaded once and cached.
package prompt

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/oncall-tools/rca-cli/internal/analysis"
)

// Manager loads and assembles prompts. Safe for concurrent use.
type Manager struct {
	dir string

	mu    sync.RWMutex
	cache map[analysis.Type]string
}

// NewManager creates a Manager reading templates from dir. dir may be
// empty, in which case only the built-in templates are used.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		cache: make(map[analysis.Type]string),
	}
}

// Template returns the prompt template for an analysis type: the cached
// copy, then <dir>/<type>.txt, then the built-in default. A missing file
// is not an error; prompt assembly always succeeds.
func (m *Manager) Template(typ analysis.Type) string {
	m.mu.RLock()
	cached, ok := m.cache[typ]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	tmpl := m.load(typ)

	m.mu.Lock()
	m.cache[typ] = tmpl
	m.mu.Unlock()
	return tmpl
}

func (m *Manager) load(typ analysis.Type) string {
	if m.dir != "" {
		path := filepath.Join(m.dir, string(typ)+".txt")
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data)
		}
		if !os.IsNotExist(err) {
			zap.L().Warn("prompt: template unreadable, using built-in",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	if tmpl, ok := builtinTemplates[typ]; ok {
		return tmpl
	}
	zap.L().Error("prompt: no template for type, using generic default",
		zap.String("type", string(typ)),
	)
	return defaultTemplate
}

// Build assembles the full prompt: template, then the issue description,
// any additional context, and the collected source data, each under its
// own header. The structured assessment type additionally gets the dual
// JSON-plus-sections format instructions.
func (m *Manager) Build(typ analysis.Type, issue, sourceData, additionalContext string) string {
	parts := []string{m.Template(typ)}

	if strings.TrimSpace(issue) != "" {
		parts = append(parts, "\n\n## Issue Description:\n"+issue)
	}
	if additionalContext != "" {
		parts = append(parts, "\n\n## Additional Context:\n"+additionalContext)
	}
	parts = append(parts, "\n\n## Source Data for Analysis:\n"+sourceData)

	if typ == analysis.TypeAssessment {
		parts = append(parts, assessmentFormatInstructions)
	}

	return strings.Join(parts, "\n")
}

// Available lists the analysis types a prompt can be built for: every
// built-in type plus any extra .txt templates found in the directory.
func (m *Manager) Available() []string {
	seen := make(map[string]bool)
	var names []string

	for _, t := range analysis.Types() {
		names = append(names, string(t))
		seen[string(t)] = true
	}

	if m.dir != "" {
		entries, err := os.ReadDir(m.dir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
					continue
				}
				name := strings.TrimSuffix(e.Name(), ".txt")
				if !seen[name] {
					names = append(names, name)
					seen[name] = true
				}
			}
		}
	}

	sort.Strings(names)
	return names
}
