// Package template detects a project kind from marker files and resolves an
// optional tmux layout template for it. Template application is strictly
// best-effort: a project with no detectable kind, a missing templates
// directory, or a failed apply never stops the pipeline.
package template

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// Kind is the closed set of project kinds.
type Kind int

const (
	KindDefault Kind = iota
	KindPython
	KindNode
	KindRust
	KindGo
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPython:
		return "python"
	case KindNode:
		return "node"
	case KindRust:
		return "rust"
	case KindGo:
		return "go"
	case KindDefault:
		return "default"
	default:
		return "unknown"
	}
}

// markerCheck pairs a kind with its marker files. Any one marker is enough.
type markerCheck struct {
	kind    Kind
	markers []string
}

// markerChecks is the fixed detection priority order; first match wins.
var markerChecks = []markerCheck{
	{KindPython, []string{"requirements.txt", "pyproject.toml"}},
	{KindNode, []string{"package.json"}},
	{KindRust, []string{"Cargo.toml"}},
	{KindGo, []string{"go.mod"}},
}

// Detect returns the project kind for a directory based on marker files,
// evaluated in fixed priority order. Directories with no marker are
// KindDefault.
func Detect(projectDir string) Kind {
	for _, check := range markerChecks {
		for _, marker := range check.markers {
			if _, err := os.Stat(filepath.Join(projectDir, marker)); err == nil {
				return check.kind
			}
		}
	}
	return KindDefault
}

// candidateFilenames returns the fixed set of template filenames tried for a
// kind, in order.
func candidateFilenames(kind Kind) []string {
	return []string{kind.String() + ".conf", kind.String() + ".tmux"}
}

// ResolveFile returns the template file path for a kind under the templates
// directory, falling back to the default kind's file when the detected kind
// has none. Returns ok=false when nothing resolves or the templates
// directory does not exist; that is not an error.
func ResolveFile(kind Kind, templatesDir string) (string, bool) {
	if templatesDir == "" {
		return "", false
	}
	if info, err := os.Stat(templatesDir); err != nil || !info.IsDir() {
		return "", false
	}

	if path, ok := resolveKind(kind, templatesDir); ok {
		return path, true
	}
	if kind != KindDefault {
		return resolveKind(KindDefault, templatesDir)
	}
	return "", false
}

func resolveKind(kind Kind, templatesDir string) (string, bool) {
	for _, name := range candidateFilenames(kind) {
		path := filepath.Join(templatesDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Applier sources a template file into the session backend.
type Applier interface {
	SourceFile(ctx context.Context, path string) error
}

// Selector ties detection and resolution together for the orchestrator.
type Selector struct {
	templatesDir string
	logger       *logging.Logger
}

// NewSelector creates a Selector over a templates directory.
func NewSelector(templatesDir string, logger *logging.Logger) *Selector {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Selector{templatesDir: templatesDir, logger: logger}
}

// Select detects the project kind and resolves its template file.
func (s *Selector) Select(projectDir string) (Kind, string, bool) {
	kind := Detect(projectDir)
	path, ok := ResolveFile(kind, s.templatesDir)
	s.logger.Debug("template selection",
		"dir", projectDir,
		"kind", kind.String(),
		"template", path,
		"resolved", ok)
	return kind, path, ok
}

// Apply sources the resolved template into the backend. Failure is returned
// for the caller to downgrade to a warning; it is never fatal.
func (s *Selector) Apply(ctx context.Context, applier Applier, projectDir string) (Kind, error) {
	kind, path, ok := s.Select(projectDir)
	if !ok {
		return kind, nil
	}
	return kind, applier.SourceFile(ctx, path)
}
