// Package index expands search roots into a flat, deduplicated candidate set:
// every root plus its immediate subdirectories. Discovery runs through an
// external tool (fd when available, find otherwise) behind a pluggable
// backend so tests can substitute a double.
package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Iron-Ham/sessionizer/internal/config"
	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// VCSDir is the version-control directory always excluded from candidates.
const VCSDir = ".git"

// Backend enumerates the immediate child directories of a root.
// Implementations must honor the context deadline.
type Backend interface {
	// ListChildren returns the absolute paths of the root's immediate
	// subdirectories, hidden entries included, VCS control dir excluded.
	ListChildren(ctx context.Context, root string) ([]string, error)
}

// Index is the result of a build: the sorted, deduplicated candidate set and
// any warnings accumulated along the way.
type Index struct {
	Candidates []string
	Warnings   []string
}

// Indexer builds candidate indexes over resolved search directories.
type Indexer struct {
	backend Backend
	timeout time.Duration
	logger  *logging.Logger
}

// NewIndexer creates an Indexer. A non-positive timeout falls back to the
// default scan timeout.
func NewIndexer(backend Backend, timeout time.Duration, logger *logging.Logger) *Indexer {
	if timeout <= 0 {
		timeout = config.DefaultScanTimeoutSeconds * time.Second
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Indexer{backend: backend, timeout: timeout, logger: logger}
}

// Build expands the resolved search directories into the candidate set.
//
// Each root is included itself; its children come from one bounded discovery
// call. A root that vanished since resolution is a warning, as is a discovery
// call that fails or times out; neither aborts the build. Only a completely
// empty result is fatal.
func (ix *Indexer) Build(ctx context.Context, rc *config.ResolvedConfig) (*Index, error) {
	out := &Index{}
	seen := make(map[string]bool)

	add := func(path string) {
		path = config.NormalizePath(path)
		if !seen[path] {
			seen[path] = true
			out.Candidates = append(out.Candidates, path)
		}
	}

	for _, dir := range rc.Dirs {
		root := dir.Path
		if !config.IsAccessibleDir(root) {
			out.Warnings = append(out.Warnings, fmt.Sprintf("search directory %s is no longer accessible, skipping", root))
			continue
		}
		add(root)

		children, err := ix.listChildren(ctx, root)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				out.Warnings = append(out.Warnings, fmt.Sprintf("discovery timed out after %s for %s", ix.timeout, root))
			} else {
				out.Warnings = append(out.Warnings, fmt.Sprintf("discovery failed for %s: %v", root, err))
			}
			continue
		}

		for _, child := range children {
			add(child)
		}
	}

	if len(out.Candidates) == 0 {
		return nil, errors.NewConfigError("no directories found", errors.ErrEmptyIndex).
			WithSource(rc.Source.String()).
			WithAttempted(rc.Paths())
	}

	sort.Strings(out.Candidates)

	ix.logger.WithStage("indexing").Debug("index built",
		"roots", len(rc.Dirs),
		"candidates", len(out.Candidates))
	return out, nil
}

// listChildren wraps a single discovery call with the bounded timeout.
func (ix *Indexer) listChildren(ctx context.Context, root string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()
	return ix.backend.ListChildren(ctx, root)
}
