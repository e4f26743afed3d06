// Package orchestrator sequences the sessionizer pipeline: resolve search
// directories, index candidates, pick one, name a session for it, create it
// if needed, and attach.
//
// Each stage runs synchronously and hands an explicit value to the next;
// there is no shared mutable state between stages. Cancellation only exists
// at the selection stage: before it nothing has touched the backend, after
// it the pipeline runs to completion or fails.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/sessionizer/internal/config"
	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/index"
	"github.com/Iron-Ham/sessionizer/internal/logging"
	"github.com/Iron-Ham/sessionizer/internal/namer"
	"github.com/Iron-Ham/sessionizer/internal/template"
	"github.com/Iron-Ham/sessionizer/internal/ui"
)

// hydrateFile is the per-project (and home-level fallback) layout file
// sourced after session creation.
const hydrateFile = ".sessionizer"

// State tracks pipeline progress. Cancelled is reachable only from
// Selecting; Failed is reachable from any state.
type State int

const (
	StateIdle State = iota
	StateConfiguring
	StateIndexing
	StateSelecting
	StateNaming
	StateCreating
	StateAttaching
	StateDone
	StateCancelled
	StateFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateIndexing:
		return "indexing"
	case StateSelecting:
		return "selecting"
	case StateNaming:
		return "naming"
	case StateCreating:
		return "creating"
	case StateAttaching:
		return "attaching"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionBackend is the multiplexer port. The tmux client satisfies it; the
// namer reuses its query half.
type SessionBackend interface {
	namer.Backend
	CreateSession(ctx context.Context, name, dir string) error
	SourceFile(ctx context.Context, path string) error
	SwitchOrAttach(ctx context.Context, name string) error
}

// Picker is the interactive selection port.
type Picker interface {
	Pick(ctx context.Context, candidates []string) (selection string, cancelled bool, err error)
}

// Indexer is the candidate discovery port.
type Indexer interface {
	Build(ctx context.Context, rc *config.ResolvedConfig) (*index.Index, error)
}

// Options bundle the orchestrator's collaborators and inputs.
type Options struct {
	CLIArgs      []string // positional directory arguments, highest tier
	ListFile     string   // line-oriented directory list path
	Defaults     []string // lowest tier
	TemplatesDir string

	Indexer Indexer
	Picker  Picker
	Backend SessionBackend
	Logger  *logging.Logger
}

// Orchestrator runs the pipeline once.
type Orchestrator struct {
	opts   Options
	logger *logging.Logger
	state  State

	homeDir func() (string, error)
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Orchestrator{
		opts:    opts,
		logger:  logger,
		state:   StateIdle,
		homeDir: os.UserHomeDir,
	}
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(s State) {
	o.logger.Debug("state transition", "from", o.state.String(), "to", s.String())
	o.state = s
}

func (o *Orchestrator) fail(err error) error {
	o.transition(StateFailed)
	return err
}

// Run executes the pipeline end to end. A nil return covers both a
// completed attach and a no-op finish (nothing selected); cancellation
// surfaces as ErrInterrupted for the CLI to map to exit 130.
func (o *Orchestrator) Run(ctx context.Context) error {
	// Configuring
	o.transition(StateConfiguring)
	resolver := config.NewResolver(o.logger.WithStage("configuring"))
	rc, err := resolver.Resolve(o.opts.CLIArgs, o.opts.ListFile, o.opts.Defaults)
	if err != nil {
		return o.fail(err)
	}
	for _, w := range rc.Warnings {
		ui.Warn("%s", w)
	}

	// Indexing
	o.transition(StateIndexing)
	idx, err := o.opts.Indexer.Build(ctx, rc)
	if err != nil {
		return o.fail(err)
	}
	for _, w := range idx.Warnings {
		ui.Warn("%s", w)
	}

	// Selecting
	o.transition(StateSelecting)
	selected, cancelled, err := o.selectCandidate(ctx, idx.Candidates)
	if err != nil {
		return o.fail(err)
	}
	if cancelled {
		o.transition(StateCancelled)
		return errors.ErrInterrupted
	}
	if selected == "" {
		o.transition(StateDone)
		return nil
	}

	// The selection may have raced a delete or permission change since
	// indexing; recheck before committing to a name.
	if !config.IsAccessibleDir(selected) {
		return o.fail(errors.NewConfigError("selection vanished between indexing and naming",
			errors.ErrSelectionVanished).
			WithAttempted([]string{selected}))
	}

	// Naming
	o.transition(StateNaming)
	resolution, err := namer.New(o.opts.Backend, o.logger.WithStage("naming")).Resolve(selected)
	if err != nil {
		return o.fail(err)
	}

	// Creating
	o.transition(StateCreating)
	if resolution.Existing {
		o.logger.Info("session already rooted at selection, reattaching",
			"session", resolution.Name, "dir", selected)
		ui.Info("reattaching to existing session %s", resolution.Name)
	} else {
		// Not atomic against a concurrent run selecting the same
		// directory; both may observe "no session" and race the
		// create. tmux's name-conflict error decides the loser.
		if err := o.opts.Backend.CreateSession(ctx, resolution.Name, selected); err != nil {
			return o.fail(err)
		}
		o.applyTemplate(ctx, selected)
		o.hydrate(ctx, selected)
	}

	// Attaching
	o.transition(StateAttaching)
	if err := o.opts.Backend.SwitchOrAttach(ctx, resolution.Name); err != nil {
		return o.fail(err)
	}

	o.transition(StateDone)
	ui.Success("attached to %s", resolution.Name)
	return nil
}

// selectCandidate picks one directory. A sole candidate short-circuits the
// picker; a picker process failure degrades to an empty selection.
func (o *Orchestrator) selectCandidate(ctx context.Context, candidates []string) (string, bool, error) {
	switch len(candidates) {
	case 0:
		return "", false, nil
	case 1:
		o.logger.Debug("sole candidate auto-selected", "dir", candidates[0])
		return candidates[0], false, nil
	}

	selection, cancelled, err := o.opts.Picker.Pick(ctx, candidates)
	if err != nil {
		// A ConfigError means the picker was never viable (no terminal);
		// that is fatal. A failure of the picker process itself degrades
		// to an empty selection.
		var cfgErr *errors.ConfigError
		if errors.As(err, &cfgErr) {
			return "", false, err
		}
		ui.Warn("picker failed: %v", err)
		return "", false, nil
	}
	return selection, cancelled, nil
}

// applyTemplate sources the project-kind template, warning on failure.
func (o *Orchestrator) applyTemplate(ctx context.Context, dir string) {
	selector := template.NewSelector(o.opts.TemplatesDir, o.logger.WithStage("creating"))
	kind, err := selector.Apply(ctx, o.opts.Backend, dir)
	if err != nil {
		ui.Warn("template %s failed to apply: %v", kind, err)
	}
}

// hydrate sources a project-local layout file, falling back to a home-level
// one. Both are optional and failure is a warning.
func (o *Orchestrator) hydrate(ctx context.Context, dir string) {
	path, ok := o.hydratePath(dir)
	if !ok {
		return
	}
	if err := o.opts.Backend.SourceFile(ctx, path); err != nil {
		ui.Warn("hydrate %s failed: %v", path, err)
	}
}

func (o *Orchestrator) hydratePath(dir string) (string, bool) {
	local := filepath.Join(dir, hydrateFile)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, true
	}
	home, err := o.homeDir()
	if err != nil {
		return "", false
	}
	global := filepath.Join(home, hydrateFile)
	if info, err := os.Stat(global); err == nil && !info.IsDir() {
		return global, true
	}
	return "", false
}
