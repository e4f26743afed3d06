// Package picker runs fzf as the interactive directory selector.
//
// The picker is a thin adapter: candidates go in on stdin, one selection
// comes back on stdout, and the fzf exit code distinguishes cancellation
// from failure. fzf exits 130 on ctrl-c/esc, which is a cancel; exit 1
// means the query matched nothing, which is an empty selection rather than
// a cancel, so the run finishes without touching the backend.
package picker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	sserrors "github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// Options control fzf presentation. Values are passed through opaquely.
type Options struct {
	Height  string // --height, e.g. "40%"
	Preview string // --preview command, empty disables the preview pane
}

// Picker selects one candidate interactively via fzf.
type Picker struct {
	bin    string
	opts   Options
	logger *logging.Logger

	interactive func() bool // swapped in tests
}

// New locates the fzf binary and returns a Picker. Returns a
// DependencyError when fzf is not installed.
func New(opts Options, logger *logging.Logger) (*Picker, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	bin, err := exec.LookPath("fzf")
	if err != nil {
		return nil, sserrors.NewDependencyError("fzf",
			"install fzf (e.g. `brew install fzf` or `apt install fzf`)")
	}
	return &Picker{bin: bin, opts: opts, logger: logger, interactive: Interactive}, nil
}

// Interactive reports whether stdin and stderr are terminals. fzf draws on
// stderr, so both must be TTYs for a picker run to make sense.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Pick presents the candidates and returns the chosen one. cancelled=true
// means the user dismissed the picker with ctrl-c or esc. A query that
// matched nothing returns an empty selection with cancelled=false; neither
// case is an error.
func (p *Picker) Pick(ctx context.Context, candidates []string) (selection string, cancelled bool, err error) {
	if !p.interactive() {
		return "", false, sserrors.NewConfigError(
			"interactive selection requires a terminal; pass a single directory to skip the picker", nil)
	}

	args := []string{"--height", p.opts.Height, "--reverse"}
	if p.opts.Preview != "" {
		args = append(args, "--preview", p.opts.Preview)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, args...)
	cmd.Stdin = strings.NewReader(strings.Join(candidates, "\n") + "\n")
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case 130:
				p.logger.Debug("picker cancelled")
				return "", true, nil
			case 1:
				p.logger.Debug("picker matched nothing")
				return "", false, nil
			}
		}
		return "", false, sserrors.Wrap(err, "fzf failed")
	}

	return strings.TrimSpace(out.String()), false, nil
}
