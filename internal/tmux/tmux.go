// Package tmux adapts the tmux binary as the session backend.
//
// Sessions are created detached and attached (or switched to, when already
// inside tmux) in a separate step, so a failed template apply never leaves
// the user without a session. All queries address sessions with the "="
// prefix to force exact-match targeting.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	sserrors "github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// queryTimeout bounds individual tmux queries so a hung server cannot stall
// the whole run.
const queryTimeout = 5 * time.Second

// Minimum supported tmux version. display-message '#{session_path}' and
// new-session -c both require 1.9.
const (
	minVersionMajor = 1
	minVersionMinor = 9
)

// binaryCandidates lists where the tmux binary is looked for, in order. PATH is
// tried first; the rest cover Homebrew and MacPorts installs that are often
// absent from non-login shells.
var binaryCandidates = []string{
	"tmux",
	"/opt/homebrew/bin/tmux",
	"/usr/local/bin/tmux",
	"/opt/local/bin/tmux",
}

// Client drives a tmux server through its CLI.
type Client struct {
	bin    string
	logger *logging.Logger
}

// NewClient locates the tmux binary and returns a Client bound to it.
// Returns a DependencyError when tmux cannot be found anywhere.
func NewClient(logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	bin, err := findBinary()
	if err != nil {
		return nil, err
	}
	logger.Debug("tmux binary located", "path", bin)
	return &Client{bin: bin, logger: logger}, nil
}

func findBinary() (string, error) {
	for _, candidate := range binaryCandidates {
		if strings.Contains(candidate, "/") {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", sserrors.NewDependencyError("tmux",
		"install tmux (e.g. `brew install tmux` or `apt install tmux`)")
}

// EnsureAvailable verifies the located binary runs and meets the minimum
// supported version. A binary that exists but cannot execute, or is too old,
// is a dependency problem, not a backend one.
func (c *Client) EnsureAvailable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, c.bin, "-V").Output()
	if err != nil {
		return sserrors.NewDependencyError("tmux",
			"install tmux (e.g. `brew install tmux` or `apt install tmux`)").
			WithCause(err)
	}

	version := strings.TrimSpace(string(out))
	if major, minor, ok := parseVersion(version); ok {
		if major < minVersionMajor || (major == minVersionMajor && minor < minVersionMinor) {
			return sserrors.NewDependencyError("tmux",
				"upgrade tmux (e.g. `brew upgrade tmux` or `apt install tmux`)").
				WithMessage(fmt.Sprintf("%s is below the minimum supported version %d.%d",
					version, minVersionMajor, minVersionMinor))
		}
	}
	c.logger.Debug("tmux available", "version", version)
	return nil
}

// parseVersion extracts major.minor from "tmux -V" output such as
// "tmux 3.4" or "tmux 3.3a". Unparseable output (master builds, "tmux next")
// is tolerated rather than rejected.
func parseVersion(output string) (major, minor int, ok bool) {
	fields := strings.Fields(output)
	if len(fields) < 2 {
		return 0, 0, false
	}
	parts := strings.SplitN(fields[1], ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	// Strip a trailing patch letter ("3a" -> "3").
	minorStr := strings.TrimRightFunc(parts[1], func(r rune) bool {
		return r < '0' || r > '9'
	})
	minor, err = strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// InsideTmux reports whether the current process runs inside a tmux client.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// HasSession reports whether an exactly-named session exists.
func (c *Client) HasSession(name string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, "has-session", "-t", "="+name)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	// tmux exits 1 when the session does not exist; anything else is a
	// server failure.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, sserrors.NewBackendError("session lookup failed", err).
		WithSession(name).
		WithOperation("has-session")
}

// SessionPath returns the filesystem path a session was started in.
func (c *Client) SessionPath(name string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin,
		"display-message", "-p", "-t", "="+name, "#{session_path}")
	out, err := cmd.Output()
	if err != nil {
		return "", sserrors.NewBackendError("session path query failed", err).
			WithSession(name).
			WithOperation("display-message")
	}
	return strings.TrimSpace(string(out)), nil
}

// CreateSession creates a detached session rooted at dir.
func (c *Client) CreateSession(ctx context.Context, name, dir string) error {
	cmd := exec.CommandContext(ctx, c.bin,
		"new-session", "-d", "-s", name, "-c", dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return sserrors.NewBackendError("session creation failed", err).
			WithSession(name).
			WithOperation("new-session").
			WithOutput(string(out))
	}
	c.logger.Info("session created", "session", name, "dir", dir)
	return nil
}

// SourceFile loads a tmux configuration file into the running server.
func (c *Client) SourceFile(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, c.bin, "source-file", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return sserrors.NewBackendError("template sourcing failed", err).
			WithOperation("source-file").
			WithOutput(string(out))
	}
	return nil
}

// SwitchOrAttach brings the session to the foreground. Inside tmux this is a
// switch-client on the running server; outside, attach-session takes over the
// terminal until the user detaches.
func (c *Client) SwitchOrAttach(ctx context.Context, name string) error {
	if InsideTmux() {
		cmd := exec.CommandContext(ctx, c.bin, "switch-client", "-t", "="+name)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return sserrors.NewBackendError("client switch failed", err).
				WithSession(name).
				WithOperation("switch-client").
				WithOutput(string(out))
		}
		return nil
	}

	cmd := exec.CommandContext(ctx, c.bin, "attach-session", "-t", "="+name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return sserrors.NewBackendError("session attach failed", err).
			WithSession(name).
			WithOperation("attach-session")
	}
	return nil
}
