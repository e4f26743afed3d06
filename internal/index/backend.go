package index

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/sessionizer/internal/errors"
)

// Tool identifies the external discovery tool. The two tools must return the
// same set of paths for equivalent queries; only speed differs.
type Tool int

const (
	// ToolFd is the fast structured-search tool (fd, packaged as fdfind on
	// Debian-family systems).
	ToolFd Tool = iota
	// ToolFind is the universal fallback.
	ToolFind
)

// String returns the string representation of the tool.
func (t Tool) String() string {
	switch t {
	case ToolFd:
		return "fd"
	case ToolFind:
		return "find"
	default:
		return "unknown"
	}
}

// command returns the argv for listing the immediate child directories of
// root: depth exactly 1, hidden entries included, VCS dir excluded.
func (t Tool) command(bin, root string) (string, []string) {
	switch t {
	case ToolFd:
		return bin, []string{
			"--type", "d",
			"--min-depth", "1",
			"--max-depth", "1",
			"--hidden",
			"--exclude", VCSDir,
			"--absolute-path",
			".", root,
		}
	default:
		return bin, []string{
			root,
			"-mindepth", "1",
			"-maxdepth", "1",
			"-type", "d",
			"!", "-name", VCSDir,
		}
	}
}

// ExecBackend runs the discovery tool as an external process.
type ExecBackend struct {
	tool Tool
	bin  string
}

// NewExecBackend searches PATH for a discovery tool, preferring fd over find.
// Returns a DependencyError when neither exists.
func NewExecBackend() (*ExecBackend, error) {
	for _, bin := range []string{"fd", "fdfind"} {
		if path, err := exec.LookPath(bin); err == nil {
			return &ExecBackend{tool: ToolFd, bin: path}, nil
		}
	}
	if path, err := exec.LookPath("find"); err == nil {
		return &ExecBackend{tool: ToolFind, bin: path}, nil
	}
	return nil, errors.NewDependencyError("find", "install findutils (or fd: brew install fd / apt install fd-find)")
}

// Tool returns which discovery tool the backend drives.
func (b *ExecBackend) Tool() Tool {
	return b.tool
}

// ListChildren implements Backend by invoking the discovery tool.
func (b *ExecBackend) ListChildren(ctx context.Context, root string) ([]string, error) {
	bin, args := b.tool.command(b.bin, root)
	output, err := exec.CommandContext(ctx, bin, args...).Output()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return parseChildren(root, string(output)), nil
}

// parseChildren turns tool output into normalized absolute child paths.
// Both tools emit one path per line; normalization and the VCS filter are
// enforced here as well so backend behavior stays identical.
func parseChildren(root, output string) []string {
	var children []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := filepath.Clean(line)
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if filepath.Base(path) == VCSDir {
			continue
		}
		children = append(children, path)
	}
	return children
}
