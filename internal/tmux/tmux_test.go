package tmux

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	sserrors "github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// fakeTmux writes an executable shell script standing in for the tmux binary
// and returns a Client bound to it.
func fakeTmux(t *testing.T, script string) *Client {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a unix shell")
	}
	path := filepath.Join(t.TempDir(), "tmux")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return &Client{bin: path, logger: logging.NopLogger()}
}

func TestInsideTmux(t *testing.T) {
	t.Setenv("TMUX", "")
	if InsideTmux() {
		t.Error("InsideTmux() = true with TMUX unset")
	}

	t.Setenv("TMUX", "/tmp/tmux-1000/default,123,0")
	if !InsideTmux() {
		t.Error("InsideTmux() = false with TMUX set")
	}
}

func TestFindBinaryMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := findBinary()
	if err == nil {
		t.Skip("a tmux binary exists at a well-known absolute path")
	}
	var depErr *sserrors.DependencyError
	if !sserrors.As(err, &depErr) {
		t.Fatalf("findBinary() error = %T, want *DependencyError", err)
	}
	if depErr.Tool != "tmux" {
		t.Errorf("Tool = %q, want %q", depErr.Tool, "tmux")
	}
	if got := sserrors.ExitCode(err); got != sserrors.ExitDependency {
		t.Errorf("ExitCode() = %d, want %d", got, sserrors.ExitDependency)
	}
}

func TestFindBinaryOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a unix shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tmux")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	got, err := findBinary()
	if err != nil {
		t.Fatalf("findBinary() error = %v", err)
	}
	if got != path {
		t.Errorf("findBinary() = %q, want %q", got, path)
	}
}

func TestHasSession(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		c := fakeTmux(t, "exit 0")
		exists, err := c.HasSession("app")
		if err != nil {
			t.Fatalf("HasSession() error = %v", err)
		}
		if !exists {
			t.Error("HasSession() = false, want true")
		}
	})

	t.Run("missing session is not an error", func(t *testing.T) {
		c := fakeTmux(t, "exit 1")
		exists, err := c.HasSession("app")
		if err != nil {
			t.Fatalf("HasSession() error = %v", err)
		}
		if exists {
			t.Error("HasSession() = true, want false")
		}
	})

	t.Run("server failure is a backend error", func(t *testing.T) {
		c := fakeTmux(t, "exit 2")
		_, err := c.HasSession("app")
		var backendErr *sserrors.BackendError
		if !sserrors.As(err, &backendErr) {
			t.Fatalf("HasSession() error = %T, want *BackendError", err)
		}
		if backendErr.Operation != "has-session" {
			t.Errorf("Operation = %q, want %q", backendErr.Operation, "has-session")
		}
	})
}

func TestSessionPath(t *testing.T) {
	c := fakeTmux(t, `echo "/home/u/projects/app"`)
	path, err := c.SessionPath("app")
	if err != nil {
		t.Fatalf("SessionPath() error = %v", err)
	}
	if path != "/home/u/projects/app" {
		t.Errorf("SessionPath() = %q, want %q", path, "/home/u/projects/app")
	}
}

func TestCreateSessionFailureCapturesOutput(t *testing.T) {
	c := fakeTmux(t, `echo "duplicate session: app" >&2; exit 1`)
	err := c.CreateSession(context.Background(), "app", "/tmp")
	var backendErr *sserrors.BackendError
	if !sserrors.As(err, &backendErr) {
		t.Fatalf("CreateSession() error = %T, want *BackendError", err)
	}
	if backendErr.Output != "duplicate session: app" {
		t.Errorf("Output = %q, want captured stderr", backendErr.Output)
	}
	if got := sserrors.ExitCode(err); got != sserrors.ExitBackend {
		t.Errorf("ExitCode() = %d, want %d", got, sserrors.ExitBackend)
	}
}

func TestSourceFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := fakeTmux(t, "exit 0")
		if err := c.SourceFile(context.Background(), "/tmp/go.conf"); err != nil {
			t.Fatalf("SourceFile() error = %v", err)
		}
	})

	t.Run("failure", func(t *testing.T) {
		c := fakeTmux(t, "exit 1")
		if err := c.SourceFile(context.Background(), "/tmp/go.conf"); err == nil {
			t.Fatal("SourceFile() error = nil, want backend error")
		}
	})
}

func TestEnsureAvailable(t *testing.T) {
	t.Run("runnable binary", func(t *testing.T) {
		c := fakeTmux(t, `echo "tmux 3.4"`)
		if err := c.EnsureAvailable(context.Background()); err != nil {
			t.Fatalf("EnsureAvailable() error = %v", err)
		}
	})

	t.Run("broken binary", func(t *testing.T) {
		c := fakeTmux(t, "exit 127")
		err := c.EnsureAvailable(context.Background())
		var depErr *sserrors.DependencyError
		if !sserrors.As(err, &depErr) {
			t.Fatalf("EnsureAvailable() error = %T, want *DependencyError", err)
		}
	})

	t.Run("below minimum version", func(t *testing.T) {
		c := fakeTmux(t, `echo "tmux 1.8"`)
		err := c.EnsureAvailable(context.Background())
		var depErr *sserrors.DependencyError
		if !sserrors.As(err, &depErr) {
			t.Fatalf("EnsureAvailable() error = %T, want *DependencyError", err)
		}
	})

	t.Run("unparseable version tolerated", func(t *testing.T) {
		c := fakeTmux(t, `echo "tmux next-3.5"`)
		if err := c.EnsureAvailable(context.Background()); err != nil {
			t.Fatalf("EnsureAvailable() error = %v", err)
		}
	})
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		major  int
		minor  int
		ok     bool
	}{
		{"tmux 3.4", 3, 4, true},
		{"tmux 3.3a", 3, 3, true},
		{"tmux 1.9", 1, 9, true},
		{"tmux next-3.5", 0, 0, false},
		{"garbage", 0, 0, false},
	}
	for _, tt := range tests {
		major, minor, ok := parseVersion(tt.output)
		if major != tt.major || minor != tt.minor || ok != tt.ok {
			t.Errorf("parseVersion(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.output, major, minor, ok, tt.major, tt.minor, tt.ok)
		}
	}
}
