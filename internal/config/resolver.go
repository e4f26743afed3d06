// Package config resolves the ordered list of search-root directories from
// four layered sources and carries the viper-backed settings file.
//
// Precedence is strictly override, never merge: CLI positional directories
// replace everything; otherwise SESSIONIZER_SEARCH_DIRS replaces the list
// file and defaults; otherwise the list file replaces defaults; otherwise the
// built-in defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// Source identifies the configuration tier a search directory came from.
// Only one tier is ever active per run.
type Source int

const (
	SourceDefault Source = iota
	SourceConfig
	SourceEnv
	SourceCLI
)

// String returns the string representation of the source tier.
func (s Source) String() string {
	switch s {
	case SourceCLI:
		return "cli"
	case SourceEnv:
		return "env"
	case SourceConfig:
		return "config"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// SearchDirsEnv is the environment variable holding a colon-separated list
// of search roots. When set and non-empty it overrides the list file and the
// built-in defaults.
const SearchDirsEnv = "SESSIONIZER_SEARCH_DIRS"

// maxExpandPasses caps variable substitution so pathological input like
// A=$B, B=$A cannot loop forever.
const maxExpandPasses = 10

// SearchDirectory is an absolute search root plus its provenance.
type SearchDirectory struct {
	Path   string
	Source Source
}

// Attempt records an entry that was processed during resolution, whether it
// survived or not. The full list feeds ConfigError diagnostics and the
// validate report.
type Attempt struct {
	Raw      string // the entry as written
	Expanded string // after tilde and variable expansion (empty if rejected)
	Accepted bool
	Reason   string // why the entry was skipped (empty if accepted)
}

// ResolvedConfig is the output of resolution, threaded explicitly through the
// pipeline instead of living in shared state.
type ResolvedConfig struct {
	Dirs      []SearchDirectory
	Source    Source
	Attempted []Attempt
	Warnings  []string
}

// AttemptedPaths returns the raw form of every rejected entry, for error
// diagnostics.
func (rc *ResolvedConfig) AttemptedPaths() []string {
	var paths []string
	for _, a := range rc.Attempted {
		if !a.Accepted {
			paths = append(paths, a.Raw)
		}
	}
	return paths
}

// Paths returns just the resolved directory paths, in order.
func (rc *ResolvedConfig) Paths() []string {
	paths := make([]string, 0, len(rc.Dirs))
	for _, d := range rc.Dirs {
		paths = append(paths, d.Path)
	}
	return paths
}

// cmdSubstPattern matches command-substitution shapes. Entries matching it
// are rejected outright and never executed.
var cmdSubstPattern = regexp.MustCompile("\\$\\(|`")

// varRefPattern matches the allow-listed variable reference grammar:
// $NAME or ${NAME}.
var varRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Resolver resolves search directories from layered sources.
type Resolver struct {
	logger *logging.Logger
}

// NewResolver creates a Resolver. A nil logger is replaced with a no-op one.
func NewResolver(logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Resolver{logger: logger}
}

// Resolve produces the ordered, validated search-directory list.
//
// cliArgs are positional directory arguments; listFile is the line-oriented
// config file path; defaults are the built-in roots. The environment override
// is read from SESSIONIZER_SEARCH_DIRS. Fails with a ConfigError carrying the
// attempted list when no entry survives validation.
func (r *Resolver) Resolve(cliArgs []string, listFile string, defaults []string) (*ResolvedConfig, error) {
	entries, source := r.selectTier(cliArgs, listFile, defaults)

	rc := &ResolvedConfig{Source: source}
	seen := make(map[string]bool)

	for _, raw := range entries {
		attempt := r.processEntry(raw, rc)
		if attempt == nil {
			continue // blank line
		}
		rc.Attempted = append(rc.Attempted, *attempt)
		if !attempt.Accepted {
			continue
		}
		if seen[attempt.Expanded] {
			r.logger.Debug("duplicate search directory skipped", "path", attempt.Expanded)
			continue
		}
		seen[attempt.Expanded] = true
		rc.Dirs = append(rc.Dirs, SearchDirectory{Path: attempt.Expanded, Source: source})
	}

	if len(rc.Dirs) == 0 {
		return nil, errors.NewConfigError("no valid directories", errors.ErrNoDirectories).
			WithSource(source.String()).
			WithAttempted(rc.AttemptedPaths())
	}

	r.logger.WithSource(source.String()).Debug("resolved search directories",
		"count", len(rc.Dirs))
	return rc, nil
}

// selectTier picks the single active configuration tier.
func (r *Resolver) selectTier(cliArgs []string, listFile string, defaults []string) ([]string, Source) {
	if len(cliArgs) > 0 {
		return cliArgs, SourceCLI
	}
	if env := os.Getenv(SearchDirsEnv); strings.TrimSpace(env) != "" {
		return strings.Split(env, ":"), SourceEnv
	}
	if listFile != "" {
		if lines, err := readListFile(listFile); err == nil {
			return lines, SourceConfig
		}
	}
	return defaults, SourceDefault
}

// readListFile reads the line-oriented directory list. Blank lines and lines
// whose first non-space character is '#' are ignored. A missing file is an
// error so the caller falls through to defaults.
func readListFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		entries = append(entries, trimmed)
	}
	return entries, nil
}

// processEntry runs one raw entry through trimming, rejection, expansion and
// accessibility checks. Returns nil for blank entries, otherwise an Attempt.
// Warnings are accumulated on rc.
func (r *Resolver) processEntry(raw string, rc *ResolvedConfig) *Attempt {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if cmdSubstPattern.MatchString(trimmed) {
		reason := "contains command substitution, entry rejected"
		rc.Warnings = append(rc.Warnings, fmt.Sprintf("%s: %s", trimmed, reason))
		return &Attempt{Raw: trimmed, Reason: reason}
	}

	expanded, warnings := ExpandEntry(trimmed)
	rc.Warnings = append(rc.Warnings, warnings...)

	expanded = NormalizePath(expanded)

	if reason, ok := checkAccess(expanded); !ok {
		rc.Warnings = append(rc.Warnings, fmt.Sprintf("%s: %s", trimmed, reason))
		return &Attempt{Raw: trimmed, Expanded: expanded, Reason: reason}
	}

	return &Attempt{Raw: trimmed, Expanded: expanded, Accepted: true}
}

// ExpandEntry tilde-expands an entry and substitutes $NAME / ${NAME} tokens
// from the environment, repeating until no token remains or no progress is
// made. Unset variables expand to the empty string; each produces a warning
// so misconfiguration stays visible.
func ExpandEntry(entry string) (string, []string) {
	var warnings []string

	expanded := expandTilde(entry)

	for pass := 0; pass < maxExpandPasses; pass++ {
		if !varRefPattern.MatchString(expanded) {
			break
		}
		next := varRefPattern.ReplaceAllStringFunc(expanded, func(ref string) string {
			name := strings.Trim(ref, "${}")
			value, ok := os.LookupEnv(name)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s: variable $%s is unset, substituting empty string", entry, name))
				return ""
			}
			return value
		})
		if next == expanded {
			break
		}
		expanded = next
	}

	return expanded, warnings
}

// expandTilde expands ~ and ~/... to the user's home directory.
func expandTilde(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// NormalizePath cleans a path: no trailing separator except for the
// filesystem root itself.
func NormalizePath(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// checkAccess verifies the path is an existing directory that is both
// readable and executable. Returns a human-readable reason on failure.
func checkAccess(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "not an existing directory", false
		}
		return fmt.Sprintf("stat failed: %v", err), false
	}
	if !info.IsDir() {
		return "not a directory", false
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return "not readable and executable", false
	}
	return "", true
}

// IsAccessibleDir reports whether a path is an existing, readable and
// executable directory. Used to revalidate a selection after the picker.
func IsAccessibleDir(path string) bool {
	_, ok := checkAccess(path)
	return ok
}

// DefaultSearchDirs returns the built-in search roots used when no other
// tier supplies any. They go through the same accessibility filtering as any
// configured entry.
func DefaultSearchDirs() []string {
	return []string{"~/projects", "~/src", "~/work"}
}
