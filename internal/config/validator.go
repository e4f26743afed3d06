package config

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// Issue represents a single problem found by validate mode.
type Issue struct {
	Entry   string // the entry as written (empty for list-level issues)
	Message string
}

// String returns the human-readable form of the issue.
func (i Issue) String() string {
	if i.Entry == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Entry, i.Message)
}

// Issues is a collection of validation issues.
type Issues []Issue

// Error implements the error interface for Issues.
func (e Issues) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].String()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation issues:\n", len(e)))
	for i, issue := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, issue.String()))
	}
	return sb.String()
}

// Strings returns every issue rendered for display.
func (e Issues) Strings() []string {
	out := make([]string, 0, len(e))
	for _, issue := range e {
		out = append(out, issue.String())
	}
	return out
}

// ValidationReport is the result of validate mode: the resolution outcome
// plus every issue found, reported rather than stopped at.
type ValidationReport struct {
	Source   Source
	Resolved []string
	Issues   Issues
}

// Validate performs the same resolution and accessibility checks as Resolve
// but takes no further action: it reports every issue found instead of
// stopping at the first, including entries that Resolve would merely warn
// about and duplicates that Resolve silently collapses.
func Validate(cliArgs []string, listFile string, defaults []string, logger *logging.Logger) *ValidationReport {
	r := NewResolver(logger)
	entries, source := r.selectTier(cliArgs, listFile, defaults)

	report := &ValidationReport{Source: source}
	seen := make(map[string]bool)

	for _, raw := range entries {
		rc := &ResolvedConfig{Source: source}
		attempt := r.processEntry(raw, rc)
		if attempt == nil {
			continue
		}

		// Expansion warnings (unset variables) are issues in validate mode.
		for _, w := range rc.Warnings {
			if attempt.Accepted {
				report.Issues = append(report.Issues, Issue{Message: w})
			}
		}

		if !attempt.Accepted {
			report.Issues = append(report.Issues, Issue{Entry: attempt.Raw, Message: attempt.Reason})
			continue
		}

		if seen[attempt.Expanded] {
			report.Issues = append(report.Issues, Issue{
				Entry:   attempt.Raw,
				Message: fmt.Sprintf("duplicate of %s after normalization", attempt.Expanded),
			})
			continue
		}
		seen[attempt.Expanded] = true
		report.Resolved = append(report.Resolved, attempt.Expanded)
	}

	if len(report.Resolved) == 0 {
		report.Issues = append(report.Issues, Issue{
			Message: fmt.Sprintf("no valid directories resolved from source %q", source),
		})
	}

	return report
}
