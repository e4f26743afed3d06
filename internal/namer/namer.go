// Package namer derives a collision-safe, length-bounded session name from a
// chosen directory. Resolution is deterministic apart from the last-resort
// strategy; the bounded retry loops here are algorithmic, not fault-tolerance
// retries.
package namer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

const (
	// MaxNameLen bounds every resolved session name.
	MaxNameLen = 128

	// FingerprintLen is the number of hex characters kept from the digest.
	FingerprintLen = 8

	// maxIntegerAttempts bounds the integer-suffix collision strategy.
	maxIntegerAttempts = 100

	// maxLastResortAttempts bounds the final fingerprint strategy.
	maxLastResortAttempts = 10
)

// Backend is the subset of the session backend the namer queries. Existence
// and working directory are queried live, never cached between candidates.
type Backend interface {
	// HasSession reports whether a session with the given name exists.
	HasSession(name string) (bool, error)
	// SessionPath returns the working directory recorded for a session.
	SessionPath(name string) (string, error)
}

// Resolution is the outcome of name resolution.
type Resolution struct {
	// Name is the final collision-resolved session name.
	Name string
	// Existing is true when a session with Name already points at the
	// target directory; the caller re-attaches instead of creating.
	Existing bool
}

// Namer resolves session names against a live backend.
type Namer struct {
	backend Backend
	logger  *logging.Logger
	now     func() time.Time // swapped in tests
	pid     int
}

// New creates a Namer.
func New(backend Backend, logger *logging.Logger) *Namer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Namer{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		pid:     os.Getpid(),
	}
}

// Sanitize maps a directory basename to the session-name alphabet:
// '.' becomes '_', anything that is not alphanumeric or underscore is
// stripped.
func Sanitize(base string) string {
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r == '.':
			sb.WriteByte('_')
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Fingerprint returns a short deterministic digest of the seed string.
func Fingerprint(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// Fit returns the name unchanged when it is within MaxNameLen; otherwise it
// truncates and suffixes a fingerprint of the seed so the result is both
// bounded and distinguishable. Fit is idempotent on already-valid names.
func Fit(name, seed string) (string, error) {
	if len(name) <= MaxNameLen {
		return name, nil
	}
	prefixLen := MaxNameLen - FingerprintLen - 1
	if prefixLen < 1 {
		return "", fmt.Errorf("maximum name length %d cannot hold a fingerprint suffix", MaxNameLen)
	}
	return name[:prefixLen] + "_" + Fingerprint(seed), nil
}

// Resolve produces the final session name for the selected directory.
//
// Candidates are evaluated in fixed order, stopping at the first name that
// either has no existing session or has an existing session whose recorded
// working directory matches the target (idempotent re-attach). Exhausting
// every strategy is a ConfigError, never a silently duplicated name.
func (n *Namer) Resolve(dir string) (*Resolution, error) {
	base := Sanitize(filepath.Base(dir))
	if base == "" {
		return nil, errors.NewConfigError(
			fmt.Sprintf("directory %q produced an empty session name", dir),
			errors.ErrEmptyName)
	}

	fitted, err := Fit(base, dir)
	if err != nil {
		return nil, errors.NewConfigError("cannot fit session name", err)
	}

	// Strategy 1: the fitted base name.
	if res, err := n.check(fitted, dir); err != nil || res != nil {
		return res, err
	}

	// Strategy 2: qualify with the sanitized parent basename.
	if parent := Sanitize(filepath.Base(filepath.Dir(dir))); parent != "" {
		qualified, err := Fit(parent+"_"+base, dir)
		if err == nil {
			if res, err := n.check(qualified, dir); err != nil || res != nil {
				return res, err
			}
		}
	}

	// Strategy 3: suffix a fingerprint of the full path.
	fp := Fingerprint(dir)
	hashed, err := Fit(base+"_"+fp, dir)
	if err == nil {
		if res, err := n.check(hashed, dir); err != nil || res != nil {
			return res, err
		}

		// Strategy 4: integer suffixes on the hashed candidate. The fit
		// seed carries the counter so truncation of a near-limit name
		// still yields a distinct candidate per attempt.
		for i := 1; i <= maxIntegerAttempts; i++ {
			numbered, err := Fit(fmt.Sprintf("%s_%d", hashed, i), fmt.Sprintf("%s-%d", dir, i))
			if err != nil {
				break
			}
			if res, err := n.check(numbered, dir); err != nil || res != nil {
				return res, err
			}
		}
	}

	// Strategy 5: last resort, a fingerprint over path, attempt counter,
	// time and pid.
	for i := 1; i <= maxLastResortAttempts; i++ {
		seed := fmt.Sprintf("%s-%d-%d-%d", dir, i, n.now().UnixNano(), n.pid)
		if res, err := n.check("s_"+Fingerprint(seed), dir); err != nil || res != nil {
			return res, err
		}
	}

	n.logger.Warn("session name collision limit reached", "dir", dir, "base", base)
	return nil, errors.NewConfigError(
		fmt.Sprintf("could not find a free session name for %q", dir),
		errors.ErrCollisionLimit)
}

// check evaluates a single candidate against the live backend. Returns a
// Resolution when the candidate is usable, nil when taken by another
// directory.
func (n *Namer) check(name, dir string) (*Resolution, error) {
	exists, err := n.backend.HasSession(name)
	if err != nil {
		return nil, errors.NewBackendError("session existence query failed", err).
			WithOperation("has-session").WithSession(name)
	}
	if !exists {
		return &Resolution{Name: name}, nil
	}

	path, err := n.backend.SessionPath(name)
	if err != nil {
		// A session we cannot inspect is treated as a collision; the
		// ladder moves on to the next candidate.
		n.logger.Debug("session path query failed", "session", name, "error", err.Error())
		return nil, nil
	}
	if PathsEqual(path, dir) {
		return &Resolution{Name: name, Existing: true}, nil
	}
	return nil, nil
}

// PathsEqual compares directory paths ignoring trailing separators.
func PathsEqual(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
