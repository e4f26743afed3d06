package namer

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/sessionizer/internal/errors"
	"github.com/Iron-Ham/sessionizer/internal/logging"
)

// fakeBackend records sessions as name → working directory.
type fakeBackend struct {
	sessions map[string]string
	hasErr   error
}

func (f *fakeBackend) HasSession(name string) (bool, error) {
	if f.hasErr != nil {
		return false, f.hasErr
	}
	_, ok := f.sessions[name]
	return ok, nil
}

func (f *fakeBackend) SessionPath(name string) (string, error) {
	return f.sessions[name], nil
}

func newNamer(backend Backend) *Namer {
	return New(backend, logging.NopLogger())
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"my.proj!", "my_proj"},
		{"app", "app"},
		{"My-App 2", "MyApp2"},
		{"a.b.c", "a_b_c"},
		{"...", "___"},
		{"!!!", ""},
		{"snake_case", "snake_case"},
		{"дом", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("/x/app")
	b := Fingerprint("/x/app")
	c := Fingerprint("/y/app")

	if a != b {
		t.Errorf("Fingerprint not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Error("distinct seeds produced the same fingerprint")
	}
	if len(a) != FingerprintLen {
		t.Errorf("len(fingerprint) = %d, want %d", len(a), FingerprintLen)
	}
}

func TestFitIdempotentOnValidNames(t *testing.T) {
	for _, name := range []string{"app", "a", strings.Repeat("x", MaxNameLen)} {
		got, err := Fit(name, "/seed")
		if err != nil {
			t.Fatalf("Fit(%q) error = %v", name, err)
		}
		if got != name {
			t.Errorf("Fit(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestFitTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("x", MaxNameLen+50)
	got, err := Fit(long, "/seed")
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(got) > MaxNameLen {
		t.Errorf("len(Fit()) = %d, want <= %d", len(got), MaxNameLen)
	}
	if !strings.HasSuffix(got, "_"+Fingerprint("/seed")) {
		t.Errorf("Fit() = %q, want fingerprint suffix", got)
	}

	// Same input fits to the same output.
	again, _ := Fit(long, "/seed")
	if got != again {
		t.Errorf("Fit not deterministic: %q vs %q", got, again)
	}
}

func TestResolveFreshName(t *testing.T) {
	n := newNamer(&fakeBackend{sessions: map[string]string{}})

	res, err := n.Resolve("/x/app")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Name != "app" || res.Existing {
		t.Errorf("Resolve() = %+v, want fresh name app", res)
	}
}

func TestResolveSanitizesBasename(t *testing.T) {
	n := newNamer(&fakeBackend{sessions: map[string]string{}})

	res, err := n.Resolve("/projects/my.proj!")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Name != "my_proj" {
		t.Errorf("Resolve() = %q, want my_proj", res.Name)
	}
}

func TestResolveIdempotentReattach(t *testing.T) {
	n := newNamer(&fakeBackend{sessions: map[string]string{"app": "/x/app/"}})

	res, err := n.Resolve("/x/app")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Name != "app" || !res.Existing {
		t.Errorf("Resolve() = %+v, want existing match on app", res)
	}
}

func TestResolveParentQualified(t *testing.T) {
	// Scenario: /x/app already holds the name "app"; /y/app must get a
	// distinct, parent-qualified name.
	n := newNamer(&fakeBackend{sessions: map[string]string{"app": "/x/app"}})

	res, err := n.Resolve("/y/app")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Name != "y_app" || res.Existing {
		t.Errorf("Resolve() = %+v, want y_app", res)
	}
}

func TestResolveFingerprintFallback(t *testing.T) {
	sessions := map[string]string{
		"app":   "/x/app",
		"y_app": "/z/app",
	}
	n := newNamer(&fakeBackend{sessions: sessions})

	res, err := n.Resolve("/y/app")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "app_" + Fingerprint("/y/app")
	if res.Name != want {
		t.Errorf("Resolve() = %q, want %q", res.Name, want)
	}
}

func TestResolveIntegerSuffix(t *testing.T) {
	fp := Fingerprint("/y/app")
	sessions := map[string]string{
		"app":              "/x/app",
		"y_app":            "/z/app",
		"app_" + fp:        "/w/app",
		"app_" + fp + "_1": "/v/app",
	}
	n := newNamer(&fakeBackend{sessions: sessions})

	res, err := n.Resolve("/y/app")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "app_" + fp + "_2"
	if res.Name != want {
		t.Errorf("Resolve() = %q, want %q", res.Name, want)
	}
}

func TestResolveDistinctBasenamesNeverCollide(t *testing.T) {
	backend := &fakeBackend{sessions: map[string]string{}}
	n := newNamer(backend)

	first, err := n.Resolve("/x/app")
	if err != nil {
		t.Fatalf("Resolve(/x/app) error = %v", err)
	}
	backend.sessions[first.Name] = "/x/app"

	second, err := n.Resolve("/y/app")
	if err != nil {
		t.Fatalf("Resolve(/y/app) error = %v", err)
	}

	if first.Name == second.Name {
		t.Errorf("both directories resolved to %q", first.Name)
	}
	if first.Name != "app" || second.Name != "y_app" {
		t.Errorf("got %q then %q, want app then y_app", first.Name, second.Name)
	}
}

func TestResolveNamesNeverExceedMax(t *testing.T) {
	long := "/deep/" + strings.Repeat("d", 200)
	n := newNamer(&fakeBackend{sessions: map[string]string{}})

	res, err := n.Resolve(long)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Name) > MaxNameLen {
		t.Errorf("len(name) = %d, want <= %d", len(res.Name), MaxNameLen)
	}
}

func TestResolveEmptyAfterSanitization(t *testing.T) {
	n := newNamer(&fakeBackend{sessions: map[string]string{}})

	_, err := n.Resolve("/projects/!!!")
	if err == nil {
		t.Fatal("Resolve() error = nil, want empty-name ConfigError")
	}
	if !errors.Is(err, errors.ErrEmptyName) {
		t.Errorf("error = %v, want ErrEmptyName", err)
	}
}

// recordingBackend claims every name is taken by another directory and
// records each queried candidate.
type recordingBackend struct {
	queried []string
}

func (r *recordingBackend) HasSession(name string) (bool, error) {
	r.queried = append(r.queried, name)
	return true, nil
}

func (r *recordingBackend) SessionPath(string) (string, error) {
	return "/elsewhere", nil
}

func TestResolveNearLimitCandidatesStayDistinct(t *testing.T) {
	// A basename past MaxNameLen forces every candidate through truncation;
	// the integer-suffix attempts must still differ from one another.
	backend := &recordingBackend{}
	n := newNamer(backend)

	long := "/deep/" + strings.Repeat("d", MaxNameLen+50)
	_, err := n.Resolve(long)
	if !errors.Is(err, errors.ErrCollisionLimit) {
		t.Fatalf("Resolve() error = %v, want ErrCollisionLimit", err)
	}

	distinct := make(map[string]bool)
	for _, name := range backend.queried {
		if len(name) > MaxNameLen {
			t.Errorf("queried candidate %q exceeds %d chars", name, MaxNameLen)
		}
		distinct[name] = true
	}
	if len(distinct) < 110 {
		t.Errorf("only %d distinct candidates across %d queries, want the integer-suffix attempts to stay distinct",
			len(distinct), len(backend.queried))
	}
}

// exhaustedBackend claims every name is taken by some other directory.
type exhaustedBackend struct{}

func (exhaustedBackend) HasSession(string) (bool, error)    { return true, nil }
func (exhaustedBackend) SessionPath(string) (string, error) { return "/elsewhere", nil }

func TestResolveCollisionLimit(t *testing.T) {
	n := newNamer(exhaustedBackend{})

	_, err := n.Resolve("/x/app")
	if err == nil {
		t.Fatal("Resolve() error = nil, want collision-limit ConfigError")
	}
	if !errors.Is(err, errors.ErrCollisionLimit) {
		t.Errorf("error = %v, want ErrCollisionLimit", err)
	}
	if errors.ExitCode(err) != errors.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", errors.ExitCode(err), errors.ExitConfig)
	}
}

func TestResolveBackendQueryFailure(t *testing.T) {
	n := newNamer(&fakeBackend{hasErr: errors.New("tmux unreachable")})

	_, err := n.Resolve("/x/app")
	if err == nil {
		t.Fatal("Resolve() error = nil, want BackendError")
	}
	var backendErr *errors.BackendError
	if !errors.As(err, &backendErr) {
		t.Errorf("error = %T, want *BackendError", err)
	}
}

func TestPathsEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/x/app", "/x/app/", true},
		{"/x/app", "/x/app", true},
		{"/x/app", "/y/app", false},
		{"/x//app", "/x/app", true},
	}
	for _, tt := range tests {
		if got := PathsEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("PathsEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
