package corscheck

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testOrigin = "https://bookbarber-6fb.vercel.app"

// backend is a scriptable stand-in for the real API. It records the probe
// requests it saw so tests can assert on their shape.
type backend struct {
	healthStatus     int
	allowOrigin      string // "" means never emit the header
	preflightStatus  int
	functionalStatus int

	preflightSeen     bool
	preflightMethod   string
	preflightHeaders  string
	functionalSeen    bool
	functionalCT      string
	functionalOrigin  string
	functionalPayload []byte
}

func (b *backend) serve(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/health":
			if b.allowOrigin != "" && r.Header.Get("Origin") != "" {
				w.Header().Set("Access-Control-Allow-Origin", b.allowOrigin)
			}
			w.WriteHeader(b.healthStatus)
		case r.Method == http.MethodOptions && r.URL.Path == "/api/v1/auth/login":
			b.preflightSeen = true
			b.preflightMethod = r.Header.Get("Access-Control-Request-Method")
			b.preflightHeaders = r.Header.Get("Access-Control-Request-Headers")
			w.WriteHeader(b.preflightStatus)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/auth/login":
			b.functionalSeen = true
			b.functionalCT = r.Header.Get("Content-Type")
			b.functionalOrigin = r.Header.Get("Origin")
			b.functionalPayload, _ = io.ReadAll(r.Body)
			w.WriteHeader(b.functionalStatus)
		default:
			http.NotFound(w, r)
		}
	}))
}

func runSuite(t *testing.T, b *backend) (*Report, error) {
	t.Helper()
	srv := b.serve(t)
	defer srv.Close()

	s := New(Config{
		BackendURL: srv.URL,
		Origin:     testOrigin,
		AuthPath:   "/api/v1/auth/login",
		Timeout:    2 * time.Second,
	}, nil)
	return s.Run(context.Background())
}

func TestSuite_FullyWorking(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: testOrigin, preflightStatus: 204, functionalStatus: 422}

	r, err := runSuite(t, b)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !r.Reachable || r.HealthStatus != 200 {
		t.Fatalf("health observation wrong: %+v", r)
	}
	if !r.HeaderPresent || r.HeaderValue != testOrigin {
		t.Fatalf("header observation wrong: %+v", r)
	}
	if r.OriginMatch != MatchExact {
		t.Fatalf("want exact origin match, got %q", r.OriginMatch)
	}
	if !r.PreflightOK || r.PreflightStatus != 204 {
		t.Fatalf("preflight observation wrong: %+v", r)
	}
	if !r.FunctionalOK || r.FunctionalStatus != 422 {
		t.Fatalf("functional observation wrong: %+v", r)
	}
	if r.Verdict != FullyWorking {
		t.Fatalf("want fully_working, got %q", r.Verdict)
	}
	if r.Errs() != nil {
		t.Fatalf("no request errors expected, got %v", r.Errs())
	}
}

func TestSuite_TrimsTrailingSlash(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: testOrigin, preflightStatus: 204, functionalStatus: 422}
	srv := b.serve(t)
	defer srv.Close()

	s := New(Config{
		BackendURL: srv.URL + "/",
		Origin:     testOrigin,
		AuthPath:   "/api/v1/auth/login",
		Timeout:    2 * time.Second,
	}, nil)
	r, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.HasSuffix(r.Backend, "/") {
		t.Fatalf("report should carry the normalized backend URL: %q", r.Backend)
	}
	if r.Verdict != FullyWorking {
		t.Fatalf("trailing slash must not bend the request paths, got %q", r.Verdict)
	}
}

func TestSuite_SendsBrowserShapedRequests(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: testOrigin, preflightStatus: 200, functionalStatus: 422}

	if _, err := runSuite(t, b); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !b.preflightSeen || b.preflightMethod != "POST" || b.preflightHeaders != "Content-Type" {
		t.Fatalf("preflight request malformed: seen=%v method=%q headers=%q",
			b.preflightSeen, b.preflightMethod, b.preflightHeaders)
	}
	if !b.functionalSeen || b.functionalCT != "application/json" || b.functionalOrigin != testOrigin {
		t.Fatalf("functional request malformed: seen=%v ct=%q origin=%q",
			b.functionalSeen, b.functionalCT, b.functionalOrigin)
	}
	var creds loginRequest
	if err := json.Unmarshal(b.functionalPayload, &creds); err != nil {
		t.Fatalf("functional body is not JSON: %v", err)
	}
	if creds.Email == "" {
		t.Fatalf("functional body should carry placeholder credentials: %s", b.functionalPayload)
	}
}

func TestSuite_MissingHeader_NotWorking(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: "", preflightStatus: 204, functionalStatus: 422}

	r, err := runSuite(t, b)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.HeaderPresent {
		t.Fatalf("header should be absent: %+v", r)
	}
	if r.Verdict != NotWorking {
		t.Fatalf("want not_working, got %q", r.Verdict)
	}
	// later checks still run so the report stays complete
	if !b.preflightSeen || !b.functionalSeen {
		t.Fatalf("missing header must not short-circuit the run: preflight=%v functional=%v",
			b.preflightSeen, b.functionalSeen)
	}
}

func TestSuite_PreflightRejected_Partial(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: testOrigin, preflightStatus: 403, functionalStatus: 422}

	r, err := runSuite(t, b)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.PreflightOK {
		t.Fatalf("403 preflight must not pass: %+v", r)
	}
	if !r.FunctionalOK {
		t.Fatalf("functional 422 should still pass: %+v", r)
	}
	if r.Verdict != PartiallyWorking {
		t.Fatalf("want partially_working, got %q", r.Verdict)
	}
}

func TestSuite_FunctionalBroken_Partial(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: testOrigin, preflightStatus: 204, functionalStatus: 500}

	r, err := runSuite(t, b)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.FunctionalOK {
		t.Fatalf("500 functional must not pass: %+v", r)
	}
	if r.Verdict != PartiallyWorking {
		t.Fatalf("want partially_working, got %q", r.Verdict)
	}
}

func TestSuite_WildcardOrigin(t *testing.T) {
	b := &backend{healthStatus: 200, allowOrigin: "*", preflightStatus: 200, functionalStatus: 200}

	r, err := runSuite(t, b)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.OriginMatch != MatchWildcard {
		t.Fatalf("want wildcard match, got %q", r.OriginMatch)
	}
	if r.Verdict != FullyWorking {
		t.Fatalf("wildcard still satisfies the header check, got %q", r.Verdict)
	}
}

func TestSuite_DegradedHealthStillProbes(t *testing.T) {
	b := &backend{healthStatus: 500, allowOrigin: testOrigin, preflightStatus: 204, functionalStatus: 422}

	r, err := runSuite(t, b)
	if err != nil {
		t.Fatalf("a 500 health response is reachable, run must continue: %v", err)
	}
	if !r.Reachable || r.HealthStatus != 500 {
		t.Fatalf("health observation wrong: %+v", r)
	}
	if r.Verdict != FullyWorking {
		t.Fatalf("verdict ignores health status, got %q", r.Verdict)
	}
}

func TestSuite_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // port is now refusing connections

	s := New(Config{
		BackendURL: srv.URL,
		Origin:     testOrigin,
		Timeout:    time.Second,
	}, nil)
	r, err := s.Run(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("want ErrUnreachable, got %v", err)
	}
	if r.Reachable {
		t.Fatalf("report must not claim reachability: %+v", r)
	}
	if r.PreflightStatus != 0 || r.FunctionalStatus != 0 {
		t.Fatalf("no later checks may run after a transport failure: %+v", r)
	}
	if r.DNS == nil {
		t.Fatalf("unreachable backend should carry a DNS diagnosis")
	}
	if r.DNS.Host != "127.0.0.1" {
		t.Fatalf("diagnosis ran against the wrong host: %+v", r.DNS)
	}
}
