package corscheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sixfb/deploycheck/internal/probe"
)

// ErrUnreachable marks a backend that failed at the transport level, before
// any HTTP status came back. Callers treat it as fatal.
var ErrUnreachable = errors.New("backend unreachable")

const (
	defaultTimeout  = 10 * time.Second
	defaultAuthPath = "/api/v1/auth/login"
)

// Config describes one probe run.
type Config struct {
	BackendURL string
	Origin     string // frontend origin the backend is expected to allow
	AuthPath   string
	Timeout    time.Duration
}

// Report holds the observations of all checks plus the aggregate verdict.
// A check that never got a response keeps its zero status code.
type Report struct {
	Backend          string           `json:"backend"`
	Origin           string           `json:"origin"`
	Reachable        bool             `json:"reachable"`
	HealthStatus     int              `json:"health_status,omitempty"`
	HeaderPresent    bool             `json:"header_present"`
	HeaderValue      string           `json:"header_value,omitempty"`
	OriginMatch      OriginMatch      `json:"origin_match,omitempty"`
	PreflightStatus  int              `json:"preflight_status,omitempty"`
	PreflightOK      bool             `json:"preflight_ok"`
	FunctionalStatus int              `json:"functional_status,omitempty"`
	FunctionalOK     bool             `json:"functional_ok"`
	Verdict          Verdict          `json:"verdict,omitempty"`
	DNS              *probe.DNSStatus `json:"dns,omitempty"`

	errs error
}

func (r *Report) addErr(step string, err error) {
	r.errs = multierr.Append(r.errs, fmt.Errorf("%s: %w", step, err))
}

// Errs returns the non-fatal request errors collected across checks, nil when
// every request got a response.
func (r *Report) Errs() error { return r.errs }

// Suite runs the ordered CORS checks against one backend.
type Suite struct {
	cfg    Config
	health probe.Checker
	client *http.Client
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Suite {
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AuthPath == "" {
		cfg.AuthPath = defaultAuthPath
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Suite{
		cfg:    cfg,
		health: probe.NewHTTPChecker(cfg.Timeout),
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Run executes the checks in order. The health check is the gate: a transport
// failure there aborts the run with ErrUnreachable and a DNS diagnosis in the
// report. Every later check degrades independently; its error lands in
// Errs() and the verdict is computed from whatever was observed.
func (s *Suite) Run(ctx context.Context) (*Report, error) {
	r := &Report{Backend: s.cfg.BackendURL, Origin: s.cfg.Origin}

	health := s.health.Check(ctx, s.cfg.BackendURL+"/health")
	s.log.Debug("cors_health",
		zap.Bool("success", health.Success),
		zap.Int("status", health.StatusCode),
		zap.String("message", health.Message))
	if health.TransportError() {
		dns := probe.DiagnoseDNS(ctx, s.cfg.BackendURL)
		r.DNS = &dns
		s.log.Error("backend_unreachable",
			zap.String("backend", s.cfg.BackendURL),
			zap.String("dns_class", dns.Class),
			zap.Strings("ips", dns.IPs),
			zap.String("cname", dns.CNAME),
			zap.String("message", health.Message))
		return r, fmt.Errorf("%w: %s", ErrUnreachable, health.Message)
	}
	r.Reachable = true
	r.HealthStatus = health.StatusCode

	s.checkHeader(ctx, r)
	if r.HeaderPresent {
		r.OriginMatch = ClassifyOrigin(r.HeaderValue, s.cfg.Origin)
	}
	s.checkPreflight(ctx, r)
	s.checkFunctional(ctx, r)

	r.Verdict = computeVerdict(r.HeaderPresent, r.PreflightOK, r.FunctionalOK)
	s.log.Info("cors_verdict",
		zap.String("backend", r.Backend),
		zap.String("verdict", string(r.Verdict)),
		zap.Bool("header_present", r.HeaderPresent),
		zap.Bool("preflight_ok", r.PreflightOK),
		zap.Bool("functional_ok", r.FunctionalOK))
	return r, nil
}

// checkHeader asks for /health the way a browser would, with an Origin header,
// and records the Access-Control-Allow-Origin value that came back.
func (s *Suite) checkHeader(ctx context.Context, r *Report) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BackendURL+"/health", nil)
	if err != nil {
		r.addErr("header", err)
		return
	}
	req.Header.Set("Origin", s.cfg.Origin)

	resp, err := s.client.Do(req)
	if err != nil {
		r.addErr("header", err)
		return
	}
	defer resp.Body.Close()

	r.HeaderValue = resp.Header.Get("Access-Control-Allow-Origin")
	r.HeaderPresent = r.HeaderValue != ""
}

// checkPreflight sends the OPTIONS request a browser issues before a
// cross-origin POST with a JSON body. 200 and 204 both count as approval.
func (s *Suite) checkPreflight(ctx context.Context, r *Report) {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, s.cfg.BackendURL+s.cfg.AuthPath, nil)
	if err != nil {
		r.addErr("preflight", err)
		return
	}
	req.Header.Set("Origin", s.cfg.Origin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := s.client.Do(req)
	if err != nil {
		r.addErr("preflight", err)
		return
	}
	defer resp.Body.Close()

	r.PreflightStatus = resp.StatusCode
	r.PreflightOK = resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// placeholderLogin is deliberately invalid. A healthy auth endpoint rejects
// it with 422; we only care that the cross-origin request got through.
var placeholderLogin = loginRequest{Email: "cors-probe@example.com", Password: "probe"}

func (s *Suite) checkFunctional(ctx context.Context, r *Report) {
	body, err := json.Marshal(placeholderLogin)
	if err != nil {
		r.addErr("functional", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BackendURL+s.cfg.AuthPath, bytes.NewReader(body))
	if err != nil {
		r.addErr("functional", err)
		return
	}
	req.Header.Set("Origin", s.cfg.Origin)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		r.addErr("functional", err)
		return
	}
	defer resp.Body.Close()

	r.FunctionalStatus = resp.StatusCode
	r.FunctionalOK = resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusOK
}
