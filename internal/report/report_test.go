package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sixfb/deploycheck/internal/corscheck"
	"github.com/sixfb/deploycheck/internal/probe"
)

func TestPrinter_Glyphs(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.OK("fine")
	p.Warn("hmm")
	p.Fail("broken")
	p.Info("detail")

	want := "✔ fine\n⚠ hmm\n✖ broken\n  detail\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestPrinter_Poll(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Poll("https://app.example", "Sign in", probe.Outcome{
		Found:     true,
		Attempts:  3,
		ElapsedMS: 31500,
		Last:      probe.CheckResult{Success: true, Message: "marker found (200 OK)"},
	})

	out := buf.String()
	if !strings.Contains(out, "Deployment check: https://app.example") {
		t.Fatalf("missing section header:\n%s", out)
	}
	if !strings.Contains(out, "✔ marker \"Sign in\" served after 3 attempt(s)") {
		t.Fatalf("missing success line:\n%s", out)
	}
	if !strings.Contains(out, "31.5s") {
		t.Fatalf("missing elapsed seconds:\n%s", out)
	}
}

func TestPrinter_PollTimeout(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Poll("https://app.example", "Sign in", probe.Outcome{
		Found:    false,
		Attempts: 20,
		Last:     probe.CheckResult{Message: "marker not found (200 OK)"},
	})

	out := buf.String()
	if !strings.Contains(out, "✖ marker \"Sign in\" not served after 20 attempt(s)") {
		t.Fatalf("missing failure line:\n%s", out)
	}
	if !strings.Contains(out, "marker not found (200 OK)") {
		t.Fatalf("missing last-response detail:\n%s", out)
	}
}

func TestPrinter_CORSFullyWorking(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.CORS(&corscheck.Report{
		Backend:          "https://api.example",
		Origin:           "https://app.example",
		Reachable:        true,
		HealthStatus:     200,
		HeaderPresent:    true,
		HeaderValue:      "https://app.example",
		OriginMatch:      corscheck.MatchExact,
		PreflightStatus:  204,
		PreflightOK:      true,
		FunctionalStatus: 422,
		FunctionalOK:     true,
		Verdict:          corscheck.FullyWorking,
	})

	out := buf.String()
	for _, want := range []string{
		"✔ backend reachable (health 200)",
		"✔ Access-Control-Allow-Origin present",
		"✔ header matches the frontend origin",
		"✔ preflight accepted (204)",
		"422 for placeholder credentials",
		"✔ verdict: CORS fully working",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrinter_CORSPartiallyWorking(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.CORS(&corscheck.Report{
		Backend:          "https://api.example",
		Origin:           "https://app.example",
		Reachable:        true,
		HealthStatus:     200,
		HeaderPresent:    true,
		HeaderValue:      "https://app.example",
		OriginMatch:      corscheck.MatchExact,
		PreflightStatus:  403,
		FunctionalStatus: 422,
		FunctionalOK:     true,
		Verdict:          corscheck.PartiallyWorking,
	})

	out := buf.String()
	if !strings.Contains(out, "✖ preflight rejected (403)") {
		t.Fatalf("missing preflight failure line:\n%s", out)
	}
	if !strings.Contains(out, "⚠ verdict: CORS partially working") {
		t.Fatalf("missing verdict line:\n%s", out)
	}
	if !strings.Contains(out, "ALLOWED_ORIGINS") || !strings.Contains(out, `"https://app.example"`) {
		t.Fatalf("remediation should point at the origin comparison:\n%s", out)
	}
}

func TestPrinter_CORSNotWorkingNamesRemediation(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.CORS(&corscheck.Report{
		Backend:          "https://api.example",
		Origin:           "https://app.example",
		Reachable:        true,
		HealthStatus:     200,
		PreflightStatus:  400,
		FunctionalStatus: 500,
		Verdict:          corscheck.NotWorking,
	})

	out := buf.String()
	if !strings.Contains(out, "✖ verdict: CORS not working") {
		t.Fatalf("missing verdict line:\n%s", out)
	}
	if !strings.Contains(out, "ALLOWED_ORIGINS") {
		t.Fatalf("remediation should name the env var:\n%s", out)
	}
	if !strings.Contains(out, "https://app.example") {
		t.Fatalf("remediation should name the origin to add:\n%s", out)
	}
}

func TestPrinter_CORSUnreachableShowsDNS(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.CORS(&corscheck.Report{
		Backend: "https://api.example",
		Origin:  "https://app.example",
		DNS: &probe.DNSStatus{
			Host:  "api.example",
			Class: probe.DNSNXDomain,
		},
	})

	out := buf.String()
	if !strings.Contains(out, "✖ backend unreachable") {
		t.Fatalf("missing unreachable line:\n%s", out)
	}
	if !strings.Contains(out, "NXDOMAIN") {
		t.Fatalf("missing DNS diagnosis:\n%s", out)
	}
	if strings.Contains(out, "preflight") {
		t.Fatalf("no per-check lines after a transport failure:\n%s", out)
	}
}

func TestJSON_RoundTripsReport(t *testing.T) {
	var buf bytes.Buffer
	in := &corscheck.Report{Backend: "https://api.example", Reachable: true, Verdict: corscheck.FullyWorking}
	if err := JSON(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["verdict"] != "fully_working" {
		t.Fatalf("verdict missing from JSON: %v", got)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("want a single line of JSON, got %q", buf.String())
	}
}
