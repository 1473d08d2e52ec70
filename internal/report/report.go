// Package report renders probe outcomes for humans. Machine output goes
// through JSON instead; nothing here is part of the functional contract.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sixfb/deploycheck/internal/corscheck"
	"github.com/sixfb/deploycheck/internal/probe"
)

type Printer struct {
	Out io.Writer
}

func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

func (p *Printer) OK(format string, args ...any) {
	fmt.Fprintf(p.Out, "✔ "+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.Out, "⚠ "+format+"\n", args...)
}

func (p *Printer) Fail(format string, args ...any) {
	fmt.Fprintf(p.Out, "✖ "+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.Out, "  "+format+"\n", args...)
}

func (p *Printer) Section(title string) {
	fmt.Fprintf(p.Out, "%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
}

// Poll renders the outcome of a deployment watch.
func (p *Printer) Poll(target, marker string, out probe.Outcome) {
	p.Section("Deployment check: " + target)
	switch {
	case out.Found:
		p.OK("marker %q served after %d attempt(s) (%.1fs)", marker, out.Attempts, out.ElapsedMS/1000)
		p.Info("last response: %s", out.Last.Message)
	case out.Interrupted:
		p.Warn("interrupted after %d attempt(s), marker %q not seen yet", out.Attempts, marker)
	default:
		p.Fail("marker %q not served after %d attempt(s) (%.1fs)", marker, out.Attempts, out.ElapsedMS/1000)
		p.Info("last response: %s", out.Last.Message)
	}
}

// CORS renders the per-check observations followed by the verdict block.
func (p *Printer) CORS(r *corscheck.Report) {
	p.Section("CORS check: " + r.Backend)
	p.Info("declared origin: %s", r.Origin)

	if !r.Reachable {
		p.Fail("backend unreachable, no HTTP response")
		if r.DNS != nil {
			p.DNS(r.DNS)
		}
		return
	}
	if r.HealthStatus == 200 {
		p.OK("backend reachable (health %d)", r.HealthStatus)
	} else {
		p.Warn("backend reachable but health returned %d", r.HealthStatus)
	}

	if r.HeaderPresent {
		p.OK("Access-Control-Allow-Origin present: %q", r.HeaderValue)
		switch r.OriginMatch {
		case corscheck.MatchExact:
			p.OK("header matches the frontend origin")
		case corscheck.MatchWildcard:
			p.Warn("header is the wildcard *, credentialed requests will still fail")
		case corscheck.MatchMismatch:
			p.Fail("header does not match the frontend origin")
		}
	} else {
		p.Fail("no Access-Control-Allow-Origin header for this origin")
	}

	if r.PreflightOK {
		p.OK("preflight accepted (%d)", r.PreflightStatus)
	} else if r.PreflightStatus == 0 {
		p.Fail("preflight got no response")
	} else {
		p.Fail("preflight rejected (%d)", r.PreflightStatus)
	}

	switch {
	case r.FunctionalStatus == 422:
		p.OK("login endpoint reachable cross-origin (422 for placeholder credentials)")
	case r.FunctionalOK:
		p.OK("login endpoint reachable cross-origin (%d)", r.FunctionalStatus)
	case r.FunctionalStatus == 0:
		p.Fail("login request got no response")
	default:
		p.Fail("login request failed (%d)", r.FunctionalStatus)
	}

	p.verdict(r)
}

func (p *Printer) verdict(r *corscheck.Report) {
	fmt.Fprintln(p.Out)
	switch r.Verdict {
	case corscheck.FullyWorking:
		p.OK("verdict: CORS fully working")
	case corscheck.PartiallyWorking:
		p.Warn("verdict: CORS partially working")
		p.Info("the allow-origin header is set but a browser request would still fail;")
		p.Info("compare ALLOWED_ORIGINS on the backend with the exact frontend origin %q", r.Origin)
	case corscheck.NotWorking:
		p.Fail("verdict: CORS not working")
		p.Info("add %q to ALLOWED_ORIGINS in the backend environment", r.Origin)
		p.Info("(service dashboard → your backend → Environment tab, then redeploy)")
	}
}

// DNS renders a resolver diagnosis for an unreachable host.
func (p *Printer) DNS(d *probe.DNSStatus) {
	switch d.Class {
	case probe.DNSResolves:
		p.Info("DNS: %s resolves to %s, the service itself is not answering", d.Host, strings.Join(d.IPs, ", "))
	case probe.DNSNXDomain:
		p.Info("DNS: %s does not exist (NXDOMAIN), check the backend URL", d.Host)
	case probe.DNSNoRecords:
		p.Info("DNS: %s exists but has no address records", d.Host)
	case probe.DNSServfailOrTimeout:
		p.Info("DNS: resolution for %s failing (%s)", d.Host, d.Err)
	case probe.DNSInvalidHost:
		p.Info("DNS: %q is not a resolvable host", d.Host)
	}
	if d.CNAME != "" {
		p.Info("DNS: CNAME %s", d.CNAME)
	}
}

// JSON writes v as a single JSON document, for script consumption.
func JSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
