package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxPageBytes caps how much of a page the marker scan reads.
const maxPageBytes = 1 << 20

// PageChecker fetches a page and succeeds when the body contains Marker.
// The HTTP status is recorded but does not influence success: only the body
// decides whether the deploy is live.
type PageChecker struct {
	Client *http.Client
	Marker string
}

func NewPageChecker(timeout time.Duration, marker string) *PageChecker {
	return &PageChecker{
		Client: &http.Client{Timeout: timeout},
		Marker: marker,
	}
}

func (p *PageChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return CheckResult{Message: err.Error()}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return CheckResult{
			LatencyMS: time.Since(start).Seconds() * 1000,
			Message:   err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return CheckResult{
			StatusCode: resp.StatusCode,
			LatencyMS:  latency,
			Message:    err.Error(),
		}
	}

	if strings.Contains(string(body), p.Marker) {
		return CheckResult{
			Success:    true,
			StatusCode: resp.StatusCode,
			LatencyMS:  latency,
			Message:    fmt.Sprintf("marker found (%s)", resp.Status),
		}
	}
	return CheckResult{
		StatusCode: resp.StatusCode,
		LatencyMS:  latency,
		Message:    fmt.Sprintf("marker not found (%s)", resp.Status),
	}
}
