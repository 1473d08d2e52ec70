package probe

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Outcome summarizes a full polling run.
type Outcome struct {
	Found       bool        `json:"found"`
	Attempts    int         `json:"attempts"` // attempts actually performed
	ElapsedMS   float64     `json:"elapsed_ms"`
	Last        CheckResult `json:"last"`
	Interrupted bool        `json:"interrupted,omitempty"` // context cancelled mid-run
}

// Poller runs a Checker until it succeeds or the attempt budget is spent,
// sleeping a fixed interval between attempts. No backoff: the cadence stays
// predictable for an operator reading the progress lines.
type Poller struct {
	Checker  Checker
	Attempts int
	Interval time.Duration
	Logger   *zap.Logger
	Progress io.Writer // optional; one line per attempt
}

// Run polls target. It returns as soon as a check succeeds; the interval
// sleep happens only between attempts, never after the last one. A cancelled
// context ends the run at the next sleep and marks the outcome interrupted.
func (p *Poller) Run(ctx context.Context, target string) Outcome {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	var out Outcome
	for i := 1; i <= attempts; i++ {
		if p.Progress != nil {
			fmt.Fprintf(p.Progress, "attempt %d/%d: checking %s\n", i, attempts, target)
		}

		res := p.Checker.Check(ctx, target)
		out.Attempts = i
		out.Last = res

		log.Info("poll_attempt",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.String("target", target),
			zap.Bool("success", res.Success),
			zap.Int("status", res.StatusCode),
			zap.Float64("latency_ms", res.LatencyMS),
			zap.String("message", res.Message),
		)

		if res.Success {
			out.Found = true
			break
		}
		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			out.Interrupted = true
		case <-time.After(p.Interval):
		}
		if out.Interrupted {
			log.Warn("poll_interrupted", zap.Int("attempt", i))
			break
		}
	}

	out.ElapsedMS = time.Since(start).Seconds() * 1000
	return out
}
