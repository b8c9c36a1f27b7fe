package app

import (
	"log/slog"
	"time"
)

// progress logs the search progress with an ETA, at most once per step
// percent plus once on completion.
type progress struct {
	log   *slog.Logger
	start time.Time
	step  float64
	next  float64
	now   func() time.Time
}

func newProgress(log *slog.Logger, step float64) *progress {
	return &progress{log: log, start: time.Now(), step: step, next: step, now: time.Now}
}

func (p *progress) report(completed, total int) {
	if total <= 0 {
		return
	}
	percent := float64(completed) / float64(total) * 100.0
	if percent < p.next && completed < total {
		return
	}
	for p.next <= percent {
		p.next += p.step
	}

	// estimate remaining time
	elapsed := p.now().Sub(p.start)
	eta := "unknown"
	if completed > 0 {
		remaining := time.Duration(float64(elapsed) * float64(total-completed) / float64(completed))
		eta = remaining.Round(time.Second).String()
	}
	p.log.Info("progress", "done", completed, "total", total, "percent", roundTenth(percent), "eta", eta)
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
