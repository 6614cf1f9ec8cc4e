package fetch

import "time"

// Progress is emitted to a caller-registered callback no more than once per
// ProgressInterval (spec §4.1's progress contract).
type Progress struct {
	BytesDownloaded  int64
	TotalBytes       int64
	BytesPerSecond   float64
	ETASeconds       float64
	Percent          float64
	IsResuming       bool
	BytesResumedFrom int64
	Attempt          int
}

// ProgressFunc receives throttled progress updates.
type ProgressFunc func(Progress)

// progressThrottle tracks rate and emission cadence for one fetch attempt.
type progressThrottle struct {
	fn           ProgressFunc
	interval     time.Duration
	last         time.Time
	lastBytes    int64
	lastAt       time.Time
	resuming     bool
	resumedFrom  int64
	total        int64
	attempt      int
}

func newProgressThrottle(fn ProgressFunc, interval time.Duration, resuming bool, resumedFrom, total int64, attempt int) *progressThrottle {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	now := time.Now()
	return &progressThrottle{
		fn: fn, interval: interval,
		last: now, lastAt: now, resuming: resuming, resumedFrom: resumedFrom,
		total: total, attempt: attempt,
	}
}

// report is called after each chunk is written; it emits at most once per
// interval, always emitting a final call when force is true.
func (p *progressThrottle) report(bytesDownloaded int64, force bool) {
	if p.fn == nil {
		return
	}
	now := time.Now()
	if !force && now.Sub(p.last) < p.interval {
		return
	}
	elapsed := now.Sub(p.lastAt).Seconds()
	var bps float64
	if elapsed > 0 {
		bps = float64(bytesDownloaded-p.lastBytes) / elapsed
	}
	var eta, pct float64
	if p.total > 0 {
		pct = 100 * float64(bytesDownloaded) / float64(p.total)
		if bps > 0 {
			remaining := p.total - bytesDownloaded
			eta = float64(remaining) / bps
		}
	}
	p.fn(Progress{
		BytesDownloaded:  bytesDownloaded,
		TotalBytes:       p.total,
		BytesPerSecond:   bps,
		ETASeconds:       eta,
		Percent:          pct,
		IsResuming:       p.resuming,
		BytesResumedFrom: p.resumedFrom,
		Attempt:          p.attempt,
	})
	p.last = now
	p.lastAt = now
	p.lastBytes = bytesDownloaded
}
