package usecase

import (
	"context"
	"time"

	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"
)

const prewarmLockKey = "lock:prewarm"

// Prewarmer fetches the trailing window of each configured ticker through a
// caching source so the first user request is served from cache. With a
// shared cache the run is guarded by a lock, so one replica does the work.
type Prewarmer struct {
	source   domrepo.SeriesSource
	lock     cache.Service
	tickers  []string
	lookback int
	timeout  time.Duration
	l        *applogger.Logger
	now      func() time.Time
}

func NewPrewarmer(src domrepo.SeriesSource, lock cache.Service, tickers []string, lookbackDays int, timeout time.Duration, l *applogger.Logger) *Prewarmer {
	if l == nil {
		l = applogger.Nop()
	}
	if lookbackDays <= 0 {
		lookbackDays = 365
	}
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Prewarmer{
		source:   src,
		lock:     lock,
		tickers:  tickers,
		lookback: lookbackDays,
		timeout:  timeout,
		l:        l,
		now:      time.Now,
	}
}

// Window returns the [start, end] range warmed for the current day.
func (p *Prewarmer) Window() (time.Time, time.Time) {
	end := util.TruncateDay(p.now().UTC())
	return end.AddDate(0, 0, -p.lookback), end
}

// Run warms every ticker once. It returns the number of tickers warmed.
func (p *Prewarmer) Run(ctx context.Context) int {
	if p.lock != nil {
		ok, err := p.lock.TryLock(ctx, prewarmLockKey, time.Duration(len(p.tickers)+1)*p.timeout)
		if err != nil {
			p.l.Warn("prewarm lock failed", applogger.Error(err))
			return 0
		}
		if !ok {
			p.l.Debug("prewarm skipped, lock held elsewhere")
			return 0
		}
		defer func() { _ = p.lock.Unlock(context.WithoutCancel(ctx), prewarmLockKey) }()
	}

	start, end := p.Window()
	warmed := 0
	for _, raw := range p.tickers {
		if ctx.Err() != nil {
			break
		}
		ticker := util.NormalizeTicker(raw)
		fctx, cancel := context.WithTimeout(ctx, p.timeout)
		series, err := p.source.Fetch(fctx, ticker, start, end)
		cancel()
		if err != nil {
			p.l.Error("prewarm fetch failed", applogger.String("ticker", ticker), applogger.Error(err))
			continue
		}
		if len(series) > 0 {
			warmed++
		}
	}
	p.l.Info("prewarm done",
		applogger.Int("tickers", len(p.tickers)),
		applogger.Int("warmed", warmed),
		applogger.String("start", util.FormatDate(start)),
		applogger.String("end", util.FormatDate(end)),
	)
	return warmed
}
