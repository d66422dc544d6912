package ingestion

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
	"github.com/guttosm/stockpulse/internal/storage"
)

const (
	DefaultWindowDays = 14
	DefaultParallel   = 1
)

// Fetcher returns the raw daily series for one symbol. *alphavantage.Client satisfies it.
type Fetcher interface {
	FetchDailyAdjusted(ctx context.Context, symbol string) (alphavantage.DailySeries, error)
}

// SymbolResult is the outcome of one symbol in a run.
type SymbolResult struct {
	Symbol  string
	Fetched int   // quotes inside the window
	Stored  int   // records written; 0 when skipped or failed
	Skipped bool  // nothing inside the window
	Err     error // persistence failure, if any
}

// Summary reports a finished run. Results holds one entry per symbol that was
// attempted, in configured order; symbols cancelled by an abort are absent.
type Summary struct {
	From, To time.Time
	Results  []SymbolResult
	Elapsed  time.Duration
}

// Failed returns the results whose batch could not be persisted.
func (s Summary) Failed() []SymbolResult {
	var out []SymbolResult
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Job pulls the trailing window of daily bars for each symbol and upserts them.
type Job struct {
	fetcher    Fetcher
	repo       storage.PriceRepository
	symbols    []string
	windowDays int
	parallel   int
	now        func() time.Time
}

// NewJob builds a Job from cfg. Zero WindowDays or Parallel fall back to the defaults.
func NewJob(fetcher Fetcher, repo storage.PriceRepository, cfg config.IngestionConfig) *Job {
	days := cfg.WindowDays
	if days <= 0 {
		days = DefaultWindowDays
	}
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}
	return &Job{
		fetcher:    fetcher,
		repo:       repo,
		symbols:    cfg.Symbols,
		windowDays: days,
		parallel:   parallel,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run ingests every configured symbol, at most parallel at a time.
//
// Per symbol the fetch completes before the upsert. A fetch or payload error
// is returned as *alphavantage.FetchError and cancels the symbols not yet
// started. A persistence error only fails that symbol's batch: it is logged
// and recorded in the Summary, and Run carries on. The Summary is returned
// in both cases.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	log := logger.Component("ingestion")
	start := time.Now()
	w := TrailingWindow(j.windowDays, j.now())

	summary := Summary{From: w.From, To: w.To}
	results := make([]SymbolResult, len(j.symbols))
	ran := make([]bool, len(j.symbols))

	log.Info().
		Strs("symbols", j.symbols).
		Str("from", w.From.Format(dateLayout)).
		Str("to", w.To.Format(dateLayout)).
		Int("parallel", j.parallel).
		Msg("ingestion start")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.parallel)

	for i, symbol := range j.symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := j.ingestSymbol(gctx, symbol, w)
			results[i], ran[i] = res, true
			return err
		})
	}

	err := g.Wait()
	for i, res := range results {
		if ran[i] {
			summary.Results = append(summary.Results, res)
		}
	}
	summary.Elapsed = time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", summary.Elapsed).Msg("ingestion aborted")
		return summary, err
	}
	log.Info().
		Int("symbols", len(j.symbols)).
		Int("failed", len(summary.Failed())).
		Dur("elapsed", summary.Elapsed).
		Msg("ingestion done")
	return summary, nil
}

func (j *Job) ingestSymbol(ctx context.Context, symbol string, w Window) (SymbolResult, error) {
	log := logger.Component("ingestion").With().Str("symbol", symbol).Logger()
	res := SymbolResult{Symbol: symbol}
	start := time.Now()

	log.Info().Msg("symbol start")

	series, err := j.fetcher.FetchDailyAdjusted(ctx, symbol)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		return res, asFetchError(symbol, err)
	}

	quotes, err := ExtractQuotes(symbol, series, w)
	if err != nil {
		log.Error().Err(err).Msg("unexpected series")
		return res, asFetchError(symbol, err)
	}
	res.Fetched = len(quotes)
	if len(quotes) == 0 {
		res.Skipped = true
		log.Warn().Int("series", len(series)).Msg("no quotes inside window, skipping")
		return res, nil
	}

	records, err := NormalizeQuotes(quotes)
	if err != nil {
		log.Error().Err(err).Msg("normalize failed")
		return res, asFetchError(symbol, err)
	}

	if err := j.repo.UpsertPrices(ctx, symbol, records); err != nil {
		res.Err = err
		log.Error().Err(err).Int("rows", len(records)).Msg("persist failed, batch rolled back")
		return res, nil
	}
	res.Stored = len(records)

	log.Info().Int("rows", res.Stored).Dur("elapsed", time.Since(start)).Msg("symbol done")
	return res, nil
}

func asFetchError(symbol string, err error) error {
	var fe *alphavantage.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &alphavantage.FetchError{Symbol: symbol, Err: err}
}
