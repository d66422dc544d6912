package ingestion

import (
	"fmt"
	"sort"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
)

const dateLayout = "2006-01-02"

// Window is the inclusive range of calendar dates a run keeps.
type Window struct {
	From time.Time
	To   time.Time
}

// TrailingWindow covers the last days days up to and including now's date:
// [now-days, now], so days=14 yields 15 calendar dates.
func TrailingWindow(days int, now time.Time) Window {
	if days < 0 {
		days = 0
	}
	to := truncateToDate(now)
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

// Contains reports whether d's calendar date falls inside w.
func (w Window) Contains(d time.Time) bool {
	d = truncateToDate(d)
	return !d.Before(w.From) && !d.After(w.To)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExtractQuotes keeps the bars of series dated inside w and returns them as
// DailyQuote values ordered by date. A date key that does not parse means the
// payload is not what we expect.
func ExtractQuotes(symbol string, series alphavantage.DailySeries, w Window) ([]models.DailyQuote, error) {
	out := make([]models.DailyQuote, 0, len(series))
	for key, bar := range series {
		d, err := time.Parse(dateLayout, key)
		if err != nil {
			return nil, fmt.Errorf("%w: date key %q", alphavantage.ErrUnexpectedPayload, key)
		}
		if !w.Contains(d) {
			continue
		}
		out = append(out, models.DailyQuote{
			Symbol:     symbol,
			Date:       key,
			OpenPrice:  bar.Open,
			ClosePrice: bar.Close,
			Volume:     bar.Volume,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
