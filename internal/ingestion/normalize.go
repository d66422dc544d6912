package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
)

// priceScale is the number of fractional digits stored for prices.
const priceScale = 2

// NormalizeQuote converts the provider's strings into a storable record.
// Prices are rounded half away from zero to two decimals.
func NormalizeQuote(q models.DailyQuote) (models.PriceRecord, error) {
	var rec models.PriceRecord

	d, err := time.Parse(dateLayout, q.Date)
	if err != nil {
		return rec, fieldErr(q, "date", q.Date)
	}
	open, err := decimal.NewFromString(strings.TrimSpace(q.OpenPrice))
	if err != nil || open.IsNegative() {
		return rec, fieldErr(q, "open", q.OpenPrice)
	}
	closing, err := decimal.NewFromString(strings.TrimSpace(q.ClosePrice))
	if err != nil || closing.IsNegative() {
		return rec, fieldErr(q, "close", q.ClosePrice)
	}
	vol, err := strconv.ParseInt(strings.TrimSpace(q.Volume), 10, 64)
	if err != nil || vol < 0 {
		return rec, fieldErr(q, "volume", q.Volume)
	}

	return models.PriceRecord{
		Symbol:     q.Symbol,
		Date:       d,
		OpenPrice:  open.Round(priceScale),
		ClosePrice: closing.Round(priceScale),
		Volume:     vol,
	}, nil
}

// NormalizeQuotes applies NormalizeQuote to every quote, stopping at the first failure.
func NormalizeQuotes(quotes []models.DailyQuote) ([]models.PriceRecord, error) {
	out := make([]models.PriceRecord, 0, len(quotes))
	for _, q := range quotes {
		rec, err := NormalizeQuote(q)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func fieldErr(q models.DailyQuote, field, value string) error {
	return fmt.Errorf("%w: %s %s: invalid %s %q", alphavantage.ErrUnexpectedPayload, q.Symbol, q.Date, field, value)
}
