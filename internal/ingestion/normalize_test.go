package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
)

func TestNormalizeQuote(t *testing.T) {
	q := models.DailyQuote{Symbol: "AAPL", Date: "2023-03-10", OpenPrice: "150.2150", ClosePrice: " 148.5 ", Volume: "68524400"}

	rec, err := NormalizeQuote(q)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, "150.22", rec.OpenPrice.StringFixed(2))
	assert.Equal(t, "148.50", rec.ClosePrice.StringFixed(2))
	assert.Equal(t, int64(68524400), rec.Volume)
	assert.Zero(t, rec.ID)
}

func TestNormalizeQuote_Invalid(t *testing.T) {
	valid := models.DailyQuote{Symbol: "IBM", Date: "2023-03-10", OpenPrice: "1", ClosePrice: "1", Volume: "1"}
	cases := []struct {
		name  string
		mut   func(q *models.DailyQuote)
		field string
	}{
		{name: "date", mut: func(q *models.DailyQuote) { q.Date = "2023-3-10" }, field: "date"},
		{name: "open", mut: func(q *models.DailyQuote) { q.OpenPrice = "" }, field: "open"},
		{name: "negative close", mut: func(q *models.DailyQuote) { q.ClosePrice = "-1.00" }, field: "close"},
		{name: "fractional volume", mut: func(q *models.DailyQuote) { q.Volume = "10.5" }, field: "volume"},
		{name: "negative volume", mut: func(q *models.DailyQuote) { q.Volume = "-10" }, field: "volume"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := valid
			tc.mut(&q)
			_, err := NormalizeQuote(q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, alphavantage.ErrUnexpectedPayload))
			assert.Contains(t, err.Error(), "invalid "+tc.field)
		})
	}
}

func TestNormalizeQuotes_StopsAtFirstError(t *testing.T) {
	quotes := []models.DailyQuote{
		{Symbol: "IBM", Date: "2023-03-09", OpenPrice: "1", ClosePrice: "1", Volume: "1"},
		{Symbol: "IBM", Date: "2023-03-10", OpenPrice: "x", ClosePrice: "1", Volume: "1"},
	}
	out, err := NormalizeQuotes(quotes)
	assert.Error(t, err)
	assert.Nil(t, out)

	out, err = NormalizeQuotes(quotes[:1])
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
