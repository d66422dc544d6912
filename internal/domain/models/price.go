package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is one row of the financial_data table: the daily open/close
// prices and traded volume of a ticker.
//
// Natural key: (Symbol, Date). The ingestion job upserts on that key, so at
// most one record exists per symbol per day.
type PriceRecord struct {
	ID         int64           // surrogate key, used for stable ordering
	Symbol     string          // uppercase ticker, e.g. "AAPL"
	Date       time.Time       // calendar date, midnight UTC
	OpenPrice  decimal.Decimal // 2 fractional digits
	ClosePrice decimal.Decimal // 2 fractional digits
	Volume     int64
}

// DailyQuote is a provider bar normalized to plain strings, exactly as the
// provider reported it, before any numeric parsing.
type DailyQuote struct {
	Symbol     string `json:"symbol"`
	Date       string `json:"date"` // YYYY-MM-DD
	OpenPrice  string `json:"open_price"`
	ClosePrice string `json:"close_price"`
	Volume     string `json:"volume"`
}

// PriceFilter selects price records. Nil fields are not applied.
type PriceFilter struct {
	Symbol    *string
	StartDate *time.Time // inclusive lower bound on Date
	EndDate   *time.Time // inclusive upper bound on Date
}
