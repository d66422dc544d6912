package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Statistics holds the aggregates computed over one symbol and an inclusive
// date range.
//
// Every aggregate is null when no record matches, including TotalVolume:
// the sum of an empty set is reported as null, not zero.
//
// swagger:model Statistics
type Statistics struct {
	Symbol            string
	StartDate         time.Time
	EndDate           time.Time
	AverageOpenPrice  null.Float
	AverageClosePrice null.Float
	TotalVolume       null.Int
}
