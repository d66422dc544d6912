package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/storage"
)

// StatisticsQuery holds the raw GET /statistics parameters. All three are required.
type StatisticsQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Symbol    string `form:"symbol"`
}

// StatisticsService computes aggregates over a symbol and date range.
type StatisticsService interface {
	Compute(ctx context.Context, q StatisticsQuery) (*models.Statistics, error)
}

type statisticsService struct {
	repo storage.PriceRepository
}

func NewStatisticsService(repo storage.PriceRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// Compute validates q and returns average open/close price and total volume
// over the inclusive range. An empty range yields null aggregates, not an error.
func (s *statisticsService) Compute(ctx context.Context, q StatisticsQuery) (*models.Statistics, error) {
	symbol := NormalizeSymbol(q.Symbol)
	if strings.TrimSpace(q.StartDate) == "" || strings.TrimSpace(q.EndDate) == "" || symbol == "" {
		return nil, invalid("start_date, end_date, and symbol are required parameters")
	}

	start, errStart := parseDate(q.StartDate)
	end, errEnd := parseDate(q.EndDate)
	if errStart != nil || errEnd != nil {
		return nil, invalid("start_date and end_date must be in the format YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, invalid("start_date must be before end_date")
	}

	stats, err := s.repo.GetStatistics(ctx, models.PriceFilter{Symbol: &symbol, StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, fmt.Errorf("compute statistics for %s: %w", symbol, err)
	}
	stats.Symbol = symbol
	stats.StartDate = start
	stats.EndDate = end
	return stats, nil
}
