package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/pagination"
	"github.com/guttosm/stockpulse/internal/storage"
)

// FinancialDataQuery holds the raw GET /financial_data parameters.
type FinancialDataQuery struct {
	Symbol    string `form:"symbol"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     string `form:"limit"`
	Page      string `form:"page"`
}

// FinancialDataPage is one page of records plus the window that produced it.
type FinancialDataPage struct {
	Records []models.PriceRecord
	Window  pagination.Window
}

// FinancialDataService lists stored price records.
type FinancialDataService interface {
	List(ctx context.Context, q FinancialDataQuery) (*FinancialDataPage, error)
}

type financialDataService struct {
	repo storage.PriceRepository
}

func NewFinancialDataService(repo storage.PriceRepository) FinancialDataService {
	return &financialDataService{repo: repo}
}

// List validates q, counts the matching records and fetches the requested page.
// Bad parameters come back as *ValidationError; store failures are wrapped.
func (s *financialDataService) List(ctx context.Context, q FinancialDataQuery) (*FinancialDataPage, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}

	limit, err := positiveInt(q.Limit, pagination.DefaultLimit, pagination.ErrInvalidLimit)
	if err != nil {
		return nil, err
	}
	page, err := positiveInt(q.Page, pagination.DefaultPage, pagination.ErrInvalidPage)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountPrices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count financial data: %w", err)
	}

	w, err := pagination.Paginate(count, page, limit)
	if errors.Is(err, pagination.ErrPageOutOfRange) {
		return nil, invalid(pagination.ErrPageOutOfRange.Error())
	}
	if err != nil {
		return nil, invalid(err.Error())
	}

	if count == 0 {
		return &FinancialDataPage{Records: []models.PriceRecord{}, Window: w}, nil
	}

	// Never ask the store for more rows than remain past the offset.
	records, err := s.repo.ListPrices(ctx, filter, int(min(int64(w.Limit), count-int64(w.Offset))), w.Offset)
	if err != nil {
		return nil, fmt.Errorf("list financial data: %w", err)
	}
	return &FinancialDataPage{Records: records, Window: w}, nil
}

func buildFilter(q FinancialDataQuery) (models.PriceFilter, error) {
	var f models.PriceFilter

	if v := strings.TrimSpace(q.StartDate); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, invalid("start_date must be in the format YYYY-MM-DD")
		}
		f.StartDate = &d
	}
	if v := strings.TrimSpace(q.EndDate); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, invalid("end_date must be in the format YYYY-MM-DD")
		}
		f.EndDate = &d
	}
	if sym := NormalizeSymbol(q.Symbol); sym != "" {
		f.Symbol = &sym
	}
	return f, nil
}

// positiveInt parses raw, falling back to def when raw is blank.
func positiveInt(raw string, def int, errInvalid error) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid(errInvalid.Error())
	}
	return n, nil
}
