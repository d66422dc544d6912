package dto

import (
	"github.com/guregu/null/v6"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/pagination"
)

const dateLayout = "2006-01-02"

// Info carries the error message of an envelope. Error is "" on success.
type Info struct {
	Error string `json:"error" example:""`
}

// Pagination is the paging block of GET /financial_data.
type Pagination struct {
	Count int64 `json:"count" example:"12"`
	Page  int   `json:"page" example:"1"`
	Limit int   `json:"limit" example:"5"`
	Pages int   `json:"pages" example:"3"`
}

// FinancialData is the API shape of one price record.
//
// Prices are rendered as fixed two-decimal strings so no precision is lost in transit.
type FinancialData struct {
	ID         int64  `json:"id" example:"1"`
	Symbol     string `json:"symbol" example:"AAPL"`
	Date       string `json:"date" example:"2023-03-10"`
	OpenPrice  string `json:"open_price" example:"150.21"`
	ClosePrice string `json:"close_price" example:"148.50"`
	Volume     int64  `json:"volume" example:"68524400"`
}

// FinancialDataResponse is the envelope returned by GET /financial_data.
//
// On error Data is an empty list and Pagination an empty object.
type FinancialDataResponse struct {
	Data       []FinancialData `json:"data"`
	Pagination any             `json:"pagination" swaggertype:"object"`
	Info       Info            `json:"info"`
}

// StatisticsData is the payload of a successful GET /statistics.
type StatisticsData struct {
	StartDate              string     `json:"start_date" example:"2023-01-01"`
	EndDate                string     `json:"end_date" example:"2023-01-31"`
	Symbol                 string     `json:"symbol" example:"AAPL"`
	AverageDailyOpenPrice  null.Float `json:"average_daily_open_price" swaggertype:"number" example:"150.12"`
	AverageDailyClosePrice null.Float `json:"average_daily_close_price" swaggertype:"number" example:"151.03"`
	AverageDailyVolume     null.Int   `json:"average_daily_volume" swaggertype:"integer" example:"1502340000"`
}

// StatisticsResponse is the envelope returned by GET /statistics.
//
// On error Data is an empty object.
type StatisticsResponse struct {
	Data any  `json:"data" swaggertype:"object"`
	Info Info `json:"info"`
}

// NewFinancialData maps a stored record to its API shape.
func NewFinancialData(r models.PriceRecord) FinancialData {
	return FinancialData{
		ID:         r.ID,
		Symbol:     r.Symbol,
		Date:       r.Date.Format(dateLayout),
		OpenPrice:  r.OpenPrice.StringFixed(2),
		ClosePrice: r.ClosePrice.StringFixed(2),
		Volume:     r.Volume,
	}
}

// NewFinancialDataResponse builds the success envelope for one page of records.
func NewFinancialDataResponse(records []models.PriceRecord, w pagination.Window) FinancialDataResponse {
	data := make([]FinancialData, 0, len(records))
	for _, r := range records {
		data = append(data, NewFinancialData(r))
	}
	return FinancialDataResponse{
		Data: data,
		Pagination: Pagination{
			Count: w.Count,
			Page:  w.Page,
			Limit: w.Limit,
			Pages: w.Pages,
		},
		Info: Info{Error: ""},
	}
}

// NewFinancialDataError builds the failure envelope for GET /financial_data.
func NewFinancialDataError(message string) FinancialDataResponse {
	return FinancialDataResponse{
		Data:       []FinancialData{},
		Pagination: struct{}{},
		Info:       Info{Error: message},
	}
}

// NewStatisticsResponse builds the success envelope for GET /statistics.
func NewStatisticsResponse(s models.Statistics) StatisticsResponse {
	return StatisticsResponse{
		Data: StatisticsData{
			StartDate:              s.StartDate.Format(dateLayout),
			EndDate:                s.EndDate.Format(dateLayout),
			Symbol:                 s.Symbol,
			AverageDailyOpenPrice:  s.AverageOpenPrice,
			AverageDailyClosePrice: s.AverageClosePrice,
			AverageDailyVolume:     s.TotalVolume,
		},
		Info: Info{Error: ""},
	}
}

// NewStatisticsError builds the failure envelope for GET /statistics.
func NewStatisticsError(message string) StatisticsResponse {
	return StatisticsResponse{
		Data: struct{}{},
		Info: Info{Error: message},
	}
}
