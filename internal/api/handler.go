package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/service"
)

const (
	msgInvalidQuery        = "invalid query parameters"
	msgFinancialDataFailed = "failed to query financial data"
	msgStatisticsFailed    = "failed to compute statistics"
)

// Handler provides the HTTP handlers for the price listing and statistics endpoints.
//
// Responsibilities:
//   - Bind incoming HTTP query parameters
//   - Delegate validation and data access to the service layer
//   - Translate results and errors into the response envelopes
//
// Both endpoints answer 400 with info.error set for every anticipated failure,
// including store errors, so clients always get a valid envelope.
type Handler struct {
	financialData service.FinancialDataService
	statistics    service.StatisticsService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - financialData (service.FinancialDataService): backs GET /financial_data.
//   - statistics (service.StatisticsService): backs GET /statistics.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(financialData service.FinancialDataService, statistics service.StatisticsService) *Handler {
	return &Handler{financialData: financialData, statistics: statistics}
}

// FinancialData handles GET /financial_data requests.
//
// FinancialData godoc
// @Summary      List daily price records
// @Description  Returns stored daily records filtered by symbol and inclusive date range, ordered by date, paginated
// @Tags         financial_data
// @Produce      json
// @Param        symbol      query     string  false  "Ticker symbol" example(AAPL)
// @Param        start_date  query     string  false  "Earliest date, YYYY-MM-DD" example(2023-01-01)
// @Param        end_date    query     string  false  "Latest date, YYYY-MM-DD" example(2023-01-31)
// @Param        limit       query     int     false  "Page size" default(5)
// @Param        page        query     int     false  "1-based page number" default(1)
// @Success      200         {object}  dto.FinancialDataResponse  "Success"
// @Failure      400         {object}  dto.FinancialDataResponse  "Bad Request"
// @Router       /financial_data [get]
func (h *Handler) FinancialData(c *gin.Context) {
	var q service.FinancialDataQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewFinancialDataError(h.errorMessage(c, err, msgInvalidQuery)))
		return
	}

	page, err := h.financialData.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewFinancialDataError(h.errorMessage(c, err, msgFinancialDataFailed)))
		return
	}

	c.JSON(http.StatusOK, dto.NewFinancialDataResponse(page.Records, page.Window))
}

// Statistics handles GET /statistics requests.
//
// Statistics godoc
// @Summary      Aggregate statistics for a symbol
// @Description  Average open and close price and total volume over an inclusive date range. Aggregates are null when no record matches.
// @Tags         statistics
// @Produce      json
// @Param        start_date  query     string  true  "Range start, YYYY-MM-DD" example(2023-01-01)
// @Param        end_date    query     string  true  "Range end, YYYY-MM-DD" example(2023-01-31)
// @Param        symbol      query     string  true  "Ticker symbol" example(IBM)
// @Success      200         {object}  dto.StatisticsResponse  "Success"
// @Failure      400         {object}  dto.StatisticsResponse  "Bad Request"
// @Router       /statistics [get]
func (h *Handler) Statistics(c *gin.Context) {
	var q service.StatisticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewStatisticsError(h.errorMessage(c, err, msgInvalidQuery)))
		return
	}

	stats, err := h.statistics.Compute(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewStatisticsError(h.errorMessage(c, err, msgStatisticsFailed)))
		return
	}

	c.JSON(http.StatusOK, dto.NewStatisticsResponse(*stats))
}

// errorMessage records err on the context for the request logger and returns
// the text for info.error. Validation messages are returned as is; anything
// else is logged and replaced by fallback so driver details stay server side.
func (h *Handler) errorMessage(c *gin.Context, err error, fallback string) string {
	_ = c.Error(err)
	if service.IsValidation(err) {
		return err.Error()
	}
	logger.L().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	return fallback
}
