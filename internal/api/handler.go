package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/econpulse/internal/domain/dto"
	"github.com/guttosm/econpulse/internal/domain/models"
	"github.com/guttosm/econpulse/internal/service"
)

// Handler provides HTTP handlers for the indicator read endpoints.
//
// Responsibilities:
//   - Validate path and query parameters
//   - Call the IndicatorService
//   - Translate domain results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.IndicatorService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.IndicatorService): read-side service over stored indicators.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.IndicatorService) *Handler {
	return &Handler{svc: svc}
}

// ListIndicators handles GET /api/v1/indicators.
//
// ListIndicators godoc
// @Summary      List indicators
// @Description  Returns every indicator with its most recent value (null when nothing was loaded yet)
// @Tags         indicators
// @Produce      json
// @Success      200  {array}   dto.IndicatorResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/indicators [get]
func (h *Handler) ListIndicators(c *gin.Context) {
	values, err := h.svc.ListIndicators(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to list indicators", err))
		return
	}

	resp := make([]dto.IndicatorResponse, 0, len(values))
	for _, v := range values {
		resp = append(resp, toIndicatorResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

// GetIndicator handles GET /api/v1/indicators/{code}.
//
// GetIndicator godoc
// @Summary      Get indicator
// @Description  Returns one indicator with its most recent value
// @Tags         indicators
// @Produce      json
// @Param        code  path      string  true  "Indicator code" example(dolar)
// @Success      200   {object}  dto.IndicatorResponse  "Success"
// @Failure      404   {object}  dto.ErrorResponse      "Not Found"
// @Failure      500   {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/indicators/{code} [get]
func (h *Handler) GetIndicator(c *gin.Context) {
	code := normalizeCode(c.Param("code"))

	lv, err := h.svc.GetIndicator(c.Request.Context(), code)
	switch {
	case errors.Is(err, service.ErrIndicatorNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("indicator not found", nil))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch indicator", err))
		return
	}

	c.JSON(http.StatusOK, toIndicatorResponse(*lv))
}

// GetHistory handles GET /api/v1/indicators/{code}/history.
//
// Query Parameters:
//   - days (int, optional, default 30): look-back window from today.
//   - limit (int, optional, default 100, max 1000): maximum number of values.
//
// GetHistory godoc
// @Summary      Get indicator history
// @Description  Returns stored values since today minus `days`, newest first
// @Tags         indicators
// @Produce      json
// @Param        code   path      string  true   "Indicator code" example(dolar)
// @Param        days   query     int     false  "Look-back window in days" default(30)
// @Param        limit  query     int     false  "Maximum number of values (capped at 1000)" default(100)
// @Success      200    {object}  dto.HistoryResponse  "Success"
// @Failure      400    {object}  dto.ErrorResponse    "Bad Request"
// @Failure      404    {object}  dto.ErrorResponse    "Not Found"
// @Failure      500    {object}  dto.ErrorResponse    "Internal Error"
// @Router       /api/v1/indicators/{code}/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	code := normalizeCode(c.Param("code"))

	days, err := intQuery(c, "days", service.DefaultHistoryDays)
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid days, expected a non-negative integer", err))
		return
	}
	limit, err := intQuery(c, "limit", service.DefaultHistoryLimit)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid limit, expected a positive integer", err))
		return
	}

	hist, err := h.svc.GetHistory(c.Request.Context(), code, days, limit)
	switch {
	case errors.Is(err, service.ErrIndicatorNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("indicator not found", nil))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch history", err))
		return
	}

	resp := dto.HistoryResponse{
		Indicator: dto.IndicatorRef{Code: hist.Indicator.Code, Name: hist.Indicator.Name, Unit: hist.Indicator.Unit},
		Values:    make([]dto.HistoryPoint, 0, len(hist.Values)),
	}
	for _, v := range hist.Values {
		resp.Values = append(resp.Values, dto.HistoryPoint{Value: v.Value, Date: v.Date})
	}
	resp.Count = len(resp.Values)
	c.JSON(http.StatusOK, resp)
}

// GetLatestStats handles GET /api/v1/stats/latest.
//
// GetLatestStats godoc
// @Summary      Latest values
// @Description  Returns the newest value of every indicator that has data. Cached briefly.
// @Tags         stats
// @Produce      json
// @Success      200  {object}  dto.LatestStatsResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse        "Internal Error"
// @Router       /api/v1/stats/latest [get]
func (h *Handler) GetLatestStats(c *gin.Context) {
	stats, err := h.svc.LatestStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch latest stats", err))
		return
	}

	resp := dto.LatestStatsResponse{
		Timestamp:  stats.Timestamp,
		Indicators: make([]dto.LatestStat, 0, len(stats.Values)),
	}
	for _, v := range stats.Values {
		if v.Value == nil || v.Date == nil {
			continue
		}
		resp.Indicators = append(resp.Indicators, dto.LatestStat{
			Code: v.Code, Name: v.Name, Unit: v.Unit, Value: *v.Value, Date: *v.Date,
		})
	}
	resp.Count = len(resp.Indicators)
	c.JSON(http.StatusOK, resp)
}

func toIndicatorResponse(v models.LatestValue) dto.IndicatorResponse {
	return dto.IndicatorResponse{
		ID:          v.ID,
		Code:        v.Code,
		Name:        v.Name,
		Unit:        v.Unit,
		LatestValue: v.Value,
		LatestDate:  v.Date,
	}
}

func normalizeCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// intQuery reads an optional integer query parameter.
func intQuery(c *gin.Context, key string, def int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
