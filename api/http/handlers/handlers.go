// Package handlers adapts the service façade (C10) to gin request
// handlers: one handler per typed method in §6, each parsing its query
// parameters, calling the façade, and translating the result (or any
// AppError) through pkg/response the same way the teacher's query
// handlers do.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"data-collection-system/internal/model"
	"data-collection-system/internal/service"
	"data-collection-system/pkg/errors"
	"data-collection-system/pkg/response"
)

// Handler wraps the façade the routing layer delegates every request to.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func queryInt(c *gin.Context, name string, required bool) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			response.BadRequest(c, "missing required parameter: "+name)
			return 0, false
		}
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(c, "invalid integer parameter: "+name)
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) bool {
	raw := c.Query(name)
	return raw == "1" || raw == "true"
}

// GetFinancialStatement handles GET /statements/:stock_id?year=&quarter=&report_type=&force_refresh=
func (h *Handler) GetFinancialStatement(c *gin.Context) {
	year, ok := queryInt(c, "year", true)
	if !ok {
		return
	}
	quarter, ok := queryInt(c, "quarter", true)
	if !ok {
		return
	}
	reportType := c.Query("report_type")
	if reportType == "" {
		response.BadRequest(c, "missing required parameter: report_type")
		return
	}

	key := model.StockPeriodKey{
		StockID:    c.Param("stock_id"),
		Year:       year,
		Quarter:    quarter,
		ReportType: model.ReportType(reportType),
	}
	stmt, err := h.svc.GetFinancialStatement(c.Request.Context(), key, queryBool(c, "force_refresh"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stmt)
}

// DownloadXBRLZip handles GET /statements/:stock_id/xbrl?year=&quarter=
func (h *Handler) DownloadXBRLZip(c *gin.Context) {
	year, ok := queryInt(c, "year", true)
	if !ok {
		return
	}
	quarter, ok := queryInt(c, "quarter", true)
	if !ok {
		return
	}
	data, err := h.svc.DownloadXBRLZip(c.Request.Context(), c.Param("stock_id"), year, quarter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(200, "application/zip", data)
}

// GetMonthlyRevenue handles GET /revenue?market=&year=&month=&force_refresh=
func (h *Handler) GetMonthlyRevenue(c *gin.Context) {
	market := c.Query("market")
	if market == "" {
		response.BadRequest(c, "missing required parameter: market")
		return
	}
	year, ok := queryInt(c, "year", true)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", true)
	if !ok {
		return
	}
	rows, err := h.svc.GetMonthlyRevenue(c.Request.Context(), market, year, month, queryBool(c, "force_refresh"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GetSharePledging handles GET /pledges/:stock_id?year=&month=&market=&force_refresh=
func (h *Handler) GetSharePledging(c *gin.Context) {
	year, ok := queryInt(c, "year", true)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", true)
	if !ok {
		return
	}
	rows, err := h.svc.GetSharePledging(c.Request.Context(), c.Param("stock_id"), year, month, c.Query("market"), queryBool(c, "force_refresh"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GetDividend handles GET /dividends/:stock_id?year_start=&year_end=&query_type=&force_refresh=
func (h *Handler) GetDividend(c *gin.Context) {
	yearStart, ok := queryInt(c, "year_start", true)
	if !ok {
		return
	}
	yearEnd, ok := queryInt(c, "year_end", true)
	if !ok {
		return
	}
	queryType, ok := queryInt(c, "query_type", true)
	if !ok {
		return
	}
	rows, err := h.svc.GetDividend(c.Request.Context(), c.Param("stock_id"), yearStart, yearEnd, queryType, queryBool(c, "force_refresh"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GetDisclosure handles GET /disclosures/:stock_id?year=&month=&market=&force_refresh=
func (h *Handler) GetDisclosure(c *gin.Context) {
	year, ok := queryInt(c, "year", true)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", true)
	if !ok {
		return
	}
	result, err := h.svc.GetDisclosure(c.Request.Context(), c.Param("stock_id"), year, month, c.Query("market"), queryBool(c, "force_refresh"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result == nil {
		response.Error(c, errors.New(errors.ErrCodeDataNotFound, "no disclosure data for the given period"))
		return
	}
	response.Success(c, result)
}
