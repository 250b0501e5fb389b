package handler

import (
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	reportDateLayout    = "2006-01-02"
	defaultReportWindow = 30 * 24 * time.Hour
)

type StatisticsHandler struct {
	stats service.StatisticsService
	guard *middleware.Authenticator
}

func NewStatisticsHandler(stats service.StatisticsService, guard *middleware.Authenticator) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, guard: guard}
}

func (h *StatisticsHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/admin/statistics", h.guard.RequireStaff(), h.SalesReport)
}

// SalesReport godoc
// @Summary      Sales report
// @Description  Orders per status, revenue without cancelled orders, best sellers and low stock. Defaults to the last 30 days; "to" is inclusive.
// @Tags         admin-statistics
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=model.SalesReport}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /admin/statistics [get]
func (h *StatisticsHandler) SalesReport(c *gin.Context) {
	now := time.Now()
	to := now
	from := now.Add(-defaultReportWindow)

	if raw := c.Query("to"); raw != "" {
		day, err := time.ParseInLocation(reportDateLayout, raw, time.Local)
		if err != nil {
			badRequest(c, "Data de sfârșit trebuie să aibă formatul AAAA-LL-ZZ")
			return
		}
		to = day.AddDate(0, 0, 1)
	}
	if raw := c.Query("from"); raw != "" {
		day, err := time.ParseInLocation(reportDateLayout, raw, time.Local)
		if err != nil {
			badRequest(c, "Data de început trebuie să aibă formatul AAAA-LL-ZZ")
			return
		}
		from = day
	}

	report, err := h.stats.SalesReport(c.Request.Context(), caller(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
