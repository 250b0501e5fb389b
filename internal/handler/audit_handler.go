package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	audit service.AuditService
	guard *middleware.Authenticator
}

func NewAuditHandler(audit service.AuditService, guard *middleware.Authenticator) *AuditHandler {
	return &AuditHandler{audit: audit, guard: guard}
}

func (h *AuditHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/admin/audit-logs", h.guard.RequireAdmin(), h.List)
}

// List godoc
// @Summary      Back-office change history
// @Tags         admin-audit
// @Produce      json
// @Security     BearerAuth
// @Param        action    query     string  false  "Action, e.g. UPDATE_ORDER_STATUS"
// @Param        entityId  query     string  false  "Entity ID"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  response.Response{data=response.Page{items=[]service.AuditLogResponse}}
// @Failure      403       {object}  response.Response
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	p := pagination.Parse(c, 20)
	logs, total, err := h.audit.List(c.Request.Context(), caller(c), service.AuditQuery{
		Action:   c.Query("action"),
		EntityID: c.Query("entityId"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, logs, total, p.Page, p.Limit))
}
