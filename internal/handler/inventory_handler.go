package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventory service.InventoryService
	guard     *middleware.Authenticator
}

func NewInventoryHandler(inventory service.InventoryService, guard *middleware.Authenticator) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, guard: guard}
}

func (h *InventoryHandler) RegisterRoutes(api *gin.RouterGroup) {
	stock := api.Group("/admin/products", h.guard.RequireStaff())
	{
		stock.POST("/:id/stock", h.AdjustStock)
		stock.GET("/:id/movements", h.Movements)
	}
}

// AdjustStock godoc
// @Summary      Adjust product stock
// @Description  Adds or removes units outside of checkout, e.g. a supplier delivery or broken jars. Stock never drops below zero.
// @Tags         admin-inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Product ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Stock delta"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/products/{id}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.inventory.AdjustStock(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// Movements godoc
// @Summary      Stock history of a product
// @Tags         admin-inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.StockMovement}}
// @Failure      404    {object}  response.Response
// @Router       /admin/products/{id}/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p := pagination.Parse(c, 20)
	movements, total, err := h.inventory.Movements(c.Request.Context(), caller(c), id, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, movements, total, p.Page, p.Limit))
}
