package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHandler struct {
	orders        service.OrderService
	guard         *middleware.Authenticator
	checkoutLimit gin.HandlerFunc
}

func NewOrderHandler(orders service.OrderService, guard *middleware.Authenticator, checkoutLimit gin.HandlerFunc) *OrderHandler {
	return &OrderHandler{orders: orders, guard: guard, checkoutLimit: orNext(checkoutLimit)}
}

func (h *OrderHandler) RegisterRoutes(api *gin.RouterGroup) {
	orders := api.Group("/orders", h.guard.RequireAuth())
	{
		orders.GET("", h.ListMine)
		orders.POST("", h.checkoutLimit, h.PlaceOrder)
		orders.GET("/:id", h.GetMine)
	}

	admin := api.Group("/admin/orders", h.guard.RequireStaff())
	{
		admin.GET("", h.List)
		admin.GET("/export", h.Export)
		admin.GET("/:id", h.Get)
		admin.PATCH("/:id", h.UpdateStatus)
	}
}

// PlaceOrder godoc
// @Summary      Checkout
// @Description  Turns the cart into an order atomically: stock is re-checked and decremented, the cart is cleared
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CheckoutRequest  true  "Shipping and payment"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req service.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.PlaceOrder(c.Request.Context(), caller(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListMine godoc
// @Summary      My orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Order}
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orders.ListMine(c.Request.Context(), caller(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, orders))
}

// GetMine godoc
// @Summary      One of my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetMine(c.Request.Context(), caller(c).UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// List godoc
// @Summary      All orders
// @Tags         admin-orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Order status"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=response.Page}
// @Failure      403     {object}  response.Response
// @Router       /admin/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	p := pagination.Parse(c, 20)
	orders, total, err := h.orders.List(c.Request.Context(), service.OrderQuery{
		Status: c.Query("status"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, orders, total, p.Page, p.Limit))
}

// Get godoc
// @Summary      Order details
// @Tags         admin-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateStatus godoc
// @Summary      Change order status
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/orders/{id} [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), caller(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Export godoc
// @Summary      Export orders
// @Description  Downloads the orders as an xlsx workbook
// @Tags         admin-orders
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status  query  string  false  "Order status"
// @Success      200
// @Router       /admin/orders/export [get]
func (h *OrderHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.orders.Export(c.Request.Context(), c.Query("status"), &buf); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("comenzi-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
