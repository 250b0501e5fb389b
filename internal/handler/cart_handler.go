package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	carts service.CartService
	guard *middleware.Authenticator
}

func NewCartHandler(carts service.CartService, guard *middleware.Authenticator) *CartHandler {
	return &CartHandler{carts: carts, guard: guard}
}

func (h *CartHandler) RegisterRoutes(api *gin.RouterGroup) {
	cart := api.Group("/cart", h.guard.RequireAuth())
	{
		cart.GET("", h.Get)
		cart.POST("", h.Add)
		cart.DELETE("", h.Clear)
		cart.PATCH("/:id", h.UpdateQuantity)
		cart.DELETE("/:id", h.Remove)
	}
}

// Get godoc
// @Summary      Current cart
// @Description  Cart lines with line totals, subtotal, shipping and total
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.CartResponse}
// @Failure      401  {object}  response.Response
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), caller(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// Add godoc
// @Summary      Add to cart
// @Description  Adds quantity of a product; an existing line is incremented in place
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AddToCartRequest  true  "Line"
// @Success      200      {object}  response.Response{data=service.CartResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /cart [post]
func (h *CartHandler) Add(c *gin.Context) {
	var req service.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.carts.Add(c.Request.Context(), caller(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// UpdateQuantity godoc
// @Summary      Set line quantity
// @Description  A quantity of zero or less removes the line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Cart item ID"
// @Param        payload  body      service.UpdateCartItemRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=service.CartResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /cart/{id} [patch]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.carts.UpdateQuantity(c.Request.Context(), caller(c).UserID, id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// Remove godoc
// @Summary      Remove cart line
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cart item ID"
// @Success      200  {object}  response.Response{data=service.CartResponse}
// @Failure      404  {object}  response.Response
// @Router       /cart/{id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cart, err := h.carts.Remove(c.Request.Context(), caller(c).UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cart))
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), caller(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Coșul a fost golit"}))
}
