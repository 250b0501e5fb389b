package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type TestimonialHandler struct {
	testimonials service.TestimonialService
	guard        *middleware.Authenticator
}

func NewTestimonialHandler(testimonials service.TestimonialService, guard *middleware.Authenticator) *TestimonialHandler {
	return &TestimonialHandler{testimonials: testimonials, guard: guard}
}

func (h *TestimonialHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/testimonials", h.ListVisible)

	admin := api.Group("/admin/testimonials", h.guard.RequireStaff())
	{
		admin.GET("", h.ListAll)
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

// ListVisible godoc
// @Summary      Testimonials
// @Tags         testimonials
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Testimonial}
// @Router       /testimonials [get]
func (h *TestimonialHandler) ListVisible(c *gin.Context) {
	list, err := h.testimonials.ListVisible(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}

// ListAll godoc
// @Summary      All testimonials including hidden ones
// @Tags         admin-testimonials
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Testimonial}
// @Router       /admin/testimonials [get]
func (h *TestimonialHandler) ListAll(c *gin.Context) {
	list, err := h.testimonials.ListAll(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}

// Create godoc
// @Summary      Create testimonial
// @Tags         admin-testimonials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TestimonialRequest  true  "Testimonial"
// @Success      201      {object}  response.Response{data=model.Testimonial}
// @Failure      400      {object}  response.Response
// @Router       /admin/testimonials [post]
func (h *TestimonialHandler) Create(c *gin.Context) {
	var req service.TestimonialRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.testimonials.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, t))
}

// Update godoc
// @Summary      Update testimonial
// @Tags         admin-testimonials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Testimonial ID"
// @Param        payload  body      service.TestimonialRequest  true  "Testimonial"
// @Success      200      {object}  response.Response{data=model.Testimonial}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/testimonials/{id} [put]
func (h *TestimonialHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.TestimonialRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.testimonials.Update(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, t))
}

// Delete godoc
// @Summary      Delete testimonial
// @Tags         admin-testimonials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Testimonial ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/testimonials/{id} [delete]
func (h *TestimonialHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.testimonials.Delete(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Testimonialul a fost șters"}))
}
