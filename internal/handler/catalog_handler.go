package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog service.CatalogService
	guard   *middleware.Authenticator
}

func NewCatalogHandler(catalog service.CatalogService, guard *middleware.Authenticator) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, guard: guard}
}

func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/categories", h.ListCategories)
	api.GET("/categories/:slug", h.GetCategory)
	api.GET("/products", h.ListProducts)
	api.GET("/products/:slug", h.GetProduct)

	admin := api.Group("/admin", h.guard.RequireStaff())
	{
		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)
	}
}

// ListCategories godoc
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Category}
// @Router       /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// GetCategory godoc
// @Summary      Get category by slug
// @Tags         catalog
// @Produce      json
// @Param        slug  path      string  true  "Category slug"
// @Success      200   {object}  response.Response{data=model.Category}
// @Failure      404   {object}  response.Response
// @Router       /categories/{slug} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// ListProducts godoc
// @Summary      List products
// @Description  Filters by category slug, free-text search and availability
// @Tags         catalog
// @Produce      json
// @Param        category  query     string  false  "Category slug"
// @Param        search    query     string  false  "Search term"
// @Param        inStock   query     bool    false  "Only products in stock"
// @Param        page      query     int     false  "Page"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c, 24)
	products, total, err := h.catalog.ListProducts(c.Request.Context(), service.ProductQuery{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		InStock:      c.Query("inStock") == "true",
		Page:         p.Page,
		Limit:        p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, products, total, p.Page, p.Limit))
}

// GetProduct godoc
// @Summary      Get product by slug or id
// @Tags         catalog
// @Produce      json
// @Param        slug  path      string  true  "Product slug or id"
// @Success      200   {object}  response.Response{data=model.Product}
// @Failure      404   {object}  response.Response
// @Router       /products/{slug} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateCategory godoc
// @Summary      Create category
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      201      {object}  response.Response{data=model.Category}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /admin/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory godoc
// @Summary      Update category
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      200      {object}  response.Response{data=model.Category}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory godoc
// @Summary      Delete category
// @Description  Fails with 400 while products still reference the category
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Categoria a fost ștearsă"}))
}

// CreateProduct godoc
// @Summary      Create product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProductRequest  true  "Product"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /admin/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct godoc
// @Summary      Update product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Product"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct godoc
// @Summary      Delete product
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Produsul a fost șters"}))
}
