package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users service.UserService
	guard *middleware.Authenticator
}

func NewUserHandler(users service.UserService, guard *middleware.Authenticator) *UserHandler {
	return &UserHandler{users: users, guard: guard}
}

func (h *UserHandler) RegisterRoutes(api *gin.RouterGroup) {
	users := api.Group("/admin/users", h.guard.RequireAdmin())
	{
		users.GET("", h.ListUsers)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.RevokeRole)
	}
}

// ListUsers godoc
// @Summary      List users
// @Description  isSuperAdmin is resolved from the configured allowlist at read time
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Email or name"
// @Param        role    query     string  false  "user, moderator or admin"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=response.Page}
// @Failure      403     {object}  response.Response
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c, 20)
	users, total, err := h.users.ListUsers(c.Request.Context(), caller(c), service.UserQuery{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, users, total, p.Page, p.Limit))
}

// UpdateUser godoc
// @Summary      Change role or block state
// @Description  Super admin accounts and the caller's own account cannot be modified
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateUser(c.Request.Context(), caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// RevokeRole godoc
// @Summary      Revoke role
// @Description  Demotes the account to user
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) RevokeRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.RevokeRole(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
