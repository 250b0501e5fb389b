package handler

import (
	"net/http"
	"time"

	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth       service.AuthService
	guard      *middleware.Authenticator
	loginLimit gin.HandlerFunc
}

// NewAuthHandler wires the session endpoints. loginLimit guards register and
// login against credential stuffing.
func NewAuthHandler(auth service.AuthService, guard *middleware.Authenticator, loginLimit gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{auth: auth, guard: guard, loginLimit: orNext(loginLimit)}
}

func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.POST("/register", h.loginLimit, h.Register)
	auth.POST("/login", h.loginLimit, h.Login)
	auth.POST("/logout", h.guard.OptionalAuth(), h.Logout)
	auth.GET("/me", h.guard.RequireAuth(), h.Me)
}

// Register creates a customer account and signs it in
// @Summary      Register
// @Description  Creates a credentials account with role user and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Account"
// @Success      201      {object}  response.Response{data=service.SessionResponse}
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.guard.SetSessionCookie(c, session.Token, time.Duration(session.ExpiresIn)*time.Second)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, session))
}

// Login authenticates with email and password
// @Summary      Login
// @Description  Verifies credentials and sets the access_token cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.SessionResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.guard.SetSessionCookie(c, session.Token, time.Duration(session.ExpiresIn)*time.Second)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// Logout revokes the current token and clears the cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.auth.Logout(ctx, middleware.CurrentClaims(c)); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "token revocation failed", "error", err)
	}
	h.guard.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Deconectat"}))
}

// Me returns the signed-in account
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
