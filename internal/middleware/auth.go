package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/logging"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie holds the session token.
	AccessTokenCookie = "access_token"

	identityKey = "identity"
	claimsKey   = "claims"
)

// Authenticator resolves session tokens into identities for gin routes.
type Authenticator struct {
	auth          service.AuthService
	secureCookies bool
}

// NewAuthenticator builds the guard. secureCookies switches cookies to
// SameSite=None; Secure for cross-origin production front ends.
func NewAuthenticator(auth service.AuthService, secureCookies bool) *Authenticator {
	return &Authenticator{auth: auth, secureCookies: secureCookies}
}

// SetSessionCookie stores token as an HttpOnly cookie.
func (a *Authenticator) SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	a.setCookie(c, token, int(ttl.Seconds()))
}

// ClearSessionCookie expires the session cookie.
func (a *Authenticator) ClearSessionCookie(c *gin.Context) {
	a.setCookie(c, "", -1)
}

func (a *Authenticator) setCookie(c *gin.Context, value string, maxAge int) {
	if a.secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(AccessTokenCookie, value, maxAge, "/", "", a.secureCookies, true)
}

// TokenFromRequest reads the cookie first, then a Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authenticate resolves the caller and stores it in the gin context. It
// writes the failure response and returns false when the request must stop.
func (a *Authenticator) authenticate(c *gin.Context) bool {
	token := TokenFromRequest(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, service.ErrUnauthorized.Error()))
		return false
	}

	ctx := c.Request.Context()
	identity, claims, err := a.auth.Authenticate(ctx, token)
	if err != nil {
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, service.ErrForbidden):
			status = http.StatusForbidden
		case !errors.Is(err, service.ErrUnauthorized):
			logging.FromContext(ctx).ErrorContext(ctx, "authentication failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "A apărut o eroare internă"))
			return false
		}
		c.AbortWithStatusJSON(status, response.Error(status, err.Error()))
		return false
	}

	c.Set(identityKey, identity)
	c.Set(claimsKey, claims)
	logger := logging.FromContext(ctx).With("user_id", identity.UserID.String(), "caller", identity.Class())
	c.Request = c.Request.WithContext(logging.ContextWithLogger(ctx, logger))
	return true
}

func (a *Authenticator) require(allowed func(service.Identity) bool, denied string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		if allowed != nil {
			identity, _ := CurrentIdentity(c)
			if !allowed(identity) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, denied))
				return
			}
		}
		c.Next()
	}
}

// RequireAuth admits any signed-in, non-blocked caller.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return a.require(nil, "")
}

// RequireStaff admits moderators, admins and super admins.
func (a *Authenticator) RequireStaff() gin.HandlerFunc {
	return a.require(service.Identity.IsStaff, "Acces rezervat echipei magazinului")
}

func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return a.require(service.Identity.IsAdmin, "Acces rezervat administratorilor")
}

func (a *Authenticator) RequireSuperAdmin() gin.HandlerFunc {
	return a.require(func(i service.Identity) bool { return i.SuperAdmin }, "Acces rezervat super administratorilor")
}

// OptionalAuth resolves the caller when a valid token is present and
// otherwise continues anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c); token != "" {
			if identity, claims, err := a.auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(identityKey, identity)
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller stored by the guard.
func CurrentIdentity(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return service.Identity{}, false
	}
	identity, ok := v.(service.Identity)
	return identity, ok
}

// CurrentClaims returns the verified token claims, if any.
func CurrentClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

// UserKey keys rate limits by user id, falling back to the client IP.
func UserKey(c *gin.Context) string {
	if identity, ok := CurrentIdentity(c); ok {
		return "user:" + identity.UserID.String()
	}
	return "ip:" + c.ClientIP()
}
