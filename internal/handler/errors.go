package handler

import (
	"errors"
	"net/http"

	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const internalErrorMessage = "A apărut o eroare internă. Vă rugăm încercați din nou."

// respondError maps service errors onto the response envelope. Unknown
// errors are logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var stock *service.InsufficientStockError
	if errors.As(err, &stock) {
		c.JSON(http.StatusBadRequest, response.ErrorWithDetails(http.StatusBadRequest, stock.Error(), gin.H{
			"productId":   stock.ProductID,
			"productName": stock.ProductName,
			"requested":   stock.Requested,
			"available":   stock.Available,
		}))
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrEmptyCart):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed", "route", c.FullPath(), "error", err)
		c.JSON(status, response.Error(status, internalErrorMessage))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, message))
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "Date invalide: "+err.Error())
		return false
	}
	return true
}

// pathID parses the uuid path parameter name and answers 400 on failure.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Identificator invalid")
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the identity set by the guard. Routes using it are always
// mounted behind one of the Require* middlewares.
func caller(c *gin.Context) service.Identity {
	identity, _ := middleware.CurrentIdentity(c)
	return identity
}
