package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds the page and limit requested through the query string
type Params struct {
	Page  int
	Limit int
}

// Parse reads ?page and ?limit, falling back to defaultLimit when limit is
// absent or malformed. Limits above MaxLimit are clamped.
func Parse(c *gin.Context, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset is the number of rows to skip for this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}
