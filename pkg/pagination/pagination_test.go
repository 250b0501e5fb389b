package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parse(query string, def int) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c, def)
}

func TestParse(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: 20}, parse("", 0))
	assert.Equal(t, Params{Page: 1, Limit: 50}, parse("", 50))
	assert.Equal(t, Params{Page: 3, Limit: 10}, parse("page=3&limit=10", 50))
	assert.Equal(t, Params{Page: 1, Limit: 50}, parse("page=-2&limit=abc", 50))
	assert.Equal(t, Params{Page: 2, Limit: MaxLimit}, parse("page=2&limit=1000", 20))
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
}
