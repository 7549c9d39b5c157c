package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/tenants?"+query, nil)
	return c
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", DefaultPage, DefaultPageSize},
		{"page=3&page_size=5", 3, 5},
		{"page=0&page_size=-1", DefaultPage, DefaultPageSize},
		{"page=abc&page_size=1000", DefaultPage, MaxPageSize},
	}
	for _, tt := range tests {
		p := ParsePageParams(contextWithQuery(tt.query))
		assert.Equal(t, tt.page, p.Page, tt.query)
		assert.Equal(t, tt.pageSize, p.PageSize, tt.query)
	}
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(contextWithQuery("status=active&keyword=%20shop%20"))
	assert.Equal(t, "active", f.Status)
	assert.Equal(t, "shop", f.Keyword)
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	empty := NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestPageParamsOffset(t *testing.T) {
	p := Normalize(3, 20)
	assert.Equal(t, 40, p.GetOffset())
	assert.Equal(t, 20, p.GetLimit())
}
