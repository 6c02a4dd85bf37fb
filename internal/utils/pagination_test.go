// internal/utils/pagination_test.go
package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	params := GetPaginationParams(testContext(""))

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestGetPaginationParamsClamping(t *testing.T) {
	params := GetPaginationParams(testContext("page=0&limit=500&order=sideways"))

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestOffset(t *testing.T) {
	params := PaginationParams{Page: 3, Limit: 10}
	assert.Equal(t, 20, params.Offset())
}

func TestCreatePaginationResultPageTotal(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		limit     int
		pageTotal int
	}{
		{"exact pages", 20, 10, 2},
		{"partial last page", 23, 10, 3},
		{"single page", 5, 10, 1},
		{"empty never below one", 0, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CreatePaginationResult(nil, tt.total, PaginationParams{Page: 1, Limit: tt.limit})
			assert.Equal(t, tt.pageTotal, result.PageTotal)
			assert.Equal(t, tt.limit, result.PageSize)
			assert.Equal(t, 1, result.Page)
		})
	}
}
