package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"

	"github.com/gin-gonic/gin"
)

func contextoConQuery(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestCreatePaginatedResponse(t *testing.T) {
	casos := []struct {
		nombre     string
		query      string
		totalRows  int64
		page       int
		pageSize   int
		totalPages int
	}{
		{"valores por defecto", "", 45, 1, DefaultPageSize, 3},
		{"página explícita", "page=2&pageSize=10", 45, 2, 10, 5},
		{"pageSize acotado al máximo", "pageSize=500", 45, 1, MaxPageSize, 1},
		{"página inválida cae a 1", "page=-3", 45, 1, DefaultPageSize, 3},
		{"sin filas", "", 0, 1, DefaultPageSize, 0},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			ctx := contextoConQuery(t, c.query)
			resp := CreatePaginatedResponse(ctx, []string{}, c.totalRows)
			if resp.CurrentPage != c.page {
				t.Errorf("CurrentPage = %d, se esperaba %d", resp.CurrentPage, c.page)
			}
			if resp.PageSize != c.pageSize {
				t.Errorf("PageSize = %d, se esperaba %d", resp.PageSize, c.pageSize)
			}
			if resp.TotalPages != c.totalPages {
				t.Errorf("TotalPages = %d, se esperaba %d", resp.TotalPages, c.totalPages)
			}
			if resp.TotalRows != c.totalRows {
				t.Errorf("TotalRows = %d, se esperaba %d", resp.TotalRows, c.totalRows)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, apperr.Conflict("ya hay un paso en reapertura"))
	if w.Code != 409 {
		t.Errorf("status = %d, se esperaba 409", w.Code)
	}
}
