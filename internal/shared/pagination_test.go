package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 20, p.Limit)
	require.Equal(t, 45, p.Total)
	require.Equal(t, 3, p.TotalPages)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 5)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.Limit)
	require.Equal(t, 1, p.TotalPages)
}

func TestPageParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/clients?page=3&limit=50", nil)
	page, limit := PageParams(r, 20, 100)
	require.Equal(t, 3, page)
	require.Equal(t, 50, limit)
}

func TestPageParamsCapsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/clients?limit=9999", nil)
	page, limit := PageParams(r, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 100, limit)
}

func TestPageParamsIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/clients?page=abc&limit=-1", nil)
	page, limit := PageParams(r, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 20, limit)
}

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Offset(1, 20))
	require.Equal(t, 40, Offset(3, 20))
	require.Equal(t, 0, Offset(0, 20))
}
