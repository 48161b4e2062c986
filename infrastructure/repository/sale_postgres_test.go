package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

func TestFilterConditions(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   domain.SaleFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "Filtro vazio não gera condições",
			filter:   domain.SaleFilter{},
			wantSQL:  "SELECT COUNT(*) FROM sales",
			wantArgs: nil,
		},
		{
			name:     "Texto usa ILIKE com curingas escapados",
			filter:   domain.SaleFilter{Seller: "50%_off"},
			wantSQL:  "SELECT COUNT(*) FROM sales WHERE (seller_name ILIKE $1)",
			wantArgs: []interface{}{`%50\%\_off%`},
		},
		{
			name:     "Status e data inicial",
			filter:   domain.SaleFilter{Status: domain.SaleStatusShipped, StartDate: &start},
			wantSQL:  "SELECT COUNT(*) FROM sales WHERE (status = $1 AND sale_date >= $2)",
			wantArgs: []interface{}{"shipped", start},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := withFilter(psql.Select("COUNT(*)").From(salesTable), tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, query)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOrderByClause(t *testing.T) {
	assert.Equal(t, []string{"price_amount ASC", "id ASC"}, orderByClause(domain.SortSpec{Field: domain.SortByPriceAmount, Order: domain.SortAsc}))
	assert.Equal(t, []string{"sale_date DESC", "id ASC"}, orderByClause(domain.SortSpec{}))
}

func TestSaleValuesFollowColumnOrder(t *testing.T) {
	sale := newTestSale("Ali", "Istanbul", nil, 10, 1, time.Now())
	values := saleValues("id-1", sale)

	require.Len(t, values, len(saleColumnList))
	assert.Equal(t, "id-1", values[0])
	assert.Equal(t, "Ali", values[1])
	assert.Nil(t, values[14])
}
