package selling

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

var testLimits = QueryLimits{DefaultLimit: 10, MaxLimit: 100}

func TestCompileQuery_Defaults(t *testing.T) {
	query, err := CompileQuery(url.Values{}, testLimits)
	require.NoError(t, err)

	assert.Equal(t, domain.SaleFilter{}, query.Filter)
	assert.Equal(t, domain.SortSpec{Field: domain.SortBySaleDate, Order: domain.SortDesc}, query.Sort)
	assert.Equal(t, domain.Page{Number: 1, Limit: 10}, query.Page)
	assert.Equal(t, 0, query.Page.Skip())
}

func TestCompileQuery(t *testing.T) {
	query, err := CompileQuery(url.Values{
		"seller":    {" Ali "},
		"city":      {"istanbul"},
		"category":  {"elec"},
		"status":    {"shipped"},
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
		"sortBy":    {"price.amount"},
		"sortOrder": {"ASC"},
		"page":      {"3"},
		"limit":     {"20"},
	}, testLimits)
	require.NoError(t, err)

	assert.Equal(t, "Ali", query.Filter.Seller)
	assert.Equal(t, "istanbul", query.Filter.City)
	assert.Equal(t, "elec", query.Filter.Category)
	assert.Equal(t, domain.SaleStatusShipped, query.Filter.Status)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *query.Filter.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999000, time.UTC), *query.Filter.EndDate)
	assert.Equal(t, domain.SortSpec{Field: domain.SortByPriceAmount, Order: domain.SortAsc}, query.Sort)
	assert.Equal(t, 40, query.Page.Skip())
}

func TestCompileQuery_LimitIsClamped(t *testing.T) {
	query, err := CompileQuery(url.Values{"limit": {"5000"}}, testLimits)
	require.NoError(t, err)
	assert.Equal(t, 100, query.Page.Limit)
}

func TestCompileQuery_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
	}{
		{"Página zero", url.Values{"page": {"0"}}},
		{"Página não numérica", url.Values{"page": {"abc"}}},
		{"Limite negativo", url.Values{"limit": {"-5"}}},
		{"Campo de ordenação desconhecido", url.Values{"sortBy": {"password"}}},
		{"Direção desconhecida", url.Values{"sortOrder": {"up"}}},
		{"Status desconhecido", url.Values{"status": {"lost"}}},
		{"Data malformada", url.Values{"startDate": {"31/01/2024"}}},
		{"Intervalo invertido", url.Values{"startDate": {"2024-02-01"}, "endDate": {"2024-01-01"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileQuery(tt.params, testLimits)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQuery))

			var saleErr *SaleError
			require.True(t, errors.As(err, &saleErr))
			assert.Equal(t, apiErrors.ErrInvalidQuery, saleErr.Code)
		})
	}
}

func TestCompileDateRange_RFC3339KeepsInstant(t *testing.T) {
	filter, err := CompileDateRange(url.Values{"endDate": {"2024-01-31T12:00:00Z"}})
	require.NoError(t, err)

	assert.Nil(t, filter.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), *filter.EndDate)
}
