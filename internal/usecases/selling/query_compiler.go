package selling

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
	"github.com/vfg2006/sales-tracker-api/pkg/utils"
)

const defaultPage = 1

// QueryLimits vem da configuração de paginação
type QueryLimits struct {
	DefaultLimit int
	MaxLimit     int
}

func invalidQuery(format string, args ...interface{}) error {
	return NewSaleError(ErrInvalidQuery, apiErrors.ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// CompileQuery traduz os parâmetros da listagem em filtro, ordenação e paginação
func CompileQuery(params url.Values, limits QueryLimits) (domain.SaleQuery, error) {
	filter, err := CompileDateRange(params)
	if err != nil {
		return domain.SaleQuery{}, err
	}

	filter.Seller = strings.TrimSpace(params.Get("seller"))
	filter.Buyer = strings.TrimSpace(params.Get("buyer"))
	filter.City = strings.TrimSpace(params.Get("city"))
	filter.Category = strings.TrimSpace(params.Get("category"))

	if status := strings.TrimSpace(params.Get("status")); status != "" {
		filter.Status = domain.SaleStatus(status)
		if !filter.Status.IsValid() {
			return domain.SaleQuery{}, invalidQuery("status desconhecido: %q", status)
		}
	}

	sortSpec, err := compileSort(params)
	if err != nil {
		return domain.SaleQuery{}, err
	}

	page, err := compilePage(params, limits)
	if err != nil {
		return domain.SaleQuery{}, err
	}

	return domain.SaleQuery{
		Filter: filter,
		Sort:   sortSpec,
		Page:   page,
	}, nil
}

// CompileDateRange lê startDate e endDate; uma endDate sem horário cobre o dia inteiro
func CompileDateRange(params url.Values) (domain.SaleFilter, error) {
	var filter domain.SaleFilter

	if raw := strings.TrimSpace(params.Get("startDate")); raw != "" {
		start, _, err := utils.ParseDate(raw)
		if err != nil {
			return filter, invalidQuery("startDate: %s", err.Error())
		}
		filter.StartDate = &start
	}

	if raw := strings.TrimSpace(params.Get("endDate")); raw != "" {
		end, dateOnly, err := utils.ParseDate(raw)
		if err != nil {
			return filter, invalidQuery("endDate: %s", err.Error())
		}
		if dateOnly {
			end = utils.EndOfDay(end)
		}
		filter.EndDate = &end
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return filter, invalidQuery("startDate não pode ser posterior a endDate")
	}

	return filter, nil
}

func compileSort(params url.Values) (domain.SortSpec, error) {
	sortSpec := domain.SortSpec{
		Field: domain.SortBySaleDate,
		Order: domain.SortDesc,
	}

	if sortBy := strings.TrimSpace(params.Get("sortBy")); sortBy != "" {
		sortSpec.Field = domain.SortField(sortBy)
		if !sortSpec.Field.IsValid() {
			return sortSpec, invalidQuery("sortBy não suportado: %q", sortBy)
		}
	}

	if sortOrder := strings.ToLower(strings.TrimSpace(params.Get("sortOrder"))); sortOrder != "" {
		switch domain.SortOrder(sortOrder) {
		case domain.SortAsc, domain.SortDesc:
			sortSpec.Order = domain.SortOrder(sortOrder)
		default:
			return sortSpec, invalidQuery("sortOrder deve ser asc ou desc: %q", sortOrder)
		}
	}

	return sortSpec, nil
}

func compilePage(params url.Values, limits QueryLimits) (domain.Page, error) {
	page := domain.Page{
		Number: defaultPage,
		Limit:  limits.DefaultLimit,
	}

	if raw := strings.TrimSpace(params.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > math.MaxInt32 {
			return page, invalidQuery("page deve ser um inteiro maior ou igual a 1: %q", raw)
		}
		page.Number = n
	}

	if raw := strings.TrimSpace(params.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, invalidQuery("limit deve ser um inteiro maior ou igual a 1: %q", raw)
		}
		page.Limit = n
	}

	if limits.MaxLimit > 0 && page.Limit > limits.MaxLimit {
		page.Limit = limits.MaxLimit
	}

	return page, nil
}
