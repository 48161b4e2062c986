package handler

import (
	"net/http"

	"github.com/vfg2006/sales-tracker-api/internal/api/handler/router"
	"github.com/vfg2006/sales-tracker-api/internal/metrics"
	"github.com/vfg2006/sales-tracker-api/internal/usecases/selling"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/health",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Sales(service selling.SalesService, opts SalesOptions) []router.Route {
	return []router.Route{
		{
			Path:    "/api/sales",
			Method:  http.MethodGet,
			Handler: ListSales(service, opts),
		},
		{
			Path:    "/api/sales",
			Method:  http.MethodPost,
			Handler: CreateSale(service, opts),
		},
		{
			Path:    "/api/sales/:id",
			Method:  http.MethodGet,
			Handler: GetSale(service, opts),
		},
		{
			Path:    "/api/sales/:id",
			Method:  http.MethodPut,
			Handler: UpdateSale(service, opts),
		},
		{
			Path:    "/api/sales/:id",
			Method:  http.MethodDelete,
			Handler: DeleteSale(service, opts),
		},
		{
			Path:    "/api/sales/:id/overview",
			Method:  http.MethodGet,
			Handler: SalesStatsOverview(service, opts),
		},
	}
}

func Metrics(registry *metrics.Registry) []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: registry.Handler(),
		},
	}
}
