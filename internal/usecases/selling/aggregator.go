package selling

import (
	"context"

	"github.com/vfg2006/sales-tracker-api/infrastructure/repository"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

// limite usado nos agrupamentos de topCities e topCategories
const topGroupsLimit = 10

// Aggregator calcula estatísticas sobre o mesmo filtro usado na listagem
type Aggregator struct {
	repo repository.SaleRepository
}

func NewAggregator(repo repository.SaleRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

func (a *Aggregator) Summarize(ctx context.Context, filter domain.SaleFilter) (domain.OverviewStats, error) {
	stats, err := a.repo.Summarize(ctx, filter)
	if err != nil {
		return domain.OverviewStats{}, databaseError(err, "Falha ao calcular estatísticas")
	}
	if stats.Count == 0 {
		return domain.OverviewStats{}, nil
	}
	return stats, nil
}

// GroupBy devolve os grupos em ordem canônica, limitados a limit
func (a *Aggregator) GroupBy(ctx context.Context, filter domain.SaleFilter, dimension domain.Dimension, limit int) ([]domain.GroupStat, error) {
	groups, err := a.repo.GroupBy(ctx, filter, dimension, limit)
	if err != nil {
		return nil, databaseError(err, "Falha ao agrupar vendas")
	}

	if groups == nil {
		groups = []domain.GroupStat{}
	}

	domain.SortGroups(groups)
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups, nil
}

func databaseError(err error, details string) error {
	return &SaleError{
		Err:     ErrDatabaseOperation,
		Code:    apiErrors.ErrDatabaseOperation,
		Details: details,
		Cause:   err,
	}
}
