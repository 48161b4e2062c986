package repository

import (
	"context"

	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

//go:generate mockgen -source=sale.go -destination=mocks/mock_sale_repository.go -package=mocks

// SaleRepository é a coleção persistente de vendas. Buscas por id inexistente
// devolvem (nil, nil); Delete devolve false quando nada foi removido.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
	Update(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	Delete(ctx context.Context, id string) (bool, error)
	Find(ctx context.Context, filter domain.SaleFilter, sort domain.SortSpec, page domain.Page) ([]*domain.Sale, error)
	Count(ctx context.Context, filter domain.SaleFilter) (int64, error)
	Summarize(ctx context.Context, filter domain.SaleFilter) (domain.OverviewStats, error)
	GroupBy(ctx context.Context, filter domain.SaleFilter, dimension domain.Dimension, limit int) ([]domain.GroupStat, error)
}
