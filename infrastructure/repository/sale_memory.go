package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

type saleMemoryRepository struct {
	mu    sync.RWMutex
	sales map[string]*domain.Sale
}

// NewSaleMemoryRepository cria um repositório em memória, usado em testes e no driver "memory"
func NewSaleMemoryRepository() SaleRepository {
	return &saleMemoryRepository{
		sales: make(map[string]*domain.Sale),
	}
}

func (r *saleMemoryRepository) Create(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	stored := sale.Clone()
	stored.ID = uuid.New().String()

	r.mu.Lock()
	r.sales[stored.ID] = stored
	r.mu.Unlock()

	return stored.Clone(), nil
}

func (r *saleMemoryRepository) GetByID(_ context.Context, id string) (*domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sale, ok := r.sales[id]
	if !ok {
		return nil, nil
	}

	return sale.Clone(), nil
}

func (r *saleMemoryRepository) Update(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sales[sale.ID]
	if !ok {
		return nil, nil
	}

	stored := sale.Clone()
	stored.CreatedAt = current.CreatedAt
	r.sales[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *saleMemoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sales[id]; !ok {
		return false, nil
	}
	delete(r.sales, id)

	return true, nil
}

func (r *saleMemoryRepository) Find(_ context.Context, filter domain.SaleFilter, sortSpec domain.SortSpec, page domain.Page) ([]*domain.Sale, error) {
	return pageSales(r.matching(filter), sortSpec, page), nil
}

func (r *saleMemoryRepository) Count(_ context.Context, filter domain.SaleFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *saleMemoryRepository) Summarize(_ context.Context, filter domain.SaleFilter) (domain.OverviewStats, error) {
	return domain.Summarize(r.matching(filter)), nil
}

func (r *saleMemoryRepository) GroupBy(_ context.Context, filter domain.SaleFilter, dimension domain.Dimension, limit int) ([]domain.GroupStat, error) {
	if !dimension.IsValid() {
		return nil, fmt.Errorf("dimensão de agrupamento desconhecida: %s", dimension)
	}
	return domain.GroupSales(r.matching(filter), dimension, limit), nil
}

// matching devolve cópias das vendas que satisfazem o filtro
func (r *saleMemoryRepository) matching(filter domain.SaleFilter) []*domain.Sale {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		if filter.Matches(sale) {
			result = append(result, sale.Clone())
		}
	}

	return result
}

// pageSales ordena as vendas e recorta a janela da página. Limit <= 0 devolve tudo.
func pageSales(sales []*domain.Sale, sortSpec domain.SortSpec, page domain.Page) []*domain.Sale {
	sort.Slice(sales, func(i, j int) bool {
		return sortSpec.Compare(sales[i], sales[j]) < 0
	})

	if page.Limit <= 0 {
		return sales
	}

	skip := page.Skip()
	if skip >= len(sales) {
		return []*domain.Sale{}
	}

	end := skip + page.Limit
	if end > len(sales) {
		end = len(sales)
	}

	return sales[skip:end]
}
