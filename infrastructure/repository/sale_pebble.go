package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const salePebblePrefix = "sale/"

// SalePebbleRepository guarda cada venda como documento JSON sob a chave "sale/<id>".
// Filtros e agregações são avaliados em memória sobre a varredura do prefixo.
type SalePebbleRepository struct {
	db *pebble.DB
	// serializa as escritas para que leitura e gravação do Update sejam atômicas
	mu sync.Mutex
}

func NewSalePebbleRepository(dir string) (*SalePebbleRepository, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "erro ao abrir o pebble")
	}
	return &SalePebbleRepository{db: db}, nil
}

func (r *SalePebbleRepository) Close() error {
	return r.db.Close()
}

func saleKey(id string) []byte {
	return []byte(salePebblePrefix + id)
}

func (r *SalePebbleRepository) Create(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	stored := sale.Clone()
	stored.ID = uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.put(stored); err != nil {
		return nil, errors.Wrap(err, "erro ao inserir venda")
	}

	return stored, nil
}

func (r *SalePebbleRepository) GetByID(_ context.Context, id string) (*domain.Sale, error) {
	sale, err := r.get(id)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar venda")
	}
	return sale, nil
}

func (r *SalePebbleRepository) Update(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.get(sale.ID)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar venda")
	}
	if current == nil {
		return nil, nil
	}

	stored := sale.Clone()
	stored.CreatedAt = current.CreatedAt

	if err := r.put(stored); err != nil {
		return nil, errors.Wrap(err, "erro ao atualizar venda")
	}

	return stored, nil
}

func (r *SalePebbleRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.get(id)
	if err != nil {
		return false, errors.Wrap(err, "erro ao buscar venda")
	}
	if current == nil {
		return false, nil
	}

	if err := r.db.Delete(saleKey(id), pebble.Sync); err != nil {
		return false, errors.Wrap(err, "erro ao remover venda")
	}

	return true, nil
}

func (r *SalePebbleRepository) Find(_ context.Context, filter domain.SaleFilter, sortSpec domain.SortSpec, page domain.Page) ([]*domain.Sale, error) {
	sales, err := r.scan(filter)
	if err != nil {
		return nil, err
	}
	return pageSales(sales, sortSpec, page), nil
}

func (r *SalePebbleRepository) Count(_ context.Context, filter domain.SaleFilter) (int64, error) {
	sales, err := r.scan(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(sales)), nil
}

func (r *SalePebbleRepository) Summarize(_ context.Context, filter domain.SaleFilter) (domain.OverviewStats, error) {
	sales, err := r.scan(filter)
	if err != nil {
		return domain.OverviewStats{}, err
	}
	return domain.Summarize(sales), nil
}

func (r *SalePebbleRepository) GroupBy(_ context.Context, filter domain.SaleFilter, dimension domain.Dimension, limit int) ([]domain.GroupStat, error) {
	if !dimension.IsValid() {
		return nil, fmt.Errorf("dimensão de agrupamento desconhecida: %s", dimension)
	}

	sales, err := r.scan(filter)
	if err != nil {
		return nil, err
	}
	return domain.GroupSales(sales, dimension, limit), nil
}

func (r *SalePebbleRepository) get(id string) (*domain.Sale, error) {
	value, closer, err := r.db.Get(saleKey(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	var sale domain.Sale
	if err := json.Unmarshal(value, &sale); err != nil {
		return nil, errors.Wrapf(err, "documento inválido para a venda %s", id)
	}

	return &sale, nil
}

func (r *SalePebbleRepository) put(sale *domain.Sale) error {
	value, err := json.Marshal(sale)
	if err != nil {
		return err
	}
	return r.db.Set(saleKey(sale.ID), value, pebble.Sync)
}

func (r *SalePebbleRepository) scan(filter domain.SaleFilter) ([]*domain.Sale, error) {
	it, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(salePebblePrefix),
		UpperBound: []byte(salePebblePrefix[:len(salePebblePrefix)-1] + "0"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "erro ao abrir iterador")
	}
	defer it.Close()

	sales := make([]*domain.Sale, 0)
	for it.First(); it.Valid(); it.Next() {
		var sale domain.Sale
		if err := json.Unmarshal(it.Value(), &sale); err != nil {
			return nil, errors.Wrapf(err, "documento inválido na chave %s", it.Key())
		}
		if filter.Matches(&sale) {
			sales = append(sales, &sale)
		}
	}

	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "erro durante a varredura")
	}

	return sales, nil
}
