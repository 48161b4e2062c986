package selling

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vfg2006/sales-tracker-api/infrastructure/events"
	"github.com/vfg2006/sales-tracker-api/infrastructure/repository"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
)

type SalesService interface {
	List(ctx context.Context, query domain.SaleQuery) (*domain.SaleList, error)
	Get(ctx context.Context, id string) (*domain.Sale, error)
	Create(ctx context.Context, input *domain.SaleInput) (*domain.Sale, error)
	CreateFromJSON(ctx context.Context, payload []byte) (*domain.Sale, error)
	Update(ctx context.Context, id string, patch []byte) (*domain.Sale, error)
	Delete(ctx context.Context, id string) error
	Overview(ctx context.Context, filter domain.SaleFilter) (*domain.StatsOverview, error)
}

// PublishFailureHook é chamado quando um evento não pôde ser publicado
type PublishFailureHook func(event events.SaleEvent, err error)

type Service struct {
	repo       repository.SaleRepository
	validator  *Validator
	aggregator *Aggregator
	publisher  events.Publisher
	now        func() time.Time
	onFailure  PublishFailureHook
}

type Option func(*Service)

// WithClock substitui o relógio usado nos timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithPublishFailureHook(hook PublishFailureHook) Option {
	return func(s *Service) {
		s.onFailure = hook
	}
}

func NewService(
	repo repository.SaleRepository,
	publisher events.Publisher,
	opts ...Option,
) SalesService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	s := &Service{
		repo:       repo,
		validator:  NewValidator(),
		aggregator: NewAggregator(repo),
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) List(ctx context.Context, query domain.SaleQuery) (*domain.SaleList, error) {
	sales, err := s.repo.Find(ctx, query.Filter, query.Sort, query.Page)
	if err != nil {
		return nil, databaseError(err, "Falha ao listar vendas")
	}

	total, err := s.repo.Count(ctx, query.Filter)
	if err != nil {
		return nil, databaseError(err, "Falha ao contar vendas")
	}

	stats, err := s.aggregator.Summarize(ctx, query.Filter)
	if err != nil {
		return nil, err
	}

	if sales == nil {
		sales = []*domain.Sale{}
	}

	return &domain.SaleList{
		Sales:      sales,
		Pagination: domain.NewPagination(query.Page, total),
		Stats:      stats,
	}, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*domain.Sale, error) {
	id, ok := canonicalID(rawID)
	if !ok {
		return nil, notFound(rawID)
	}

	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, databaseError(err, "Falha ao buscar venda")
	}
	if sale == nil {
		return nil, notFound(id)
	}

	return sale, nil
}

func (s *Service) Create(ctx context.Context, input *domain.SaleInput) (*domain.Sale, error) {
	if input == nil {
		return nil, NewSaleError(ErrInvalidPayload, apiErrors.ErrInvalidRequest, "Corpo da requisição vazio")
	}
	return s.create(ctx, input, nil)
}

// CreateFromJSON decodifica o corpo campo a campo para que tipos errados sejam
// reportados junto com as demais violações
func (s *Service) CreateFromJSON(ctx context.Context, payload []byte) (*domain.Sale, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, NewSaleError(ErrInvalidPayload, apiErrors.ErrInvalidRequest, "Corpo da requisição vazio")
	}

	input := &domain.SaleInput{}
	typeErrs, err := DecodeInput(payload, input)
	if err != nil {
		return nil, err
	}

	return s.create(ctx, input, typeErrs)
}

func (s *Service) create(ctx context.Context, input *domain.SaleInput, typeErrs []FieldError) (*domain.Sale, error) {
	now := s.now()
	input.Normalize()

	// data ausente vira o instante da criação; um valor inválido já está em typeErrs
	if input.SaleDate == nil && !hasField(typeErrs, "saleDate") {
		input.SaleDate = domain.NewInputDate(now)
	}

	sale, err := s.validator.Validate(input, typeErrs...)
	if err != nil {
		return nil, err
	}

	sale.CreatedAt = now
	sale.UpdatedAt = now
	sale.LastModified = now

	created, err := s.repo.Create(ctx, sale)
	if err != nil {
		return nil, databaseError(err, "Falha ao criar venda")
	}

	log.ForContext(ctx).WithField("sale_id", created.ID).Info("Venda criada")
	s.publish(ctx, events.NewSaleEvent(events.SaleCreated, created.ID, created, now))

	return created, nil
}

// Update sobrepõe o patch JSON ao registro atual; campos ausentes mantêm o valor
// e objetos aninhados são mesclados campo a campo
func (s *Service) Update(ctx context.Context, rawID string, patch []byte) (*domain.Sale, error) {
	id, ok := canonicalID(rawID)
	if !ok {
		return nil, notFound(rawID)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, databaseError(err, "Falha ao buscar venda")
	}
	if current == nil {
		return nil, notFound(id)
	}

	input := domain.InputFromSale(current)
	var typeErrs []FieldError
	if len(bytes.TrimSpace(patch)) > 0 {
		typeErrs, err = DecodeInput(patch, input)
		if err != nil {
			return nil, NewSaleErrorWithID(ErrInvalidPayload, apiErrors.ErrInvalidFormat, id, "JSON inválido")
		}
	}

	now := s.now()
	input.Normalize()

	sale, err := s.validator.Validate(input, typeErrs...)
	if err != nil {
		return nil, err
	}

	sale.ID = current.ID
	sale.CreatedAt = current.CreatedAt
	sale.UpdatedAt = now
	sale.LastModified = now

	updated, err := s.repo.Update(ctx, sale)
	if err != nil {
		return nil, databaseError(err, "Falha ao atualizar venda")
	}
	// removida entre a leitura e a escrita
	if updated == nil {
		return nil, notFound(id)
	}

	log.ForContext(ctx).WithField("sale_id", id).Info("Venda atualizada")
	s.publish(ctx, events.NewSaleEvent(events.SaleUpdated, id, updated, now))

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, ok := canonicalID(rawID)
	if !ok {
		return notFound(rawID)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return databaseError(err, "Falha ao remover venda")
	}
	if !deleted {
		return notFound(id)
	}

	log.ForContext(ctx).WithField("sale_id", id).Info("Venda removida")
	s.publish(ctx, events.NewSaleEvent(events.SaleDeleted, id, nil, s.now()))

	return nil
}

func (s *Service) Overview(ctx context.Context, filter domain.SaleFilter) (*domain.StatsOverview, error) {
	overview, err := s.aggregator.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}

	cities, err := s.aggregator.GroupBy(ctx, filter, domain.DimensionCity, topGroupsLimit)
	if err != nil {
		return nil, err
	}

	categories, err := s.aggregator.GroupBy(ctx, filter, domain.DimensionCategory, topGroupsLimit)
	if err != nil {
		return nil, err
	}

	return &domain.StatsOverview{
		Overview:      overview,
		TopCities:     cities,
		TopCategories: categories,
	}, nil
}

// publish nunca transforma uma escrita confirmada em erro
func (s *Service) publish(ctx context.Context, event events.SaleEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.ForContext(ctx).WithError(err).WithField("sale_id", event.SaleID).
			Warnf("Falha ao publicar evento %s", event.Type)
		if s.onFailure != nil {
			s.onFailure(event, err)
		}
	}
}

// canonicalID devolve o UUID na forma minúscula com hífens, a mesma gravada pelos repositórios.
// Maiúsculas, chaves e o prefixo urn:uuid: chegam ao mesmo registro em qualquer driver.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func hasField(fields []FieldError, path string) bool {
	for _, f := range fields {
		if f.Field == path {
			return true
		}
	}
	return false
}

func notFound(id string) error {
	return NewSaleErrorWithID(ErrSaleNotFound, apiErrors.ErrSaleNotFound, id, "Venda não encontrada")
}
