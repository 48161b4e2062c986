package selling

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-tracker-api/infrastructure/events"
	"github.com/vfg2006/sales-tracker-api/infrastructure/repository"
	"github.com/vfg2006/sales-tracker-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"go.uber.org/mock/gomock"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.SaleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.SaleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newMemoryService(publisher events.Publisher) (SalesService, repository.SaleRepository) {
	repo := repository.NewSaleMemoryRepository()
	return NewService(repo, publisher, WithClock(func() time.Time { return fixedNow })), repo
}

func TestService_ScenarioListAndOverview(t *testing.T) {
	ctx := context.Background()
	service, _ := newMemoryService(nil)

	a := validInput()
	a.Product.Quantity = intPtr(2)
	a.Price.Amount = floatPtr(150)
	a.Product.Category = stringPtr("Electronics")

	b := validInput()
	b.Seller.Name = "Veli"
	b.Product.Quantity = intPtr(3)
	b.Price.Amount = floatPtr(50)

	_, err := service.Create(ctx, a)
	require.NoError(t, err)
	_, err = service.Create(ctx, b)
	require.NoError(t, err)

	query, err := CompileQuery(url.Values{"city": {"istanbul"}}, testLimits)
	require.NoError(t, err)

	list, err := service.List(ctx, query)
	require.NoError(t, err)
	assert.Len(t, list.Sales, 2)
	assert.Equal(t, domain.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 2, ItemsPerPage: 10}, list.Pagination)

	want := domain.OverviewStats{
		TotalSales:    200,
		TotalQuantity: 5,
		AveragePrice:  100,
		Count:         2,
		MinPrice:      50,
		MaxPrice:      150,
	}
	assert.Equal(t, want, list.Stats)

	overview, err := service.Overview(ctx, query.Filter)
	require.NoError(t, err)
	assert.Equal(t, want, overview.Overview)

	require.Len(t, overview.TopCities, 1)
	assert.Equal(t, "Istanbul", *overview.TopCities[0].Key)
	assert.Equal(t, 200.0, overview.TopCities[0].TotalSales)

	// a venda sem categoria forma o grupo nulo, depois dos demais
	require.Len(t, overview.TopCategories, 2)
	assert.Equal(t, "Electronics", *overview.TopCategories[0].Key)
	assert.Nil(t, overview.TopCategories[1].Key)
	assert.Equal(t, overview.Overview.TotalSales, overview.TopCategories[0].TotalSales+overview.TopCategories[1].TotalSales)
}

func TestService_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	service, _ := newMemoryService(publisher)

	created, err := service.Create(ctx, validInput())
	require.NoError(t, err)
	assert.NoError(t, uuid.Validate(created.ID))
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, fixedNow, created.LastModified)

	got, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, []events.EventType{events.SaleCreated}, publisher.types())
}

func TestService_CreateWithZeroQuantityPersistsNothing(t *testing.T) {
	ctx := context.Background()
	service, repo := newMemoryService(nil)

	in := validInput()
	in.Product.Quantity = intPtr(0)

	_, err := service.Create(ctx, in)
	assert.Equal(t, []string{"product.quantity"}, fieldsOf(t, err))

	total, err := repo.Count(ctx, domain.SaleFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestService_ValidationFailureNeverReachesStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// nenhuma chamada é esperada no mock
	repo := mocks.NewMockSaleRepository(ctrl)
	service := NewService(repo, nil)

	in := validInput()
	in.Price.Amount = nil

	_, err := service.Create(context.Background(), in)
	assert.Equal(t, []string{"price.amount"}, fieldsOf(t, err))
}

func TestService_UpdateMissingIDLeavesStoreUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSaleRepository(ctrl)
	service := NewService(repo, nil)

	id := uuid.New().String()
	repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := service.Update(context.Background(), id, []byte(`{"notes":"x"}`))
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestService_MalformedIDIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSaleRepository(ctrl)
	service := NewService(repo, nil)

	_, err := service.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrSaleNotFound)

	_, err = service.Update(context.Background(), "123", nil)
	assert.ErrorIs(t, err, ErrSaleNotFound)

	err = service.Delete(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestService_StoreFailureIsDatabaseError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSaleRepository(ctrl)
	service := NewService(repo, nil)

	cause := errors.New("connection refused")
	repo.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, cause)

	_, err := service.List(context.Background(), domain.SaleQuery{Page: domain.Page{Number: 1, Limit: 10}})
	require.ErrorIs(t, err, ErrDatabaseOperation)

	var saleErr *SaleError
	require.True(t, errors.As(err, &saleErr))
	assert.Equal(t, cause, saleErr.Cause)
	assert.False(t, errors.Is(err, ErrSaleNotFound))
}

func TestService_PartialUpdateMergesNestedFields(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	service, _ := newMemoryService(publisher)

	in := validInput()
	in.Product.Category = stringPtr("Audio")
	created, err := service.Create(ctx, in)
	require.NoError(t, err)

	updated, err := service.Update(ctx, created.ID, []byte(`{"price":{"amount":99.5},"address":{"district":"Kadıköy"},"status":"shipped"}`))
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, 99.5, updated.Price.Amount)
	assert.Equal(t, created.Price.Currency, updated.Price.Currency)
	assert.Equal(t, "Kadıköy", updated.Address.District)
	assert.Equal(t, created.Address.Street, updated.Address.Street)
	assert.Equal(t, domain.SaleStatusShipped, updated.Status)
	assert.Equal(t, "Audio", *updated.Product.Category)
	assert.Equal(t, fixedNow, updated.LastModified)

	_, err = service.Update(ctx, created.ID, []byte(`{"product":{"quantity":0}}`))
	assert.Equal(t, []string{"product.quantity"}, fieldsOf(t, err))

	_, err = service.Update(ctx, created.ID, []byte(`{"price":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	assert.Equal(t, []events.EventType{events.SaleCreated, events.SaleUpdated}, publisher.types())
}

func TestService_DeleteIsIdempotentNotFound(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	service, _ := newMemoryService(publisher)

	created, err := service.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))
	assert.ErrorIs(t, service.Delete(ctx, created.ID), ErrSaleNotFound)
	assert.ErrorIs(t, service.Delete(ctx, created.ID), ErrSaleNotFound)

	_, err = service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrSaleNotFound)
	assert.Equal(t, []events.EventType{events.SaleCreated, events.SaleDeleted}, publisher.types())
}

func TestService_EmptyResultStatsAreZero(t *testing.T) {
	ctx := context.Background()
	service, _ := newMemoryService(nil)

	_, err := service.Create(ctx, validInput())
	require.NoError(t, err)

	list, err := service.List(ctx, domain.SaleQuery{
		Filter: domain.SaleFilter{Seller: "nobody"},
		Sort:   domain.SortSpec{Field: domain.SortBySaleDate, Order: domain.SortDesc},
		Page:   domain.Page{Number: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, list.Sales)
	assert.NotNil(t, list.Sales)
	assert.Equal(t, domain.OverviewStats{}, list.Stats)
	assert.EqualValues(t, 0, list.Pagination.TotalPages)

	overview, err := service.Overview(ctx, domain.SaleFilter{Seller: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, domain.OverviewStats{}, overview.Overview)
	assert.Empty(t, overview.TopCities)
	assert.Empty(t, overview.TopCategories)
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{err: errors.New("broker down")}

	var failed []events.EventType
	repo := repository.NewSaleMemoryRepository()
	service := NewService(repo, publisher, WithPublishFailureHook(func(event events.SaleEvent, _ error) {
		failed = append(failed, event.Type)
	}))

	created, err := service.Create(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []events.EventType{events.SaleCreated}, failed)
}

func TestAggregator_GroupByTruncatesAndOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSaleRepository(ctrl)
	aggregator := NewAggregator(repo)

	a, b := "Ankara", "Bursa"
	repo.EXPECT().GroupBy(gomock.Any(), gomock.Any(), domain.DimensionCity, 2).Return([]domain.GroupStat{
		{Key: nil, TotalSales: 50, Count: 1},
		{Key: &b, TotalSales: 50, Count: 1},
		{Key: &a, TotalSales: 50, Count: 2},
	}, nil)

	groups, err := aggregator.GroupBy(context.Background(), domain.SaleFilter{}, domain.DimensionCity, 2)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Ankara", *groups[0].Key)
	assert.Equal(t, "Bursa", *groups[1].Key)
}

func TestService_CreateFromJSON(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		payload    string
		wantFields []string
		wantDate   time.Time
	}{
		{
			name: "Data sem horário é aceita",
			payload: `{"seller":{"name":"Ali"},"buyer":{"name":"Veli"},"address":{"street":"Cd. 1","city":"Ankara"},
				"product":{"name":"Kitap","quantity":1},"price":{"amount":20},"saleDate":"2024-01-15"}`,
			wantDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Data RFC3339 é convertida para UTC",
			payload: `{"seller":{"name":"Ali"},"buyer":{"name":"Veli"},"address":{"street":"Cd. 1","city":"Ankara"},
				"product":{"name":"Kitap","quantity":1},"price":{"amount":20},"saleDate":"2024-01-15T10:00:00+03:00"}`,
			wantDate: time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "Data ausente vira o instante da criação",
			payload: `{"seller":{"name":"Ali"},"buyer":{"name":"Veli"},"address":{"street":"Cd. 1","city":"Ankara"},
				"product":{"name":"Kitap","quantity":1},"price":{"amount":20}}`,
			wantDate: fixedNow,
		},
		{
			name:    "Tipos errados entram no relatório junto com os obrigatórios",
			payload: `{"seller":{"name":""},"product":{"name":"Kitap","quantity":"2"},"saleDate":"ontem"}`,
			wantFields: []string{
				"product.quantity", "saleDate",
				"seller.name", "buyer.name", "address.street", "address.city", "price.amount",
			},
		},
		{
			name:       "Objeto aninhado com tipo errado",
			payload:    `{"seller":"Ali","buyer":{"name":"Veli"},"address":{"street":"Cd. 1","city":"Ankara"},"product":{"name":"Kitap","quantity":1},"price":{"amount":20}}`,
			wantFields: []string{"seller", "seller.name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newMemoryService(nil)

			sale, err := service.CreateFromJSON(ctx, []byte(tt.payload))
			if len(tt.wantFields) > 0 {
				assert.Equal(t, tt.wantFields, fieldsOf(t, err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, sale.SaleDate)
		})
	}
}

func TestService_CreateFromJSONMalformed(t *testing.T) {
	service, _ := newMemoryService(nil)

	_, err := service.CreateFromJSON(context.Background(), []byte(`{"seller":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = service.CreateFromJSON(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestService_UpdateRejectsNullSaleDate(t *testing.T) {
	ctx := context.Background()
	service, _ := newMemoryService(nil)

	created, err := service.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = service.Update(ctx, created.ID, []byte(`{"saleDate":null}`))
	assert.Equal(t, []string{"saleDate"}, fieldsOf(t, err))

	_, err = service.Update(ctx, created.ID, []byte(`{"product":{"quantity":"três"}}`))
	assert.Equal(t, []string{"product.quantity"}, fieldsOf(t, err))

	got, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SaleDate, got.SaleDate)
	assert.Equal(t, created.Product.Quantity, got.Product.Quantity)
}

func TestService_NonCanonicalIDsReachTheSameSale(t *testing.T) {
	ctx := context.Background()
	service, _ := newMemoryService(nil)

	created, err := service.Create(ctx, validInput())
	require.NoError(t, err)

	for _, id := range []string{
		strings.ToUpper(created.ID),
		"{" + created.ID + "}",
		"urn:uuid:" + created.ID,
	} {
		got, err := service.Get(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, created.ID, got.ID)
	}

	_, err = service.Update(ctx, strings.ToUpper(created.ID), []byte(`{"notes":"maiúsculas"}`))
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, "{"+created.ID+"}"))
	_, err = service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}
