package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vfg2006/sales-tracker-api/infrastructure/database/postgres"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

const (
	salesTable = "sales"
)

// A ordem das colunas acompanha saleValues e scanSale
var saleColumnList = []string{
	"id", "seller_name", "buyer_name", "buyer_phone", "buyer_email",
	"address_street", "address_city", "address_district", "address_postal_code", "address_country",
	"product_name", "product_description", "product_quantity", "product_unit", "product_category",
	"price_amount", "price_currency", "sale_date", "status", "delivery_type", "notes", "created_by",
	"created_at", "updated_at", "last_modified",
}

var saleColumns = strings.Join(saleColumnList, ", ")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var sortColumns = map[domain.SortField]string{
	domain.SortBySaleDate:        "sale_date",
	domain.SortByCreatedAt:       "created_at",
	domain.SortByUpdatedAt:       "updated_at",
	domain.SortByLastModified:    "last_modified",
	domain.SortByPriceAmount:     "price_amount",
	domain.SortByProductQuantity: "product_quantity",
	domain.SortBySellerName:      "seller_name",
	domain.SortByBuyerName:       "buyer_name",
	domain.SortByAddressCity:     "address_city",
	domain.SortByStatus:          "status",
}

var dimensionColumns = map[domain.Dimension]string{
	domain.DimensionCity:     "address_city",
	domain.DimensionCategory: "product_category",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type salePostgresRepository struct {
	conn postgres.Queryer
}

func NewSalePostgresRepository(conn postgres.Queryer) SaleRepository {
	return &salePostgresRepository{
		conn: conn,
	}
}

func (r *salePostgresRepository) Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	query, args, err := psql.
		Insert(salesTable).
		Columns(saleColumnList...).
		Values(saleValues(uuid.New().String(), sale)...).
		Suffix("RETURNING " + saleColumns).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	created, err := scanSale(r.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapPqError(err, "erro ao inserir venda")
	}

	return created, nil
}

func (r *salePostgresRepository) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query, args, err := psql.
		Select(saleColumns).
		From(salesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	sale, err := scanSale(r.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapPqError(err, "erro ao buscar venda")
	}

	return sale, nil
}

func (r *salePostgresRepository) Update(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if _, err := uuid.Parse(sale.ID); err != nil {
		return nil, nil
	}

	values := saleValues(sale.ID, sale)

	setMap := make(map[string]interface{}, len(saleColumnList))
	for i, column := range saleColumnList {
		// id e created_at são imutáveis
		if column == "id" || column == "created_at" {
			continue
		}
		setMap[column] = values[i]
	}

	query, args, err := psql.
		Update(salesTable).
		SetMap(setMap).
		Where(squirrel.Eq{"id": sale.ID}).
		Suffix("RETURNING " + saleColumns).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	updated, err := scanSale(r.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapPqError(err, "erro ao atualizar venda")
	}

	return updated, nil
}

func (r *salePostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	query, args, err := psql.
		Delete(salesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "erro ao construir a query")
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, wrapPqError(err, "erro ao remover venda")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "erro ao obter número de linhas afetadas")
	}

	return rowsAffected > 0, nil
}

func (r *salePostgresRepository) Find(ctx context.Context, filter domain.SaleFilter, sort domain.SortSpec, page domain.Page) ([]*domain.Sale, error) {
	builder := withFilter(psql.Select(saleColumns).From(salesTable), filter).
		OrderBy(orderByClause(sort)...)

	if page.Limit > 0 {
		builder = builder.Limit(uint64(page.Limit)).Offset(uint64(page.Skip()))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPqError(err, "erro ao listar vendas")
	}
	defer rows.Close()

	sales := make([]*domain.Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, errors.Wrap(err, "erro ao escanear venda")
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "erro durante a iteração de linhas")
	}

	return sales, nil
}

func (r *salePostgresRepository) Count(ctx context.Context, filter domain.SaleFilter) (int64, error) {
	query, args, err := withFilter(psql.Select("COUNT(*)").From(salesTable), filter).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "erro ao construir a query")
	}

	var total int64
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, wrapPqError(err, "erro ao contar vendas")
	}

	return total, nil
}

func (r *salePostgresRepository) Summarize(ctx context.Context, filter domain.SaleFilter) (domain.OverviewStats, error) {
	query, args, err := withFilter(psql.
		Select(
			"COALESCE(SUM(price_amount), 0)",
			"COALESCE(SUM(product_quantity), 0)",
			"COALESCE(AVG(price_amount), 0)",
			"COUNT(*)",
			"COALESCE(MIN(price_amount), 0)",
			"COALESCE(MAX(price_amount), 0)",
		).
		From(salesTable), filter).
		ToSql()
	if err != nil {
		return domain.OverviewStats{}, errors.Wrap(err, "erro ao construir a query")
	}

	var (
		totalSales, averagePrice, minPrice, maxPrice decimal.Decimal
		stats                                        domain.OverviewStats
	)

	err = r.conn.QueryRowContext(ctx, query, args...).Scan(
		&totalSales,
		&stats.TotalQuantity,
		&averagePrice,
		&stats.Count,
		&minPrice,
		&maxPrice,
	)
	if err != nil {
		return domain.OverviewStats{}, wrapPqError(err, "erro ao calcular estatísticas")
	}

	stats.TotalSales = totalSales.InexactFloat64()
	stats.AveragePrice = averagePrice.InexactFloat64()
	stats.MinPrice = minPrice.InexactFloat64()
	stats.MaxPrice = maxPrice.InexactFloat64()

	return stats, nil
}

func (r *salePostgresRepository) GroupBy(ctx context.Context, filter domain.SaleFilter, dimension domain.Dimension, limit int) ([]domain.GroupStat, error) {
	column, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("dimensão de agrupamento desconhecida: %s", dimension)
	}

	builder := withFilter(psql.
		Select(column, "COALESCE(SUM(price_amount), 0) AS total_sales", "COUNT(*)").
		From(salesTable), filter).
		GroupBy(column).
		OrderBy("total_sales DESC", column+" ASC NULLS LAST")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPqError(err, "erro ao agrupar vendas")
	}
	defer rows.Close()

	groups := make([]domain.GroupStat, 0)
	for rows.Next() {
		var (
			key   sql.NullString
			total decimal.Decimal
			group domain.GroupStat
		)

		if err := rows.Scan(&key, &total, &group.Count); err != nil {
			return nil, errors.Wrap(err, "erro ao escanear grupo")
		}

		if key.Valid {
			k := key.String
			group.Key = &k
		}
		group.TotalSales = total.InexactFloat64()

		groups = append(groups, group)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "erro durante a iteração de linhas")
	}

	return groups, nil
}

// withFilter aplica o predicado compilado; filtros de texto usam ILIKE com os curingas escapados
func withFilter(builder squirrel.SelectBuilder, filter domain.SaleFilter) squirrel.SelectBuilder {
	conditions := filterConditions(filter)
	if len(conditions) == 0 {
		return builder
	}
	return builder.Where(conditions)
}

func filterConditions(filter domain.SaleFilter) squirrel.And {
	conditions := squirrel.And{}

	if filter.Seller != "" {
		conditions = append(conditions, squirrel.ILike{"seller_name": containsPattern(filter.Seller)})
	}
	if filter.Buyer != "" {
		conditions = append(conditions, squirrel.ILike{"buyer_name": containsPattern(filter.Buyer)})
	}
	if filter.City != "" {
		conditions = append(conditions, squirrel.ILike{"address_city": containsPattern(filter.City)})
	}
	if filter.Category != "" {
		conditions = append(conditions, squirrel.ILike{"product_category": containsPattern(filter.Category)})
	}
	if filter.Status != "" {
		conditions = append(conditions, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.StartDate != nil {
		conditions = append(conditions, squirrel.GtOrEq{"sale_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		conditions = append(conditions, squirrel.LtOrEq{"sale_date": *filter.EndDate})
	}

	return conditions
}

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

func orderByClause(sort domain.SortSpec) []string {
	column, ok := sortColumns[sort.Field]
	if !ok {
		column = sortColumns[domain.SortBySaleDate]
	}

	direction := "DESC"
	if sort.Order == domain.SortAsc {
		direction = "ASC"
	}

	return []string{fmt.Sprintf("%s %s", column, direction), "id ASC"}
}

func saleValues(id string, sale *domain.Sale) []interface{} {
	var category interface{}
	if sale.Product.Category != nil {
		category = *sale.Product.Category
	}

	return []interface{}{
		id,
		sale.Seller.Name,
		sale.Buyer.Name,
		sale.Buyer.Phone,
		sale.Buyer.Email,
		sale.Address.Street,
		sale.Address.City,
		sale.Address.District,
		sale.Address.PostalCode,
		sale.Address.Country,
		sale.Product.Name,
		sale.Product.Description,
		sale.Product.Quantity,
		sale.Product.Unit,
		category,
		decimal.NewFromFloat(sale.Price.Amount),
		sale.Price.Currency,
		sale.SaleDate.UTC(),
		string(sale.Status),
		string(sale.DeliveryType),
		sale.Notes,
		sale.CreatedBy,
		sale.CreatedAt.UTC(),
		sale.UpdatedAt.UTC(),
		sale.LastModified.UTC(),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	var (
		sale     domain.Sale
		category sql.NullString
		amount   decimal.Decimal
		status   string
		delivery string
	)

	err := row.Scan(
		&sale.ID,
		&sale.Seller.Name,
		&sale.Buyer.Name,
		&sale.Buyer.Phone,
		&sale.Buyer.Email,
		&sale.Address.Street,
		&sale.Address.City,
		&sale.Address.District,
		&sale.Address.PostalCode,
		&sale.Address.Country,
		&sale.Product.Name,
		&sale.Product.Description,
		&sale.Product.Quantity,
		&sale.Product.Unit,
		&category,
		&amount,
		&sale.Price.Currency,
		&sale.SaleDate,
		&status,
		&delivery,
		&sale.Notes,
		&sale.CreatedBy,
		&sale.CreatedAt,
		&sale.UpdatedAt,
		&sale.LastModified,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		c := category.String
		sale.Product.Category = &c
	}
	sale.Price.Amount = amount.InexactFloat64()
	sale.Status = domain.SaleStatus(status)
	sale.DeliveryType = domain.DeliveryType(delivery)
	sale.SaleDate = sale.SaleDate.UTC()
	sale.CreatedAt = sale.CreatedAt.UTC()
	sale.UpdatedAt = sale.UpdatedAt.UTC()
	sale.LastModified = sale.LastModified.UTC()

	return &sale, nil
}

func wrapPqError(err error, message string) error {
	if pqErr, ok := err.(*pq.Error); ok {
		return errors.Wrapf(err, "%s (código: %s)", message, pqErr.Code)
	}
	return errors.Wrap(err, message)
}
