package domain

import (
	"strings"
	"time"
)

// SaleFilter é o predicado compilado a partir dos parâmetros da requisição.
// Todos os campos são opcionais e combinados com AND.
type SaleFilter struct {
	Seller    string
	Buyer     string
	City      string
	Category  string
	Status    SaleStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// Matches avalia o filtro em memória; os repositórios SQL traduzem o mesmo
// predicado para a sua própria linguagem
func (f SaleFilter) Matches(s *Sale) bool {
	if f.Seller != "" && !containsFold(s.Seller.Name, f.Seller) {
		return false
	}
	if f.Buyer != "" && !containsFold(s.Buyer.Name, f.Buyer) {
		return false
	}
	if f.City != "" && !containsFold(s.Address.City, f.City) {
		return false
	}
	if f.Category != "" && (s.Product.Category == nil || !containsFold(*s.Product.Category, f.Category)) {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.StartDate != nil && s.SaleDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && s.SaleDate.After(*f.EndDate) {
		return false
	}
	return true
}

func containsFold(value, substr string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}

type SortField string

const (
	SortBySaleDate        SortField = "saleDate"
	SortByCreatedAt       SortField = "createdAt"
	SortByUpdatedAt       SortField = "updatedAt"
	SortByLastModified    SortField = "lastModified"
	SortByPriceAmount     SortField = "price.amount"
	SortByProductQuantity SortField = "product.quantity"
	SortBySellerName      SortField = "seller.name"
	SortByBuyerName       SortField = "buyer.name"
	SortByAddressCity     SortField = "address.city"
	SortByStatus          SortField = "status"
)

// SortableFields é a lista de campos aceitos em sortBy
var SortableFields = []SortField{
	SortBySaleDate,
	SortByCreatedAt,
	SortByUpdatedAt,
	SortByLastModified,
	SortByPriceAmount,
	SortByProductQuantity,
	SortBySellerName,
	SortByBuyerName,
	SortByAddressCity,
	SortByStatus,
}

func (f SortField) IsValid() bool {
	for _, field := range SortableFields {
		if f == field {
			return true
		}
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type SortSpec struct {
	Field SortField
	Order SortOrder
}

// Compare ordena duas vendas pelo campo escolhido; empates são resolvidos
// pelo id em ordem crescente para que a paginação seja estável
func (s SortSpec) Compare(a, b *Sale) int {
	c := compareByField(s.Field, a, b)
	if s.Order == SortDesc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareByField(field SortField, a, b *Sale) int {
	switch field {
	case SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortByLastModified:
		return a.LastModified.Compare(b.LastModified)
	case SortByPriceAmount:
		return compareFloat(a.Price.Amount, b.Price.Amount)
	case SortByProductQuantity:
		return a.Product.Quantity - b.Product.Quantity
	case SortBySellerName:
		return strings.Compare(a.Seller.Name, b.Seller.Name)
	case SortByBuyerName:
		return strings.Compare(a.Buyer.Name, b.Buyer.Name)
	case SortByAddressCity:
		return strings.Compare(a.Address.City, b.Address.City)
	case SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return a.SaleDate.Compare(b.SaleDate)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Page é a janela de paginação, com página começando em 1
type Page struct {
	Number int
	Limit  int
}

func (p Page) Skip() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// SaleQuery agrupa filtro, ordenação e paginação de uma listagem
type SaleQuery struct {
	Filter SaleFilter
	Sort   SortSpec
	Page   Page
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int64 `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// NewPagination calcula o total de páginas como ceil(total/limit); zero itens resultam em zero páginas
func NewPagination(page Page, totalItems int64) Pagination {
	var totalPages int64
	if page.Limit > 0 {
		limit := int64(page.Limit)
		totalPages = (totalItems + limit - 1) / limit
	}

	return Pagination{
		CurrentPage:  page.Number,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: page.Limit,
	}
}

// SaleList é o resultado da listagem: a página, a paginação e as estatísticas do filtro completo
type SaleList struct {
	Sales      []*Sale       `json:"data"`
	Pagination Pagination    `json:"pagination"`
	Stats      OverviewStats `json:"stats"`
}
