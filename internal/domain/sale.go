// Package domain contém as estruturas de dados do domínio da aplicação
package domain

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusShipped   SaleStatus = "shipped"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// SaleStatuses lista os status aceitos, na ordem em que são documentados
var SaleStatuses = []SaleStatus{
	SaleStatusPending,
	SaleStatusCompleted,
	SaleStatusShipped,
	SaleStatusCancelled,
	SaleStatusRefunded,
}

func (s SaleStatus) IsValid() bool {
	for _, status := range SaleStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type DeliveryType string

const (
	DeliveryTypeCourier DeliveryType = "kargo"
	DeliveryTypeHand    DeliveryType = "elden"
	DeliveryTypeDealer  DeliveryType = "bayi"
)

const (
	DefaultCountry      = "Türkiye"
	DefaultUnit         = "adet"
	DefaultCurrency     = "TRY"
	DefaultCreatedBy    = "system"
	DefaultStatus       = SaleStatusCompleted
	DefaultDeliveryType = DeliveryTypeCourier
)

type Seller struct {
	Name string `json:"name"`
}

type Buyer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	District   string `json:"district,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

// Formatted monta o endereço para exibição; o resultado nunca é persistido
func (a Address) Formatted() string {
	var sb strings.Builder

	sb.WriteString(a.Street)
	sb.WriteString(", ")
	if a.District != "" {
		sb.WriteString(a.District)
		sb.WriteString(", ")
	}
	sb.WriteString(a.City)
	sb.WriteString(" ")
	sb.WriteString(a.PostalCode)
	sb.WriteString(", ")
	sb.WriteString(a.Country)

	return strings.TrimSpace(sb.String())
}

type Product struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	Unit        string  `json:"unit"`
	Category    *string `json:"category,omitempty"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Sale é a única entidade persistida: uma venda entre vendedor e comprador
type Sale struct {
	ID           string       `json:"id"`
	Seller       Seller       `json:"seller"`
	Buyer        Buyer        `json:"buyer"`
	Address      Address      `json:"address"`
	Product      Product      `json:"product"`
	Price        Price        `json:"price"`
	SaleDate     time.Time    `json:"saleDate"`
	Status       SaleStatus   `json:"status"`
	DeliveryType DeliveryType `json:"deliveryType"`
	Notes        string       `json:"notes,omitempty"`
	CreatedBy    string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	LastModified time.Time    `json:"lastModified"`
}

// TotalAmount é sempre igual ao valor do preço
func (s *Sale) TotalAmount() float64 {
	return s.Price.Amount
}

// Clone devolve uma cópia independente da venda
func (s *Sale) Clone() *Sale {
	c := *s
	if s.Product.Category != nil {
		category := *s.Product.Category
		c.Product.Category = &category
	}
	return &c
}

// saleDocument evita recursão no MarshalJSON
type saleDocument Sale

// MarshalJSON acrescenta os campos derivados totalAmount e formattedAddress
func (s Sale) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		saleDocument
		TotalAmount      float64 `json:"totalAmount"`
		FormattedAddress string  `json:"formattedAddress"`
	}{
		saleDocument:     saleDocument(s),
		TotalAmount:      s.TotalAmount(),
		FormattedAddress: s.Address.Formatted(),
	})
}

// UnmarshalJSON ignora os campos derivados no documento
func (s *Sale) UnmarshalJSON(data []byte) error {
	var doc saleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = Sale(doc)
	return nil
}
