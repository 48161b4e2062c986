package domain

import (
	"strings"
)

// SaleInput é o candidato a venda recebido pela API, antes da validação.
// Os campos cuja ausência precisa ser distinguida do valor zero são ponteiros.
type SaleInput struct {
	Seller       SellerInput  `json:"seller"`
	Buyer        BuyerInput   `json:"buyer"`
	Address      AddressInput `json:"address"`
	Product      ProductInput `json:"product"`
	Price        PriceInput   `json:"price"`
	SaleDate     *InputDate   `json:"saleDate"`
	Status       SaleStatus   `json:"status" validate:"oneof=pending completed shipped cancelled refunded"`
	DeliveryType DeliveryType `json:"deliveryType" validate:"oneof=kargo elden bayi"`
	Notes        string       `json:"notes" validate:"max=1000"`
	CreatedBy    string       `json:"createdBy" validate:"max=100"`
}

type SellerInput struct {
	Name string `json:"name" validate:"omitempty,max=100"`
}

type BuyerInput struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Phone string `json:"phone" validate:"max=20"`
	Email string `json:"email" validate:"max=100"`
}

type AddressInput struct {
	Street     string `json:"street" validate:"omitempty,max=500"`
	City       string `json:"city" validate:"omitempty,max=50"`
	District   string `json:"district" validate:"max=50"`
	PostalCode string `json:"postalCode" validate:"max=10"`
	Country    string `json:"country" validate:"max=50"`
}

type ProductInput struct {
	Name        string  `json:"name" validate:"omitempty,max=200"`
	Description string  `json:"description" validate:"max=500"`
	Quantity    *int    `json:"quantity" validate:"omitempty,min=1"`
	Unit        string  `json:"unit" validate:"max=20"`
	Category    *string `json:"category"`
}

type PriceInput struct {
	Amount   *float64 `json:"amount" validate:"omitempty,min=0"`
	Currency string   `json:"currency" validate:"max=3"`
}

// Normalize remove espaços, coloca o email em minúsculas e aplica os valores padrão.
// A data da venda só recebe padrão na criação.
func (in *SaleInput) Normalize() {
	in.Seller.Name = strings.TrimSpace(in.Seller.Name)

	in.Buyer.Name = strings.TrimSpace(in.Buyer.Name)
	in.Buyer.Phone = strings.TrimSpace(in.Buyer.Phone)
	in.Buyer.Email = strings.ToLower(strings.TrimSpace(in.Buyer.Email))

	in.Address.Street = strings.TrimSpace(in.Address.Street)
	in.Address.City = strings.TrimSpace(in.Address.City)
	in.Address.District = strings.TrimSpace(in.Address.District)
	in.Address.PostalCode = strings.TrimSpace(in.Address.PostalCode)
	in.Address.Country = strings.TrimSpace(in.Address.Country)

	in.Product.Name = strings.TrimSpace(in.Product.Name)
	in.Product.Description = strings.TrimSpace(in.Product.Description)
	in.Product.Unit = strings.TrimSpace(in.Product.Unit)
	if in.Product.Category != nil {
		category := strings.TrimSpace(*in.Product.Category)
		if category == "" {
			in.Product.Category = nil
		} else {
			in.Product.Category = &category
		}
	}

	in.Price.Currency = strings.TrimSpace(in.Price.Currency)
	in.Notes = strings.TrimSpace(in.Notes)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)

	if in.Address.Country == "" {
		in.Address.Country = DefaultCountry
	}
	if in.Product.Unit == "" {
		in.Product.Unit = DefaultUnit
	}
	if in.Price.Currency == "" {
		in.Price.Currency = DefaultCurrency
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}
	if in.DeliveryType == "" {
		in.DeliveryType = DefaultDeliveryType
	}
	if in.CreatedBy == "" {
		in.CreatedBy = DefaultCreatedBy
	}
}

// ToSale converte um candidato já validado na entidade persistível
func (in *SaleInput) ToSale() *Sale {
	sale := &Sale{
		Seller: Seller{Name: in.Seller.Name},
		Buyer: Buyer{
			Name:  in.Buyer.Name,
			Phone: in.Buyer.Phone,
			Email: in.Buyer.Email,
		},
		Address: Address{
			Street:     in.Address.Street,
			City:       in.Address.City,
			District:   in.Address.District,
			PostalCode: in.Address.PostalCode,
			Country:    in.Address.Country,
		},
		Product: Product{
			Name:        in.Product.Name,
			Description: in.Product.Description,
			Unit:        in.Product.Unit,
		},
		Price: Price{
			Currency: in.Price.Currency,
		},
		Status:       in.Status,
		DeliveryType: in.DeliveryType,
		Notes:        in.Notes,
		CreatedBy:    in.CreatedBy,
	}

	if in.Product.Quantity != nil {
		sale.Product.Quantity = *in.Product.Quantity
	}
	if in.Product.Category != nil {
		category := *in.Product.Category
		sale.Product.Category = &category
	}
	if in.Price.Amount != nil {
		sale.Price.Amount = *in.Price.Amount
	}
	if in.SaleDate != nil {
		sale.SaleDate = in.SaleDate.Time
	}

	return sale
}

// InputFromSale reconstrói o candidato a partir de uma venda persistida,
// usado como base para atualizações parciais
func InputFromSale(s *Sale) *SaleInput {
	quantity := s.Product.Quantity
	amount := s.Price.Amount

	in := &SaleInput{
		Seller: SellerInput{Name: s.Seller.Name},
		Buyer: BuyerInput{
			Name:  s.Buyer.Name,
			Phone: s.Buyer.Phone,
			Email: s.Buyer.Email,
		},
		Address: AddressInput{
			Street:     s.Address.Street,
			City:       s.Address.City,
			District:   s.Address.District,
			PostalCode: s.Address.PostalCode,
			Country:    s.Address.Country,
		},
		Product: ProductInput{
			Name:        s.Product.Name,
			Description: s.Product.Description,
			Quantity:    &quantity,
			Unit:        s.Product.Unit,
		},
		Price: PriceInput{
			Amount:   &amount,
			Currency: s.Price.Currency,
		},
		SaleDate:     NewInputDate(s.SaleDate),
		Status:       s.Status,
		DeliveryType: s.DeliveryType,
		Notes:        s.Notes,
		CreatedBy:    s.CreatedBy,
	}

	if s.Product.Category != nil {
		category := *s.Product.Category
		in.Product.Category = &category
	}

	return in
}
