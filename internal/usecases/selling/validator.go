package selling

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
)

// requiredField é um acessor tipado que informa se o campo obrigatório está presente
type requiredField struct {
	path    string
	present func(in *domain.SaleInput) bool
}

var requiredFields = []requiredField{
	{"seller.name", func(in *domain.SaleInput) bool { return in.Seller.Name != "" }},
	{"buyer.name", func(in *domain.SaleInput) bool { return in.Buyer.Name != "" }},
	{"address.street", func(in *domain.SaleInput) bool { return in.Address.Street != "" }},
	{"address.city", func(in *domain.SaleInput) bool { return in.Address.City != "" }},
	{"product.name", func(in *domain.SaleInput) bool { return in.Product.Name != "" }},
	// zero é presente: a regra min=1 reporta a quantidade inválida
	{"product.quantity", func(in *domain.SaleInput) bool { return in.Product.Quantity != nil }},
	{"price.amount", func(in *domain.SaleInput) bool { return in.Price.Amount != nil }},
	// a criação preenche a data; só uma atualização com null chega aqui sem ela
	{"saleDate", func(in *domain.SaleInput) bool { return in.SaleDate != nil }},
}

var fieldLabels = map[string]string{
	"seller.name":         "Nome do vendedor",
	"buyer.name":          "Nome do comprador",
	"buyer.phone":         "Telefone",
	"buyer.email":         "Email",
	"address.street":      "Endereço",
	"address.city":        "Cidade",
	"address.district":    "Bairro",
	"address.postalCode":  "Código postal",
	"address.country":     "País",
	"product.name":        "Nome do produto",
	"product.description": "Descrição do produto",
	"product.quantity":    "Quantidade",
	"product.unit":        "Unidade",
	"price.amount":        "Preço",
	"price.currency":      "Moeda",
	"status":              "Status",
	"deliveryType":        "Tipo de entrega",
	"notes":               "Notas",
	"createdBy":           "Criado por",
	"saleDate":            "Data da venda",
	"seller":              "Vendedor",
	"buyer":               "Comprador",
	"address":             "Endereço",
	"product":             "Produto",
	"price":               "Preço",
}

func label(path string) string {
	if l, ok := fieldLabels[path]; ok {
		return l
	}
	return path
}

// Validator aplica as regras de presença e de formato a um candidato já normalizado
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// os erros usam os nomes do JSON para que o caminho pontuado coincida com o documento
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Validate devolve a venda pronta para persistir ou um *ValidationError com todas as violações.
// typeErrs são os campos que não puderam ser decodificados e entram no mesmo relatório.
func (v *Validator) Validate(in *domain.SaleInput, typeErrs ...FieldError) (*domain.Sale, error) {
	verr := &ValidationError{Fields: append([]FieldError(nil), typeErrs...)}

	for _, field := range requiredFields {
		if !field.present(in) && !verr.HasField(field.path) {
			verr.Fields = append(verr.Fields, FieldError{
				Field:   field.path,
				Message: fmt.Sprintf("%s é obrigatório", label(field.path)),
			})
		}
	}

	if err := v.validate.Struct(in); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}

		for _, fe := range fieldErrs {
			path := fieldPath(fe)
			if verr.HasField(path) {
				continue
			}
			verr.Fields = append(verr.Fields, FieldError{
				Field:   path,
				Message: shapeMessage(path, fe),
			})
		}
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	return in.ToSale(), nil
}

// fieldPath remove o nome da struct raiz do namespace: "SaleInput.product.quantity" -> "product.quantity"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func shapeMessage(path string, fe validator.FieldError) string {
	name := label(path)

	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s não pode ter mais de %s caracteres", name, fe.Param())
	case "min":
		if path == "price.amount" {
			return fmt.Sprintf("%s não pode ser negativo", name)
		}
		return fmt.Sprintf("%s deve ser no mínimo %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s inválido: %v (valores aceitos: %s)", name, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s inválido", name)
	}
}
