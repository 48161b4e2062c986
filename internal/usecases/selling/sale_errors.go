package selling

import (
	"errors"
	"fmt"
	"strings"
)

// Erros específicos para o contexto de vendas
var (
	ErrSaleNotFound      = errors.New("sale not found")
	ErrValidation        = errors.New("sale validation failed")
	ErrInvalidQuery      = errors.New("invalid query parameters")
	ErrInvalidPayload    = errors.New("invalid request payload")
	ErrDatabaseOperation = errors.New("database operation error")
)

// SaleError é um erro com contexto adicional para vendas
type SaleError struct {
	Err     error  // Erro base
	Code    string // Código de erro para API
	SaleID  string // ID da venda envolvida (quando aplicável)
	Details string // Detalhes adicionais
	Cause   error  // Erro original do repositório, exibido apenas em desenvolvimento
}

func (e *SaleError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *SaleError) Unwrap() error {
	return e.Err
}

func NewSaleError(err error, code string, details string) *SaleError {
	return &SaleError{
		Err:     err,
		Code:    code,
		Details: details,
	}
}

func NewSaleErrorWithID(err error, code string, saleID string, details string) *SaleError {
	return &SaleError{
		Err:     err,
		Code:    code,
		SaleID:  saleID,
		Details: details,
	}
}

// FieldError descreve um campo inválido pelo seu caminho pontuado, ex: "product.quantity"
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reúne todas as violações encontradas em uma única passada
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(messages, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Messages devolve apenas as mensagens, na ordem em que foram encontradas
func (e *ValidationError) Messages() []string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return messages
}

// HasField indica se o caminho já foi reportado
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
