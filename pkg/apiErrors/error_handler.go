package apiErrors

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Códigos de erro
const (
	// Erros de validação (2000-2999)
	ErrInvalidRequest   = "VAL_001" // Requisição inválida
	ErrValidationFailed = "VAL_002" // Campos obrigatórios ausentes ou inválidos
	ErrInvalidFormat    = "VAL_003" // Formato de dados inválido
	ErrInvalidQuery     = "VAL_004" // Parâmetros de consulta inválidos

	// Erros de vendas (3000-3999)
	ErrSaleNotFound = "SALE_001" // Venda não encontrada

	// Erros de roteamento
	ErrRouteNotFound    = "ROUTE_NOT_FOUND"
	ErrMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrPayloadTooLarge  = "PAYLOAD_TOO_LARGE"

	// Erros de controle de acesso
	ErrAPIKeyMissing    = "API_KEY_MISSING"
	ErrAPIKeyInvalid    = "API_KEY_INVALID"
	ErrIPNotAllowed     = "IP_NOT_ALLOWED"
	ErrDomainNotAllowed = "DOMAIN_NOT_ALLOWED"
	ErrRateLimited      = "RATE_LIMITED"

	// Erros do servidor (5000-5999)
	ErrInternalServer    = "SRV_001" // Erro interno do servidor
	ErrDatabaseOperation = "SRV_002" // Erro de operação de banco de dados
)

// Mapeamento de códigos de erro para status HTTP
var httpStatusMap = map[string]int{
	ErrInvalidRequest:    http.StatusBadRequest,
	ErrValidationFailed:  http.StatusBadRequest,
	ErrInvalidFormat:     http.StatusBadRequest,
	ErrInvalidQuery:      http.StatusBadRequest,
	ErrSaleNotFound:      http.StatusNotFound,
	ErrRouteNotFound:     http.StatusNotFound,
	ErrMethodNotAllowed:  http.StatusMethodNotAllowed,
	ErrPayloadTooLarge:   http.StatusRequestEntityTooLarge,
	ErrAPIKeyMissing:     http.StatusUnauthorized,
	ErrAPIKeyInvalid:     http.StatusUnauthorized,
	ErrIPNotAllowed:      http.StatusForbidden,
	ErrDomainNotAllowed:  http.StatusForbidden,
	ErrRateLimited:       http.StatusTooManyRequests,
	ErrInternalServer:    http.StatusInternalServerError,
	ErrDatabaseOperation: http.StatusInternalServerError,
}

// StatusFor devolve o status HTTP do código; códigos desconhecidos resultam em 500
func StatusFor(code string) int {
	status, exists := httpStatusMap[code]
	if !exists {
		return http.StatusInternalServerError
	}
	return status
}

// APIError representa um erro de API padronizado
type APIError struct {
	Success bool   `json:"success"`
	Code    string `json:"error"`             // Código de erro para o cliente
	Message string `json:"message,omitempty"` // Mensagem descritiva (opcional)
	Details any    `json:"details,omitempty"` // Detalhes adicionais (opcional)
}

// WriteError escreve o erro padronizado para a resposta HTTP
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	apiErr := APIError{
		Success: false,
		Code:    code,
		Message: message,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	json.NewEncoder(w).Encode(apiErr)
}

// WriteServerError escreve um erro 500; o texto do erro original só vai para
// o cliente em desenvolvimento
func WriteServerError(w http.ResponseWriter, code string, message string, err error, development bool) {
	var details any
	if development && err != nil {
		details = err.Error()
	}
	WriteError(w, code, message, details)
}
