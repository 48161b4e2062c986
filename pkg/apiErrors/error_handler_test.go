package apiErrors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantStatus int
	}{
		{"Validação", ErrValidationFailed, http.StatusBadRequest},
		{"Venda não encontrada", ErrSaleNotFound, http.StatusNotFound},
		{"API key ausente", ErrAPIKeyMissing, http.StatusUnauthorized},
		{"IP bloqueado", ErrIPNotAllowed, http.StatusForbidden},
		{"Rate limit", ErrRateLimited, http.StatusTooManyRequests},
		{"Código desconhecido", "XYZ", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.code, "mensagem", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["error"])
			assert.NotContains(t, body, "details")
		})
	}
}

func TestWriteServerError(t *testing.T) {
	cause := errors.New("conexão recusada")

	rec := httptest.NewRecorder()
	WriteServerError(rec, ErrDatabaseOperation, "Erro ao listar vendas", cause, true)
	assert.Contains(t, rec.Body.String(), "conexão recusada")

	rec = httptest.NewRecorder()
	WriteServerError(rec, ErrDatabaseOperation, "Erro ao listar vendas", cause, false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "conexão recusada")
}
