package handler

import (
	"errors"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/internal/usecases/selling"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes limita o corpo de criação e atualização
const maxBodyBytes = 10 << 20

const statsID = "stats"

// SalesOptions carrega o que os handlers precisam da configuração
type SalesOptions struct {
	Limits      selling.QueryLimits
	Development bool
}

type listResponse struct {
	Success    bool                 `json:"success"`
	Data       []*domain.Sale       `json:"data"`
	Pagination domain.Pagination    `json:"pagination"`
	Stats      domain.OverviewStats `json:"stats"`
}

type saleResponse struct {
	Success bool         `json:"success"`
	Data    *domain.Sale `json:"data"`
	Message string       `json:"message,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statsResponse struct {
	Success bool                  `json:"success"`
	Data    *domain.StatsOverview `json:"data"`
}

func ListSales(service selling.SalesService, opts SalesOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, err := selling.CompileQuery(r.URL.Query(), opts.Limits)
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		list, err := service.List(r.Context(), query)
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		data := list.Sales
		if data == nil {
			data = []*domain.Sale{}
		}

		writeJSON(w, r, http.StatusOK, listResponse{
			Success:    true,
			Data:       data,
			Pagination: list.Pagination,
			Stats:      list.Stats,
		})
	})
}

func GetSale(service selling.SalesService, opts SalesOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		sale, err := service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		writeJSON(w, r, http.StatusOK, saleResponse{Success: true, Data: sale})
	})
}

func CreateSale(service selling.SalesService, opts SalesOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}

		sale, err := service.CreateFromJSON(r.Context(), body)
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		writeJSON(w, r, http.StatusCreated, saleResponse{
			Success: true,
			Data:    sale,
			Message: "Venda criada com sucesso",
		})
	})
}

func UpdateSale(service selling.SalesService, opts SalesOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		body, ok := readBody(w, r)
		if !ok {
			return
		}

		sale, err := service.Update(r.Context(), id, body)
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		writeJSON(w, r, http.StatusOK, saleResponse{
			Success: true,
			Data:    sale,
			Message: "Venda atualizada com sucesso",
		})
	})
}

func DeleteSale(service selling.SalesService, opts SalesOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		if err := service.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		writeJSON(w, r, http.StatusOK, messageResponse{
			Success: true,
			Message: "Venda excluída com sucesso",
		})
	})
}

// SalesStatsOverview atende GET /api/sales/stats/overview. O httprouter não aceita
// um segmento estático ao lado de :id, então a rota é registrada como
// /api/sales/:id/overview e qualquer outro id resulta em 404.
func SalesStatsOverview(service selling.SalesService, opts SalesOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httprouter.ParamsFromContext(r.Context()).ByName("id") != statsID {
			NotFound().ServeHTTP(w, r)
			return
		}

		filter, err := selling.CompileDateRange(r.URL.Query())
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		overview, err := service.Overview(r.Context(), filter)
		if err != nil {
			writeServiceError(w, r, err, opts.Development)
			return
		}

		writeJSON(w, r, http.StatusOK, statsResponse{Success: true, Data: overview})
	})
}

// NotFound responde rotas inexistentes no mesmo formato dos demais erros
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiErrors.WriteError(w, apiErrors.ErrRouteNotFound, "Rota não encontrada", map[string]string{
			"path": r.URL.Path,
		})
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiErrors.WriteError(w, apiErrors.ErrMethodNotAllowed, "Método não permitido", map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiErrors.WriteError(w, apiErrors.ErrPayloadTooLarge, "Corpo da requisição excede o limite", nil)
			return nil, false
		}

		log.ForContext(r.Context()).WithError(err).Warn("Erro ao ler corpo da requisição")
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Não foi possível ler o corpo da requisição", nil)
		return nil, false
	}

	return body, true
}

// writeServiceError traduz os erros do caso de uso para a resposta HTTP
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, development bool) {
	logger := log.ForContext(r.Context())

	var validationErr *selling.ValidationError
	if errors.As(err, &validationErr) {
		apiErrors.WriteError(w, apiErrors.ErrValidationFailed, "Dados da venda inválidos", validationErr.Fields)
		return
	}

	var saleErr *selling.SaleError
	if errors.As(err, &saleErr) {
		if apiErrors.StatusFor(saleErr.Code) >= http.StatusInternalServerError {
			logger.WithError(err).Error("Erro ao processar venda")

			cause := saleErr.Cause
			if cause == nil {
				cause = err
			}
			apiErrors.WriteServerError(w, saleErr.Code, "Erro ao acessar o armazenamento de vendas", cause, development)
			return
		}

		message := saleErr.Details
		if message == "" {
			message = saleErr.Err.Error()
		}
		var details any
		if saleErr.SaleID != "" {
			details = map[string]string{"id": saleErr.SaleID}
		}
		apiErrors.WriteError(w, saleErr.Code, message, details)
		return
	}

	logger.WithError(err).Error("Erro inesperado ao processar venda")
	apiErrors.WriteServerError(w, apiErrors.ErrInternalServer, "Erro interno do servidor", err, development)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ForContext(r.Context()).WithError(err).Error("Erro ao codificar resposta")
	}
}
