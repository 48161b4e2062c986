package handler

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func HealthcheckHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, healthResponse{
			Status:    "OK",
			Message:   "Sistema de acompanhamento de vendas em execução",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
}
