package handler

import (
	"encoding/json"
	"net/http"

	apperrors "payment-orchestrator/internal/core/errors"
)

type HttpResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

type BaseHandler struct{}

func (b *BaseHandler) RespondWithError(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.String(),
	})
}

// RespondWithException maps a core Exception onto the error envelope.
// Exception codes are HTTP status codes already.
func (b *BaseHandler) RespondWithException(w http.ResponseWriter, r *http.Request, exc *apperrors.Exception) {
	b.RespondWithError(w, r, exc.Code, http.StatusText(exc.Code), exc.Message)
}

func (b *BaseHandler) RespondWithSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(HttpResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
