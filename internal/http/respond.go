package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindInvalidQuantity:         http.StatusBadRequest,
	domain.KindInvalidAddress:          http.StatusBadRequest,
	domain.KindEmptySettlement:         http.StatusBadRequest,
	domain.KindSkuNotFound:             http.StatusNotFound,
	domain.KindOrderNotFound:           http.StatusNotFound,
	domain.KindAddressNotFound:         http.StatusNotFound,
	domain.KindInsufficientStock:       http.StatusConflict,
	domain.KindInvalidStatusTransition: http.StatusConflict,
	domain.KindSettlementPersistence:   http.StatusInternalServerError,
}

// handleError maps domain error kinds to HTTP statuses. Anything else is
// logged and reported as an internal error without its message.
func handleError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := kindStatus[de.Kind]
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", getRequestID(r.Context())),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			respondJSON(w, status, ErrorResponse{Error: de.Message, Code: string(de.Kind), Details: "the order may need manual reconciliation"})
			return
		}
		respondError(w, status, string(de.Kind), de.Message)
		return
	}

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog temporarily unavailable")
	default:
		logger.Error("request failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
