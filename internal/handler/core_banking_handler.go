// internal/handler/core_banking_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"core-banking-service/internal/domain"

	"go.uber.org/zap"
)

const (
	maxRequestBodyBytes = 1 << 20

	corsAllowOrigin  = "*"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// Bridge is what the handler needs from the bridge usecase.
type Bridge interface {
	Execute(ctx context.Context, req *domain.CoreBankingRequest) (*domain.Result, error)
	Reject(ctx context.Context, cause error) *domain.Result
}

type CoreBankingHandler struct {
	bridge Bridge
	logger *zap.Logger
}

func NewCoreBankingHandler(bridge Bridge, logger *zap.Logger) *CoreBankingHandler {
	return &CoreBankingHandler{
		bridge: bridge,
		logger: logger,
	}
}

// HandlePreflight answers CORS preflight requests.
func (h *CoreBankingHandler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleCoreBanking runs one core banking operation posted by the portal
func (h *CoreBankingHandler) HandleCoreBanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setCORSHeaders(w)

	var req domain.CoreBankingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode core banking request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		h.sendResult(w, http.StatusBadRequest, h.bridge.Reject(ctx, err))
		return
	}

	res, err := h.bridge.Execute(ctx, &req)
	status := statusFor(err)

	if err != nil {
		h.logger.Warn("core banking request not completed",
			zap.String("operation", string(req.Operation)),
			zap.Int("http_status", status),
			zap.Error(err))
	} else {
		h.logger.Info("core banking request completed",
			zap.String("operation", string(req.Operation)),
			zap.Bool("success", res.Success),
			zap.Int("status_code", res.StatusCode),
			zap.String("confirmation", res.ConfirmationNumber))
	}

	h.sendResult(w, status, res)
}

// statusFor maps the bridge error to an HTTP status. Banking failures come
// back with a nil error and are answered 200.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrUnknownOperation), errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *CoreBankingHandler) sendResult(w http.ResponseWriter, statusCode int, res *domain.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(res.Public()); err != nil {
		h.logger.Error("failed to write core banking response", zap.Error(err))
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", corsAllowOrigin)
	w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
}
