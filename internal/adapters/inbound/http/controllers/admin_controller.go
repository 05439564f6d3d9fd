package controllers

import (
	"log"
	"net/http"
	"strings"

	"cryptosub/internal/adapters/inbound/http/middleware"
	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/go-chi/chi/v5"
)

type AdminController struct {
	completeUseCase portsin.AdminCompletePaymentUseCase
	cancelUseCase   portsin.AdminCancelPaymentUseCase
	logger          *log.Logger
}

type adminCompletePayload struct {
	TxHash *string `json:"tx_hash,omitempty" validate:"omitempty,max=128"`
}

func NewAdminController(
	completeUseCase portsin.AdminCompletePaymentUseCase,
	cancelUseCase portsin.AdminCancelPaymentUseCase,
	logger *log.Logger,
) *AdminController {
	return &AdminController{
		completeUseCase: completeUseCase,
		cancelUseCase:   cancelUseCase,
		logger:          logger,
	}
}

func (c *AdminController) CompletePayment(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		writeAppError(w, adminRequired())
		return
	}

	payload := adminCompletePayload{}
	if appErr := decodePayload(r.Body, &payload, true); appErr != nil {
		writeAppError(w, appErr)
		return
	}
	if payload.TxHash != nil {
		trimmed := strings.TrimSpace(*payload.TxHash)
		payload.TxHash = &trimmed
		if trimmed == "" {
			payload.TxHash = nil
		}
	}

	paymentID := chi.URLParam(r, "paymentID")
	output, appErr := c.completeUseCase.Execute(r.Context(), dto.AdminCompletePaymentCommand{
		PaymentID:       paymentID,
		AdminID:         adminID,
		TransactionHash: payload.TxHash,
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/admin/payments/{paymentID}/complete method=%s payment_id=%s admin_id=%s code=%s message=%s", r.Method, paymentID, adminID, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *AdminController) CancelPayment(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		writeAppError(w, adminRequired())
		return
	}

	paymentID := chi.URLParam(r, "paymentID")
	view, appErr := c.cancelUseCase.Execute(r.Context(), dto.AdminCancelPaymentCommand{
		PaymentID: paymentID,
		AdminID:   adminID,
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/admin/payments/{paymentID}/cancel method=%s payment_id=%s admin_id=%s code=%s message=%s", r.Method, paymentID, adminID, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func adminRequired() *apperrors.AppError {
	return apperrors.NewUnauthorized("admin_required", "admin identity is required", nil)
}
