package controllers

import (
	"log"
	"net/http"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"

	"github.com/go-chi/chi/v5"
)

// userVerifyAttempts keeps the user-facing check to a single pass; the poller does retries.
const userVerifyAttempts = 1

type PaymentsController struct {
	createUseCase portsin.CreatePaymentRequestUseCase
	statusUseCase portsin.GetPaymentStatusUseCase
	verifyUseCase portsin.VerifyPaymentUseCase
	logger        *log.Logger
}

type createPaymentPayload struct {
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
	Tier       string `json:"tier" validate:"required"`
	CryptoType string `json:"crypto_type" validate:"required"`
}

func NewPaymentsController(
	createUseCase portsin.CreatePaymentRequestUseCase,
	statusUseCase portsin.GetPaymentStatusUseCase,
	verifyUseCase portsin.VerifyPaymentUseCase,
	logger *log.Logger,
) *PaymentsController {
	return &PaymentsController{
		createUseCase: createUseCase,
		statusUseCase: statusUseCase,
		verifyUseCase: verifyUseCase,
		logger:        logger,
	}
}

func (c *PaymentsController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	payload := createPaymentPayload{}
	if appErr := decodePayload(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	resource, appErr := c.createUseCase.Execute(r.Context(), dto.CreatePaymentRequestCommand{
		UserID:     payload.UserID,
		Tier:       payload.Tier,
		CryptoType: payload.CryptoType,
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/payments method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/payments/"+resource.PaymentID)
	writeJSON(w, http.StatusCreated, resource)
}

func (c *PaymentsController) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	view, appErr := c.statusUseCase.Execute(r.Context(), dto.GetPaymentStatusQuery{PaymentID: paymentID})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/payments/{paymentID} method=%s payment_id=%s code=%s message=%s", r.Method, paymentID, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// VerifyPayment is the user "check payment" action. It never fails; an inconclusive check
// is reported as verified=false.
func (c *PaymentsController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	output := c.verifyUseCase.Execute(r.Context(), dto.VerifyPaymentCommand{
		PaymentID:   paymentID,
		Trigger:     dto.VerifyTriggerUser,
		MaxAttempts: userVerifyAttempts,
	})

	writeJSON(w, http.StatusOK, output)
}
