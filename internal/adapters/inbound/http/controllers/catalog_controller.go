package controllers

import (
	"log"
	"net/http"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"

	"github.com/go-chi/chi/v5"
)

type CatalogController struct {
	currenciesUseCase   portsin.ListCurrenciesUseCase
	subscriptionUseCase portsin.GetUserSubscriptionUseCase
	logger              *log.Logger
}

func NewCatalogController(
	currenciesUseCase portsin.ListCurrenciesUseCase,
	subscriptionUseCase portsin.GetUserSubscriptionUseCase,
	logger *log.Logger,
) *CatalogController {
	return &CatalogController{
		currenciesUseCase:   currenciesUseCase,
		subscriptionUseCase: subscriptionUseCase,
		logger:              logger,
	}
}

func (c *CatalogController) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.currenciesUseCase.Execute(r.Context(), dto.ListCurrenciesQuery{})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/currencies method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *CatalogController) GetUserSubscription(w http.ResponseWriter, r *http.Request) {
	userID, appErr := parseUserID(chi.URLParam(r, "userID"))
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	view, appErr := c.subscriptionUseCase.Execute(r.Context(), dto.GetUserSubscriptionQuery{UserID: userID})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/users/{userID}/subscription method=%s user_id=%d code=%s message=%s", r.Method, userID, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
