//go:build !integration

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cryptosub/internal/adapters/inbound/http/controllers"
	"cryptosub/internal/adapters/inbound/http/middleware"
	"cryptosub/internal/adapters/outbound/docs"
	"cryptosub/internal/adapters/outbound/persistence/memory"
	"cryptosub/internal/adapters/outbound/wallet/static"
	"cryptosub/internal/application/dto"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/application/use_cases"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/keyedmutex"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const (
	testAdminSecret = "router-test-secret"
	testBTCAddress  = "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"
)

func TestRouterHealthAndSwaggerRoutes(t *testing.T) {
	handler := newTestRouter(t, &stubChainGateway{})

	t.Run("healthz returns 200", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/healthz", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Fatalf("expected body to contain status ok, got %s", rec.Body.String())
		}
	})

	t.Run("swagger root redirects to index", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/swagger", "", "")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
		}
		if location := rec.Header().Get("Location"); location != "/swagger/index.html" {
			t.Fatalf("expected redirect location /swagger/index.html, got %q", location)
		}
	})

	t.Run("openapi spec is served", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/swagger/openapi.yaml", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "openapi: 3.0.3") {
			t.Fatalf("expected openapi version 3.0.3 in body, got %s", rec.Body.String())
		}
	})

	t.Run("metrics endpoint is served", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/metrics", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("healthz rejects POST", func(t *testing.T) {
		rec := serve(handler, http.MethodPost, "/healthz", "", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}

func TestRouterPaymentLifecycle(t *testing.T) {
	gateway := &stubChainGateway{verified: true, hash: "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16"}
	handler := newTestRouter(t, gateway)

	rec := serve(handler, http.MethodPost, "/v1/payments", `{"user_id":7,"tier":"basic","crypto_type":"BTC"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	created := dto.PaymentRequestResource{}
	decodeBody(t, rec, &created)
	if rec.Header().Get("Location") != "/v1/payments/"+created.PaymentID {
		t.Fatalf("expected Location header for %s, got %q", created.PaymentID, rec.Header().Get("Location"))
	}
	if created.PayToAddress != testBTCAddress || !strings.Contains(created.PaymentURL, testBTCAddress) {
		t.Fatalf("expected payment url to contain the wallet address, got %+v", created)
	}

	rec = serve(handler, http.MethodGet, "/v1/payments/"+created.PaymentID, "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"pending"`) {
		t.Fatalf("expected pending payment, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(handler, http.MethodGet, "/v1/users/7/subscription", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before activation, got %d", rec.Code)
	}

	rec = serve(handler, http.MethodPost, "/v1/payments/"+created.PaymentID+"/verify", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	verified := dto.VerifyPaymentOutput{}
	decodeBody(t, rec, &verified)
	if !verified.Verified || verified.Status != "completed" {
		t.Fatalf("expected completed verification, got %+v", verified)
	}

	rec = serve(handler, http.MethodGet, "/v1/users/7/subscription", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"tier":"basic"`) {
		t.Fatalf("expected active basic subscription, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(handler, http.MethodPost, "/v1/admin/payments/"+created.PaymentID+"/cancel", "", adminToken(t))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected completed payment cancel to conflict, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouterCreatePaymentValidation(t *testing.T) {
	handler := newTestRouter(t, &stubChainGateway{})

	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{name: "missing user", body: `{"tier":"basic","crypto_type":"BTC"}`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"user_id":1,"tier":"basic","crypto_type":"BTC","memo":"x"}`, status: http.StatusBadRequest},
		{name: "unsupported tier", body: `{"user_id":1,"tier":"gold","crypto_type":"BTC"}`, status: http.StatusBadRequest},
		{name: "unconfigured wallet", body: `{"user_id":1,"tier":"basic","crypto_type":"ETH"}`, status: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(handler, http.MethodPost, "/v1/payments", tc.body, "")
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d body=%s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouterAdminRoutesRequireToken(t *testing.T) {
	handler := newTestRouter(t, &stubChainGateway{})

	rec := serve(handler, http.MethodPost, "/v1/admin/payments/btc_missing/complete", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = serve(handler, http.MethodPost, "/v1/admin/payments/btc_missing/complete", "", adminToken(t))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown payment, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouterAdminCompleteWithoutChainMatch(t *testing.T) {
	handler := newTestRouter(t, &stubChainGateway{})

	rec := serve(handler, http.MethodPost, "/v1/payments", `{"user_id":9,"tier":"pro","crypto_type":"BTC"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	created := dto.PaymentRequestResource{}
	decodeBody(t, rec, &created)

	rec = serve(handler, http.MethodPost, "/v1/admin/payments/"+created.PaymentID+"/complete", `{"tx_hash":"manual-transfer-0001"}`, adminToken(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	output := dto.AdminCompletePaymentOutput{}
	decodeBody(t, rec, &output)
	if output.Status != "completed" || output.VerifiedOnChain || output.VerifiedByAdmin != "admin-1" {
		t.Fatalf("unexpected admin completion %+v", output)
	}

	rec = serve(handler, http.MethodGet, "/v1/users/9/subscription", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"tier":"pro"`) {
		t.Fatalf("expected active pro subscription, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func newTestRouter(t *testing.T, gateway portsout.ChainVerifierGateway) http.Handler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	store := memory.NewStore(time.Now)
	locker := keyedmutex.New()
	catalog := valueobjects.DefaultTierCatalog()
	oracle := stubOracle{}
	addressBook := static.NewAddressBook(map[valueobjects.CryptoType]string{
		valueobjects.CryptoBTC: testBTCAddress,
	}, logger)

	activator := use_cases.NewSubscriptionActivator(store, store, oracle, keyedmutex.New(), catalog, nil, logger)
	verify := use_cases.NewVerifyPaymentUseCase(store, gateway, locker, activator, use_cases.VerificationSettings{MaxAttempts: 1}, nil, logger)

	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(writeTempOpenAPISpec(t)))

	return New(Dependencies{
		HealthController:  controllers.NewHealthController(use_cases.NewGetHealthUseCase(), logger),
		SwaggerController: controllers.NewSwaggerController(openAPIUseCase, logger),
		CatalogController: controllers.NewCatalogController(
			use_cases.NewListCurrenciesUseCase(addressBook, catalog),
			use_cases.NewGetUserSubscriptionUseCase(store, catalog, nil),
			logger,
		),
		PaymentsController: controllers.NewPaymentsController(
			use_cases.NewCreatePaymentRequestUseCase(store, oracle, addressBook, catalog, use_cases.PaymentRequestSettings{}, nil),
			use_cases.NewGetPaymentStatusUseCase(store, activator, nil),
			verify,
			logger,
		),
		AdminController: controllers.NewAdminController(
			use_cases.NewAdminCompletePaymentUseCase(store, verify, activator, logger),
			use_cases.NewAdminCancelPaymentUseCase(store, locker, logger),
			logger,
		),
		AdminJWTSecret: testAdminSecret,
		Logger:         logger,
	})
}

func serve(handler http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("expected valid json body: %v body=%s", err, rec.Body.String())
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.IssueAdminToken(testAdminSecret, "admin-1", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("sign admin token: %v", err)
	}
	return token
}

func writeTempOpenAPISpec(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "openapi.yaml")
	content := []byte("openapi: 3.0.3\ninfo:\n  title: test\n  version: 1.0.0\npaths:\n  /healthz:\n    get:\n      responses:\n        '200':\n          description: ok\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write temp openapi file: %v", err)
	}

	return path
}

type stubOracle struct{}

func (stubOracle) GetPrice(_ context.Context, crypto valueobjects.CryptoType) portsout.PriceQuote {
	if crypto.IsStablecoin() {
		return portsout.PriceQuote{PriceUSD: decimal.NewFromInt(1), Source: "stablecoin", FetchedAt: time.Now().UTC()}
	}
	return portsout.PriceQuote{PriceUSD: decimal.NewFromInt(65000), Source: "static", FetchedAt: time.Now().UTC()}
}

type stubChainGateway struct {
	verified bool
	hash     string
}

func (s *stubChainGateway) VerifyPayment(_ context.Context, input dto.VerifyOnChainInput) (dto.VerifyOnChainOutput, *apperrors.AppError) {
	if !s.verified {
		return dto.VerifyOnChainOutput{}, nil
	}
	return dto.VerifyOnChainOutput{
		Verified: true,
		Source:   "stub",
		Transaction: &entities.ChainTransaction{
			Hash:          s.hash,
			Value:         input.ExpectedAmount,
			Timestamp:     input.CreatedAt.Add(time.Minute),
			Confirmations: 3,
		},
	}, nil
}
