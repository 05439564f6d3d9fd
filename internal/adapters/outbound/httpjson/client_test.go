//go:build !integration

package httpjson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONDecodesPayloadAndSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"value":"42"}`))
	}))
	defer server.Close()

	client := New(Options{Name: "test-get", Headers: map[string]string{"X-API-Key": "secret", "X-Empty": ""}})
	var out struct {
		Value string `json:"value"`
	}
	appErr := client.GetJSON(context.Background(), server.URL, &out)
	require.Nil(t, appErr)
	assert.Equal(t, "42", out.Value)
}

func TestGetJSONMapsStatusAndPayloadErrors(t *testing.T) {
	statusServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer statusServer.Close()
	payloadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer payloadServer.Close()

	client := New(Options{Name: "test-errors"})
	var out map[string]any

	appErr := client.GetJSON(context.Background(), statusServer.URL, &out)
	require.NotNil(t, appErr)
	assert.Equal(t, "provider_status_invalid", appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Details["status_code"])

	appErr = client.GetJSON(context.Background(), payloadServer.URL, &out)
	require.NotNil(t, appErr)
	assert.Equal(t, "provider_payload_invalid", appErr.Code)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Options{Name: "test-breaker"})
	for i := 0; i < 3; i++ {
		appErr := client.GetJSON(context.Background(), server.URL, nil)
		require.NotNil(t, appErr)
		assert.Equal(t, "provider_status_invalid", appErr.Code)
	}

	appErr := client.GetJSON(context.Background(), server.URL, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, "provider_circuit_open", appErr.Code)
	assert.Equal(t, 3, calls)
}

func TestSharedLimiterSpacesCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	limiter := NewMinIntervalLimiter(100 * time.Millisecond)
	first := New(Options{Name: "test-limit-a", Limiter: limiter})
	second := New(Options{Name: "test-limit-b", Limiter: limiter})

	startedAt := time.Now()
	require.Nil(t, first.GetJSON(context.Background(), server.URL, nil))
	require.Nil(t, second.GetJSON(context.Background(), server.URL, nil))
	assert.GreaterOrEqual(t, time.Since(startedAt), 90*time.Millisecond)
}

func TestLimiterWaitHonoursCancellation(t *testing.T) {
	limiter := NewMinIntervalLimiter(time.Hour)
	client := New(Options{Name: "test-limit-cancel", Limiter: limiter})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	require.Nil(t, client.GetJSON(context.Background(), server.URL, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	appErr := client.GetJSON(ctx, server.URL, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, "provider_request_failed", appErr.Code)
}

func TestNewMinIntervalLimiterDisabledForNonPositive(t *testing.T) {
	assert.Nil(t, NewMinIntervalLimiter(0))
}

func TestCallRPCReturnsResultAndMapsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request := rpcRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "2.0", request.JSONRPC)
		if request.Method == "broken" {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"slot":7}}`))
	}))
	defer server.Close()

	client := New(Options{Name: "test-rpc"})
	result, appErr := client.CallRPC(context.Background(), server.URL, "getSlot", []any{})
	require.Nil(t, appErr)
	assert.JSONEq(t, `{"slot":7}`, string(result))

	_, appErr = client.CallRPC(context.Background(), server.URL, "broken", []any{})
	require.NotNil(t, appErr)
	assert.Equal(t, "provider_payload_invalid", appErr.Code)
	assert.Equal(t, -32601, appErr.Details["rpc_code"])
}
