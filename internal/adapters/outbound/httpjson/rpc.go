package httpjson

import (
	"context"
	"encoding/json"

	apperrors "cryptosub/internal/shared_kernel/errors"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CallRPC performs a JSON-RPC 2.0 call and returns the raw result.
func (c *Client) CallRPC(ctx context.Context, rpcURL string, method string, params any) (json.RawMessage, *apperrors.AppError) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	rpcResp := rpcResponse{}
	if appErr := c.PostJSON(ctx, rpcURL, payload, &rpcResp); appErr != nil {
		return nil, appErr
	}
	if rpcResp.Error != nil {
		return nil, apperrors.NewProvider(
			"provider_payload_invalid",
			"rpc endpoint returned error",
			map[string]any{
				"provider":  c.name,
				"method":    method,
				"rpc_error": rpcResp.Error.Message,
				"rpc_code":  rpcResp.Error.Code,
			},
		)
	}
	return rpcResp.Result, nil
}
