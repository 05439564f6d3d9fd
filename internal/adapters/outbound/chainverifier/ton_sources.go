package chainverifier

import (
	"context"
	"net/url"
	"strings"
	"time"

	"cryptosub/internal/adapters/outbound/httpjson"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const tonTransactionsLimit = "50"

// TON transactions returned by indexers are already committed to a masterchain block.
const tonFinalConfirmations = 1

type tonCenterSource struct {
	name    string
	baseURL string
	client  *httpjson.Client
}

type tonCenterResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result []struct {
		Utime         int64 `json:"utime"`
		TransactionID struct {
			LT   string `json:"lt"`
			Hash string `json:"hash"`
		} `json:"transaction_id"`
		InMsg *struct {
			Source      string          `json:"source"`
			Destination string          `json:"destination"`
			Value       decimal.Decimal `json:"value"`
			Message     string          `json:"message"`
		} `json:"in_msg"`
	} `json:"result"`
}

// NewTonCenterSource reads the TonCenter v2 getTransactions endpoint. Mirrors speaking the
// same API reuse it under a different name.
func NewTonCenterSource(name string, baseURL string, client *httpjson.Client) Source {
	return &tonCenterSource{name: name, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *tonCenterSource) Name() string {
	return s.name
}

func (s *tonCenterSource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	params := url.Values{}
	params.Set("address", query.Address)
	params.Set("limit", tonTransactionsLimit)
	params.Set("archival", "true")

	response := tonCenterResponse{}
	if appErr := s.client.GetJSON(ctx, s.baseURL+"/getTransactions?"+params.Encode(), &response); appErr != nil {
		return nil, appErr
	}
	if !response.OK {
		return nil, apperrors.NewProvider(
			"provider_payload_invalid",
			"toncenter reported an error",
			map[string]any{"provider": s.name, "error": response.Error},
		)
	}

	transactions := make([]entities.ChainTransaction, 0, len(response.Result))
	for _, item := range response.Result {
		if item.InMsg == nil || item.InMsg.Source == "" || !item.InMsg.Value.IsPositive() {
			continue
		}
		transactions = append(transactions, entities.ChainTransaction{
			Hash:                  item.TransactionID.Hash,
			Value:                 valueobjects.FromBaseUnits(valueobjects.CryptoTON, item.InMsg.Value),
			Timestamp:             time.Unix(item.Utime, 0).UTC(),
			Confirmations:         tonFinalConfirmations,
			ConfirmationsReported: true,
			Memo:                  item.InMsg.Message,
		})
	}
	return transactions, nil
}

type tonAPISource struct {
	baseURL string
	client  *httpjson.Client
}

type tonAPIResponse struct {
	Transactions []struct {
		Hash    string `json:"hash"`
		Utime   int64  `json:"utime"`
		Success bool   `json:"success"`
		InMsg   *struct {
			Value         decimal.Decimal `json:"value"`
			Source        *struct{}       `json:"source"`
			DecodedOpName string          `json:"decoded_op_name"`
			DecodedBody   struct {
				Text string `json:"text"`
			} `json:"decoded_body"`
		} `json:"in_msg"`
	} `json:"transactions"`
}

func NewTonAPISource(baseURL string, client *httpjson.Client) Source {
	return &tonAPISource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *tonAPISource) Name() string {
	return "tonapi"
}

func (s *tonAPISource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	endpoint := s.baseURL + "/v2/blockchain/accounts/" + url.PathEscape(query.Address) + "/transactions?limit=" + tonTransactionsLimit

	response := tonAPIResponse{}
	if appErr := s.client.GetJSON(ctx, endpoint, &response); appErr != nil {
		return nil, appErr
	}

	transactions := make([]entities.ChainTransaction, 0, len(response.Transactions))
	for _, item := range response.Transactions {
		if !item.Success || item.InMsg == nil || item.InMsg.Source == nil || !item.InMsg.Value.IsPositive() {
			continue
		}
		memo := ""
		if item.InMsg.DecodedOpName == "text_comment" {
			memo = item.InMsg.DecodedBody.Text
		}
		transactions = append(transactions, entities.ChainTransaction{
			Hash:                  item.Hash,
			Value:                 valueobjects.FromBaseUnits(valueobjects.CryptoTON, item.InMsg.Value),
			Timestamp:             time.Unix(item.Utime, 0).UTC(),
			Confirmations:         tonFinalConfirmations,
			ConfirmationsReported: true,
			Memo:                  memo,
		})
	}
	return transactions, nil
}
