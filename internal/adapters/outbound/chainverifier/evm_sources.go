package chainverifier

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptosub/internal/adapters/outbound/httpjson"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const (
	evmActionTxList  = "txlist"
	evmActionTokenTx = "tokentx"
	evmPageSize      = "50"
)

// etherscanSource speaks the Etherscan account API. Blockscout exposes the same
// module/action surface, so both explorers share this implementation.
type etherscanSource struct {
	name    string
	baseURL string
	apiKey  string
	chainID string
	client  *httpjson.Client
}

type etherscanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type etherscanTransfer struct {
	Hash            string          `json:"hash"`
	TimeStamp       string          `json:"timeStamp"`
	To              string          `json:"to"`
	Value           decimal.Decimal `json:"value"`
	Confirmations   string          `json:"confirmations"`
	IsError         string          `json:"isError"`
	ContractAddress string          `json:"contractAddress"`
	TokenDecimal    string          `json:"tokenDecimal"`
}

// NewEtherscanSource targets Etherscan's multichain API; chainID is sent when set.
func NewEtherscanSource(baseURL string, apiKey string, chainID string, client *httpjson.Client) Source {
	return &etherscanSource{
		name:    "etherscan",
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		chainID: chainID,
		client:  client,
	}
}

func NewBlockscoutSource(baseURL string, client *httpjson.Client) Source {
	return &etherscanSource{
		name:    "blockscout",
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *etherscanSource) Name() string {
	return s.name
}

func (s *etherscanSource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	action := evmActionTxList
	if query.CryptoType.IsERC20() {
		action = evmActionTokenTx
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", query.Address)
	params.Set("page", "1")
	params.Set("offset", evmPageSize)
	params.Set("sort", "desc")
	if action == evmActionTokenTx {
		params.Set("contractaddress", query.CryptoType.TokenContract())
	}
	if s.chainID != "" {
		params.Set("chainid", s.chainID)
	}
	if s.apiKey != "" {
		params.Set("apikey", s.apiKey)
	}

	envelope := etherscanEnvelope{}
	if appErr := s.client.GetJSON(ctx, s.baseURL+"?"+params.Encode(), &envelope); appErr != nil {
		return nil, appErr
	}
	if envelope.Status != "1" {
		if strings.HasPrefix(strings.ToLower(envelope.Message), "no transactions found") {
			return []entities.ChainTransaction{}, nil
		}
		return nil, apperrors.NewProvider(
			"provider_payload_invalid",
			"explorer returned an error status",
			map[string]any{"provider": s.name, "message": envelope.Message, "result": string(envelope.Result)},
		)
	}

	items := make([]etherscanTransfer, 0)
	if err := json.Unmarshal(envelope.Result, &items); err != nil {
		return nil, apperrors.NewProvider(
			"provider_payload_invalid",
			"explorer result is not a transfer list",
			map[string]any{"provider": s.name, "error": err.Error()},
		)
	}

	transactions := make([]entities.ChainTransaction, 0, len(items))
	for _, item := range items {
		if item.IsError == "1" || !valueobjects.SameAddress(query.CryptoType, item.To, query.Address) {
			continue
		}
		if action == evmActionTokenTx && !strings.EqualFold(item.ContractAddress, query.CryptoType.TokenContract()) {
			continue
		}

		decimals := query.CryptoType.BaseUnitDecimals()
		if parsed, err := strconv.ParseInt(item.TokenDecimal, 10, 32); err == nil && action == evmActionTokenTx {
			decimals = int32(parsed)
		}
		unix, err := strconv.ParseInt(item.TimeStamp, 10, 64)
		if err != nil {
			continue
		}

		tx := entities.ChainTransaction{
			Hash:      item.Hash,
			Value:     item.Value.Shift(-decimals),
			Timestamp: time.Unix(unix, 0).UTC(),
		}
		if confirmations, err := strconv.ParseInt(item.Confirmations, 10, 64); err == nil {
			tx.Confirmations = confirmations
			tx.ConfirmationsReported = true
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}
