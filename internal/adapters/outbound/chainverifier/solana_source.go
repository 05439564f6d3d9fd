package chainverifier

import (
	"context"
	"encoding/json"
	"time"

	"cryptosub/internal/adapters/outbound/httpjson"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const (
	solanaSignaturesLimit = 25
	// A finalized block is rooted; the figure only needs to clear any configured minimum.
	solanaFinalizedConfirmations = 32
)

type solanaRPCSource struct {
	name   string
	rpcURL string
	client *httpjson.Client
}

type solanaSignature struct {
	Signature          string          `json:"signature"`
	BlockTime          *int64          `json:"blockTime"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Memo               *string         `json:"memo"`
	Err                json.RawMessage `json:"err"`
}

type solanaTransaction struct {
	BlockTime *int64 `json:"blockTime"`
	Meta      *struct {
		Err          json.RawMessage `json:"err"`
		PreBalances  []int64         `json:"preBalances"`
		PostBalances []int64         `json:"postBalances"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []struct {
				Pubkey string `json:"pubkey"`
			} `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// NewSolanaRPCSource lists signatures for the address and loads each recent transaction
// to compute the lamport delta credited to it.
func NewSolanaRPCSource(name string, rpcURL string, client *httpjson.Client) Source {
	return &solanaRPCSource{name: name, rpcURL: rpcURL, client: client}
}

func (s *solanaRPCSource) Name() string {
	return s.name
}

func (s *solanaRPCSource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	raw, appErr := s.client.CallRPC(ctx, s.rpcURL, "getSignaturesForAddress", []any{
		query.Address,
		map[string]any{"limit": solanaSignaturesLimit},
	})
	if appErr != nil {
		return nil, appErr
	}
	signatures := make([]solanaSignature, 0)
	if err := json.Unmarshal(raw, &signatures); err != nil {
		return nil, decodeFailure(s.name, "getSignaturesForAddress", err)
	}

	transactions := make([]entities.ChainTransaction, 0, len(signatures))
	for _, signature := range signatures {
		if isRPCError(signature.Err) {
			continue
		}
		if signature.BlockTime != nil && !query.Since.IsZero() && time.Unix(*signature.BlockTime, 0).Before(query.Since) {
			continue
		}

		tx, found, appErr := s.loadTransfer(ctx, query.Address, signature)
		if appErr != nil {
			return nil, appErr
		}
		if found {
			transactions = append(transactions, tx)
		}
	}
	return transactions, nil
}

func (s *solanaRPCSource) loadTransfer(ctx context.Context, address string, signature solanaSignature) (entities.ChainTransaction, bool, *apperrors.AppError) {
	raw, appErr := s.client.CallRPC(ctx, s.rpcURL, "getTransaction", []any{
		signature.Signature,
		map[string]any{
			"encoding":                       "jsonParsed",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	})
	if appErr != nil {
		return entities.ChainTransaction{}, false, appErr
	}
	if string(raw) == "null" {
		return entities.ChainTransaction{}, false, nil
	}

	transaction := solanaTransaction{}
	if err := json.Unmarshal(raw, &transaction); err != nil {
		return entities.ChainTransaction{}, false, decodeFailure(s.name, "getTransaction", err)
	}
	if transaction.Meta == nil || isRPCError(transaction.Meta.Err) {
		return entities.ChainTransaction{}, false, nil
	}

	index := -1
	for i, key := range transaction.Transaction.Message.AccountKeys {
		if key.Pubkey == address {
			index = i
			break
		}
	}
	if index < 0 || index >= len(transaction.Meta.PreBalances) || index >= len(transaction.Meta.PostBalances) {
		return entities.ChainTransaction{}, false, nil
	}
	delta := transaction.Meta.PostBalances[index] - transaction.Meta.PreBalances[index]
	if delta <= 0 {
		return entities.ChainTransaction{}, false, nil
	}

	blockTime := signature.BlockTime
	if transaction.BlockTime != nil {
		blockTime = transaction.BlockTime
	}
	tx := entities.ChainTransaction{
		Hash:                  signature.Signature,
		Value:                 valueobjects.FromBaseUnits(valueobjects.CryptoSOL, decimal.NewFromInt(delta)),
		Confirmations:         solanaConfirmations(signature.ConfirmationStatus),
		ConfirmationsReported: true,
	}
	if blockTime != nil {
		tx.Timestamp = time.Unix(*blockTime, 0).UTC()
	}
	if signature.Memo != nil {
		tx.Memo = *signature.Memo
	}
	return tx, true, nil
}

func solanaConfirmations(status string) int64 {
	switch status {
	case "finalized":
		return solanaFinalizedConfirmations
	case "confirmed":
		return 1
	default:
		return 0
	}
}

func isRPCError(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func decodeFailure(provider string, method string, err error) *apperrors.AppError {
	return apperrors.NewProvider(
		"provider_payload_invalid",
		"failed to decode rpc result",
		map[string]any{"provider": provider, "method": method, "error": err.Error()},
	)
}
