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

const utxoTransactionsLimit = "50"

type blockchainInfoSource struct {
	baseURL string
	client  *httpjson.Client
}

type blockchainInfoAddress struct {
	Txs []struct {
		Hash        string `json:"hash"`
		Time        int64  `json:"time"`
		BlockHeight *int64 `json:"block_height"`
		Out         []struct {
			Addr  string `json:"addr"`
			Value int64  `json:"value"`
		} `json:"out"`
	} `json:"txs"`
}

type blockchainInfoLatestBlock struct {
	Height int64 `json:"height"`
}

func NewBlockchainInfoSource(baseURL string, client *httpjson.Client) Source {
	return &blockchainInfoSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *blockchainInfoSource) Name() string {
	return "blockchain_info"
}

// Transactions reports confirmations only when the chain tip is known; without it
// matches from this source stay advisory.
func (s *blockchainInfoSource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	address := blockchainInfoAddress{}
	endpoint := s.baseURL + "/rawaddr/" + url.PathEscape(query.Address) + "?limit=" + utxoTransactionsLimit
	if appErr := s.client.GetJSON(ctx, endpoint, &address); appErr != nil {
		return nil, appErr
	}

	tip := blockchainInfoLatestBlock{}
	tipKnown := s.client.GetJSON(ctx, s.baseURL+"/latestblock", &tip) == nil && tip.Height > 0

	transactions := make([]entities.ChainTransaction, 0, len(address.Txs))
	for _, item := range address.Txs {
		received := int64(0)
		for _, output := range item.Out {
			if valueobjects.SameAddress(query.CryptoType, output.Addr, query.Address) {
				received += output.Value
			}
		}
		if received <= 0 {
			continue
		}

		tx := entities.ChainTransaction{
			Hash:      item.Hash,
			Value:     valueobjects.FromBaseUnits(query.CryptoType, decimal.NewFromInt(received)),
			Timestamp: time.Unix(item.Time, 0).UTC(),
		}
		if tipKnown {
			tx.ConfirmationsReported = true
			if item.BlockHeight != nil && *item.BlockHeight > 0 {
				tx.Confirmations = confirmationsFromHeight(tip.Height, *item.BlockHeight)
			}
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

type blockCypherSource struct {
	baseURL string
	coin    string
	token   string
	client  *httpjson.Client
}

type blockCypherAddress struct {
	Error string `json:"error"`
	Txs   []struct {
		Hash          string    `json:"hash"`
		Confirmations int64     `json:"confirmations"`
		Received      time.Time `json:"received"`
		Confirmed     time.Time `json:"confirmed"`
		Outputs       []struct {
			Value     int64    `json:"value"`
			Addresses []string `json:"addresses"`
		} `json:"outputs"`
	} `json:"txs"`
}

// NewBlockCypherSource serves both BTC ("btc") and LTC ("ltc") through the same full-address API.
func NewBlockCypherSource(baseURL string, coin string, token string, client *httpjson.Client) Source {
	return &blockCypherSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		coin:    coin,
		token:   token,
		client:  client,
	}
}

func (s *blockCypherSource) Name() string {
	return "blockcypher"
}

func (s *blockCypherSource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	params := url.Values{}
	params.Set("limit", utxoTransactionsLimit)
	if s.token != "" {
		params.Set("token", s.token)
	}
	endpoint := s.baseURL + "/" + s.coin + "/main/addrs/" + url.PathEscape(query.Address) + "/full?" + params.Encode()

	address := blockCypherAddress{}
	if appErr := s.client.GetJSON(ctx, endpoint, &address); appErr != nil {
		return nil, appErr
	}
	if address.Error != "" {
		return nil, apperrors.NewProvider(
			"provider_payload_invalid",
			"blockcypher reported an error",
			map[string]any{"provider": s.Name(), "error": address.Error},
		)
	}

	transactions := make([]entities.ChainTransaction, 0, len(address.Txs))
	for _, item := range address.Txs {
		received := int64(0)
		for _, output := range item.Outputs {
			for _, candidate := range output.Addresses {
				if valueobjects.SameAddress(query.CryptoType, candidate, query.Address) {
					received += output.Value
					break
				}
			}
		}
		if received <= 0 {
			continue
		}

		timestamp := item.Received
		if timestamp.IsZero() {
			timestamp = item.Confirmed
		}
		transactions = append(transactions, entities.ChainTransaction{
			Hash:                  item.Hash,
			Value:                 valueobjects.FromBaseUnits(query.CryptoType, decimal.NewFromInt(received)),
			Timestamp:             timestamp.UTC(),
			Confirmations:         item.Confirmations,
			ConfirmationsReported: true,
		})
	}
	return transactions, nil
}

type esploraSource struct {
	name    string
	baseURL string
	client  *httpjson.Client
}

type esploraTransaction struct {
	TxID string `json:"txid"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
		BlockTime   int64 `json:"block_time"`
	} `json:"status"`
}

// NewEsploraSource reads an Esplora-compatible API (mempool.space, litecoinspace.org).
func NewEsploraSource(name string, baseURL string, client *httpjson.Client) Source {
	return &esploraSource{name: name, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *esploraSource) Name() string {
	return s.name
}

func (s *esploraSource) Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	items := make([]esploraTransaction, 0)
	if appErr := s.client.GetJSON(ctx, s.baseURL+"/address/"+url.PathEscape(query.Address)+"/txs", &items); appErr != nil {
		return nil, appErr
	}

	tipHeight := int64(0)
	if appErr := s.client.GetJSON(ctx, s.baseURL+"/blocks/tip/height", &tipHeight); appErr != nil {
		return nil, appErr
	}

	transactions := make([]entities.ChainTransaction, 0, len(items))
	for _, item := range items {
		received := int64(0)
		for _, output := range item.Vout {
			if valueobjects.SameAddress(query.CryptoType, output.ScriptPubKeyAddress, query.Address) {
				received += output.Value
			}
		}
		if received <= 0 {
			continue
		}

		tx := entities.ChainTransaction{
			Hash:                  item.TxID,
			Value:                 valueobjects.FromBaseUnits(query.CryptoType, decimal.NewFromInt(received)),
			ConfirmationsReported: true,
		}
		if item.Status.Confirmed {
			tx.Timestamp = time.Unix(item.Status.BlockTime, 0).UTC()
			tx.Confirmations = confirmationsFromHeight(tipHeight, item.Status.BlockHeight)
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func confirmationsFromHeight(tip int64, height int64) int64 {
	if height <= 0 || tip < height {
		return 0
	}
	return tip - height + 1
}
