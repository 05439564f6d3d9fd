package chainverifier

import (
	"context"
	"errors"
	"log"
	"time"

	"cryptosub/internal/application/dto"
	"cryptosub/internal/domain/entities"
	"cryptosub/internal/domain/policies"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/fallback"
	"cryptosub/internal/infrastructure/metrics"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

const defaultLookback = 2 * time.Hour

// Query describes the incoming transfers a source should list. Since is a hint;
// sources may return older transfers and leave filtering to the strategy.
type Query struct {
	CryptoType valueobjects.CryptoType
	Address    string
	Since      time.Time
}

// Source lists incoming transfers to an address, normalised to whole coins.
type Source interface {
	Name() string
	Transactions(ctx context.Context, query Query) ([]entities.ChainTransaction, *apperrors.AppError)
}

var (
	errUnderConfirmed = errors.New("match below required confirmations")
	errAdvisory       = errors.New("match from source without confirmation data")
)

type match struct {
	tx       entities.ChainTransaction
	advisory []string
}

// Verifier walks an ordered chain of sources and stops at the first confirmed match.
type Verifier struct {
	crypto         valueobjects.CryptoType
	method         valueobjects.AttributionMethod
	sources        []Source
	manualSentinel bool
	lookback       time.Duration
	logger         *log.Logger
}

func NewAmountTimeWindowVerifier(crypto valueobjects.CryptoType, sources []Source, logger *log.Logger) *Verifier {
	return &Verifier{
		crypto:   crypto,
		method:   valueobjects.AttributionAmountTimeWindow,
		sources:  sources,
		lookback: defaultLookback,
		logger:   logger,
	}
}

// NewMemoVerifier ends its chain with a manual sentinel: when every source fails outright the
// payment is flagged for operator review.
func NewMemoVerifier(crypto valueobjects.CryptoType, sources []Source, logger *log.Logger) *Verifier {
	return &Verifier{
		crypto:         crypto,
		method:         valueobjects.AttributionMemo,
		sources:        sources,
		manualSentinel: true,
		lookback:       defaultLookback,
		logger:         logger,
	}
}

func (v *Verifier) CryptoType() valueobjects.CryptoType {
	return v.crypto
}

func (v *Verifier) SourceNames() []string {
	names := make([]string, 0, len(v.sources))
	for _, source := range v.sources {
		names = append(names, source.Name())
	}
	return names
}

func (v *Verifier) Verify(ctx context.Context, input dto.VerifyOnChainInput) (dto.VerifyOnChainOutput, *apperrors.AppError) {
	strategy := input.Strategy
	if strategy == nil {
		built, appErr := policies.NewAttributionStrategy(v.method, policies.DefaultAttributionSettings())
		if appErr != nil {
			return dto.VerifyOnChainOutput{}, appErr
		}
		strategy = built
	}
	required := int64(input.RequiredConfirmations)
	if required < 1 {
		required = 1
	}

	query := Query{
		CryptoType: v.crypto,
		Address:    input.PayToAddress,
		Since:      input.CreatedAt.Add(-v.lookback),
	}
	expectation := input.Expectation()

	advisory := make([]string, 0)
	steps := make([]fallback.Step[match], 0, len(v.sources))
	for _, source := range v.sources {
		source := source
		steps = append(steps, fallback.Step[match]{
			Name: source.Name(),
			Run: func(ctx context.Context) (match, error) {
				found, err := v.checkSource(ctx, source, query, strategy, expectation, required, input)
				if errors.Is(err, errAdvisory) {
					advisory = append(advisory, source.Name())
					return match{}, fallback.ErrNoMatch
				}
				if err != nil {
					return match{}, err
				}
				return found, nil
			},
		})
	}

	result := fallback.FirstSuccess(ctx, steps)
	if result.Found {
		tx := result.Value.tx
		v.logf(
			"chain_match_confirmed crypto_type=%s payment_id=%s source=%s tx_hash=%s confirmations=%d",
			v.crypto, input.PaymentID, result.Source, tx.Hash, tx.Confirmations,
		)
		return dto.VerifyOnChainOutput{
			Verified:        true,
			Source:          result.Source,
			Transaction:     &tx,
			AdvisorySources: advisory,
		}, nil
	}

	output := dto.VerifyOnChainOutput{AdvisorySources: advisory}
	if v.manualSentinel && ctx.Err() == nil && allSourcesFailed(result.Attempts) {
		output.ManualReviewSuggested = true
		output.Source = "manual"
		v.logf("chain_manual_review_suggested crypto_type=%s payment_id=%s attempts=%s", v.crypto, input.PaymentID, result.Summary())
		return output, nil
	}
	v.logf("chain_no_match crypto_type=%s payment_id=%s attempts=%s", v.crypto, input.PaymentID, result.Summary())
	return output, nil
}

func (v *Verifier) checkSource(
	ctx context.Context,
	source Source,
	query Query,
	strategy policies.AttributionStrategy,
	expectation policies.PaymentExpectation,
	required int64,
	input dto.VerifyOnChainInput,
) (match, error) {
	paymentID := input.PaymentID
	transactions, appErr := source.Transactions(ctx, query)
	if appErr != nil {
		metrics.ChainSourceOutcomesTotal.WithLabelValues(v.crypto.String(), source.Name(), "error").Inc()
		v.logf(
			"chain_source_failed crypto_type=%s payment_id=%s source=%s code=%s message=%q",
			v.crypto, paymentID, source.Name(), appErr.Code, appErr.Message,
		)
		return match{}, appErr
	}

	sawAdvisory := false
	sawUnderConfirmed := false
	for _, tx := range transactions {
		if !strategy.Accepts(tx, expectation) {
			continue
		}
		if input.Excludes(tx.Hash) {
			v.logf("chain_match_excluded crypto_type=%s payment_id=%s source=%s tx_hash=%s", v.crypto, paymentID, source.Name(), tx.Hash)
			continue
		}
		if !tx.ConfirmationsReported {
			sawAdvisory = true
			v.logf("chain_match_advisory crypto_type=%s payment_id=%s source=%s tx_hash=%s", v.crypto, paymentID, source.Name(), tx.Hash)
			continue
		}
		if tx.Confirmations < required {
			sawUnderConfirmed = true
			v.logf(
				"chain_match_under_confirmed crypto_type=%s payment_id=%s source=%s tx_hash=%s confirmations=%d required=%d",
				v.crypto, paymentID, source.Name(), tx.Hash, tx.Confirmations, required,
			)
			continue
		}
		metrics.ChainSourceOutcomesTotal.WithLabelValues(v.crypto.String(), source.Name(), "match").Inc()
		return match{tx: tx}, nil
	}

	switch {
	case sawUnderConfirmed:
		metrics.ChainSourceOutcomesTotal.WithLabelValues(v.crypto.String(), source.Name(), "under_confirmed").Inc()
		return match{}, errUnderConfirmed
	case sawAdvisory:
		metrics.ChainSourceOutcomesTotal.WithLabelValues(v.crypto.String(), source.Name(), "advisory").Inc()
		return match{}, errAdvisory
	default:
		metrics.ChainSourceOutcomesTotal.WithLabelValues(v.crypto.String(), source.Name(), "no_match").Inc()
		return match{}, fallback.ErrNoMatch
	}
}

// allSourcesFailed reports whether every source errored. A clean "not found" from any source
// means the payment is simply not on chain yet.
func allSourcesFailed(attempts []fallback.Attempt) bool {
	if len(attempts) == 0 {
		return false
	}
	for _, attempt := range attempts {
		if attempt.Err == nil ||
			errors.Is(attempt.Err, fallback.ErrNoMatch) ||
			errors.Is(attempt.Err, errUnderConfirmed) ||
			errors.Is(attempt.Err, context.Canceled) ||
			errors.Is(attempt.Err, context.DeadlineExceeded) {
			return false
		}
	}
	return true
}

func (v *Verifier) logf(format string, args ...any) {
	if v.logger != nil {
		v.logger.Printf(format, args...)
	}
}
