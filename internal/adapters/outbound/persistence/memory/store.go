package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

// Store keeps payments and subscriptions in process memory. It is used for local runs and
// as the storage double in use-case tests.
type Store struct {
	mu            sync.Mutex
	payments      map[string]entities.Payment
	subscriptions map[int64]entities.Subscription
	now           func() time.Time
}

var (
	_ portsout.PaymentRepository           = (*Store)(nil)
	_ portsout.SubscriptionRepository      = (*Store)(nil)
	_ portsout.PersistenceBootstrapGateway = (*Store)(nil)
)

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Store{
		payments:      make(map[string]entities.Payment),
		subscriptions: make(map[int64]entities.Subscription),
		now:           now,
	}
}

func (s *Store) CheckReadiness(_ context.Context) *apperrors.AppError {
	return nil
}

func (s *Store) RunMigrations(_ context.Context) *apperrors.AppError {
	return nil
}

func (s *Store) CreatePayment(_ context.Context, payment entities.Payment) *apperrors.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[payment.ID]; exists {
		return apperrors.NewConflict(
			"payment_id_conflict",
			"payment id already exists",
			map[string]any{"payment_id": payment.ID},
		)
	}
	s.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (entities.Payment, bool, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, found := s.payments[paymentID]
	if !found {
		return entities.Payment{}, false, nil
	}
	return clonePayment(payment), true, nil
}

func (s *Store) UpdatePaymentStatus(_ context.Context, paymentID string, status valueobjects.PaymentStatus) *apperrors.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, found := s.payments[paymentID]
	if !found {
		return paymentNotFound(paymentID)
	}
	if status == valueobjects.PaymentStatusExpired && payment.Status != valueobjects.PaymentStatusPending {
		return statusConflict(paymentID, payment.Status, status)
	}
	payment.Status = status
	s.payments[paymentID] = payment
	return nil
}

func (s *Store) UpdatePaymentField(_ context.Context, paymentID string, field portsout.PaymentField, value any) *apperrors.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, found := s.payments[paymentID]
	if !found {
		return paymentNotFound(paymentID)
	}

	switch field {
	case portsout.PaymentFieldManualVerification:
		flag, ok := value.(bool)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		payment.ManualVerification = flag
	case portsout.PaymentFieldVerifiedByAdmin:
		adminID, ok := value.(string)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		payment.VerifiedByAdmin = &adminID
	case portsout.PaymentFieldTransactionHash:
		hash, ok := value.(string)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		for id, other := range s.payments {
			if id != paymentID && other.TransactionHash != nil && *other.TransactionHash == hash {
				return apperrors.NewConflict(
					"transaction_hash_already_claimed",
					"transaction hash is already recorded on another payment",
					map[string]any{"transaction_hash": hash, "claimed_by": id},
				)
			}
		}
		payment.TransactionHash = &hash
	case portsout.PaymentFieldAmountUSD:
		amount, ok := value.(decimal.Decimal)
		if !ok {
			return fieldTypeInvalid(field, value)
		}
		payment.AmountUSD = amount
	default:
		return apperrors.NewInternal(
			"payment_field_unsupported",
			"payment field cannot be updated",
			map[string]any{"field": string(field)},
		)
	}

	s.payments[paymentID] = payment
	return nil
}

func (s *Store) GetPendingPayments(_ context.Context, maxAge time.Duration) ([]entities.Payment, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	out := make([]entities.Payment, 0)
	for _, payment := range s.payments {
		if payment.Status != valueobjects.PaymentStatusPending || payment.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, clonePayment(payment))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdatePaymentLastChecked(_ context.Context, paymentID string, checkedAt time.Time) *apperrors.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, found := s.payments[paymentID]
	if !found {
		return paymentNotFound(paymentID)
	}
	checked := checkedAt.UTC()
	payment.LastChecked = &checked
	s.payments[paymentID] = payment
	return nil
}

func (s *Store) FindPaymentByTransactionHash(_ context.Context, transactionHash string) (entities.Payment, bool, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, payment := range s.payments {
		if payment.TransactionHash != nil && *payment.TransactionHash == transactionHash {
			return clonePayment(payment), true, nil
		}
	}
	return entities.Payment{}, false, nil
}

func (s *Store) ActivateSubscription(_ context.Context, userID int64, tier valueobjects.Tier, durationDays int) (entities.Subscription, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscription := entities.Subscription{
		UserID:    userID,
		Tier:      tier,
		ExpiresAt: s.now().Add(time.Duration(durationDays) * 24 * time.Hour),
	}
	s.subscriptions[userID] = subscription
	return subscription, nil
}

func (s *Store) GetUserSubscription(_ context.Context, userID int64) (entities.Subscription, bool, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscription, found := s.subscriptions[userID]
	return subscription, found, nil
}

// Delete removes a payment. Only tests and local tooling call it.
func (s *Store) Delete(paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, paymentID)
}

func clonePayment(payment entities.Payment) entities.Payment {
	if payment.LastChecked != nil {
		value := *payment.LastChecked
		payment.LastChecked = &value
	}
	if payment.VerifiedByAdmin != nil {
		value := *payment.VerifiedByAdmin
		payment.VerifiedByAdmin = &value
	}
	if payment.TransactionHash != nil {
		value := *payment.TransactionHash
		payment.TransactionHash = &value
	}
	return payment
}

func paymentNotFound(paymentID string) *apperrors.AppError {
	return apperrors.NewNotFound(
		"payment_not_found",
		"payment not found",
		map[string]any{"payment_id": paymentID},
	)
}

func statusConflict(paymentID string, current, next valueobjects.PaymentStatus) *apperrors.AppError {
	return apperrors.NewConflict(
		portsout.PaymentStatusConflictCode,
		"payment status changed concurrently",
		map[string]any{"payment_id": paymentID, "status": current.String(), "requested": next.String()},
	)
}

func fieldTypeInvalid(field portsout.PaymentField, value any) *apperrors.AppError {
	return apperrors.NewInternal(
		"payment_field_value_invalid",
		"payment field value has the wrong type",
		map[string]any{"field": string(field), "value": value},
	)
}
