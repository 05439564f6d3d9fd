package out

import (
	"context"

	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type WalletAddressBook interface {
	Resolve(ctx context.Context, crypto valueobjects.CryptoType) (string, *apperrors.AppError)
	Configured(crypto valueobjects.CryptoType) bool
}
