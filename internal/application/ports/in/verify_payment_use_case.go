package in

import (
	"context"

	"cryptosub/internal/application/dto"
)

// VerifyPaymentUseCase never fails: provider, storage and lock problems all surface as
// Verified=false so callers can simply retry later.
type VerifyPaymentUseCase interface {
	Execute(ctx context.Context, command dto.VerifyPaymentCommand) dto.VerifyPaymentOutput
}
