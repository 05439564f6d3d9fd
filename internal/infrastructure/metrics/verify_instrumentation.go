package metrics

import (
	"context"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
)

type instrumentedVerifyPayment struct {
	next portsin.VerifyPaymentUseCase
}

// InstrumentVerifyPayment counts verification outcomes per trigger.
func InstrumentVerifyPayment(next portsin.VerifyPaymentUseCase) portsin.VerifyPaymentUseCase {
	return &instrumentedVerifyPayment{next: next}
}

func (i *instrumentedVerifyPayment) Execute(ctx context.Context, command dto.VerifyPaymentCommand) dto.VerifyPaymentOutput {
	output := i.next.Execute(ctx, command)

	outcome := "unverified"
	switch {
	case output.Verified:
		outcome = "verified"
	case output.Status == "expired":
		outcome = "expired"
	case output.Status == "":
		outcome = "skipped"
	}

	trigger := command.Trigger
	if trigger == "" {
		trigger = "unknown"
	}
	VerificationsTotal.WithLabelValues(trigger, outcome).Inc()
	return output
}
