//go:build !integration

package metrics

import (
	"context"
	"testing"

	"cryptosub/internal/application/dto"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubVerify struct {
	output dto.VerifyPaymentOutput
}

func (s stubVerify) Execute(_ context.Context, command dto.VerifyPaymentCommand) dto.VerifyPaymentOutput {
	out := s.output
	out.PaymentID = command.PaymentID
	return out
}

func TestInstrumentVerifyPaymentCountsOutcome(t *testing.T) {
	before := testutil.ToFloat64(VerificationsTotal.WithLabelValues("user", "verified"))

	useCase := InstrumentVerifyPayment(stubVerify{output: dto.VerifyPaymentOutput{Verified: true, Status: "completed"}})
	output := useCase.Execute(context.Background(), dto.VerifyPaymentCommand{PaymentID: "ton_a", Trigger: "user"})

	if !output.Verified || output.PaymentID != "ton_a" {
		t.Fatalf("expected pass-through output, got %+v", output)
	}
	after := testutil.ToFloat64(VerificationsTotal.WithLabelValues("user", "verified"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by one, got %v", after-before)
	}
}
