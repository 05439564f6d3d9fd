//go:build !integration

package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"cryptosub/internal/application/dto"
	"cryptosub/internal/infrastructure/metrics"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkerDisabled(t *testing.T) {
	fakeUseCase := &fakeSweepUseCase{}
	worker := NewWorker(false, 10*time.Millisecond, 24*time.Hour, 10*time.Millisecond, fakeUseCase, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	worker.Start(ctx)

	if fakeUseCase.calls() != 0 {
		t.Fatalf("expected no calls for disabled worker, got %d", fakeUseCase.calls())
	}
	if worker.Enabled() {
		t.Fatalf("expected disabled worker to report disabled")
	}
}

func TestWorkerRunsSweeps(t *testing.T) {
	fakeUseCase := &fakeSweepUseCase{output: dto.SweepPendingPaymentsOutput{Scanned: 2, Verified: 1, Pending: 1}}
	worker := NewWorker(true, 10*time.Millisecond, 24*time.Hour, time.Hour, fakeUseCase, nil)
	verifiedBefore := testutil.ToFloat64(metrics.PollerPaymentsTotal.WithLabelValues("verified"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(35 * time.Millisecond)
		cancel()
	}()

	worker.Start(ctx)

	calls := fakeUseCase.calls()
	if calls < 2 {
		t.Fatalf("expected repeated sweeps, got %d", calls)
	}
	if last := fakeUseCase.lastCommand(); last.MaxAge != 24*time.Hour {
		t.Fatalf("expected max age 24h, got %s", last.MaxAge)
	}
	verifiedAfter := testutil.ToFloat64(metrics.PollerPaymentsTotal.WithLabelValues("verified"))
	if verifiedAfter-verifiedBefore != float64(calls) {
		t.Fatalf("expected one verified payment per sweep, got delta %.0f for %d sweeps", verifiedAfter-verifiedBefore, calls)
	}
}

func TestWorkerWaitsCooldownAfterFailedSweep(t *testing.T) {
	fakeUseCase := &fakeSweepUseCase{
		err: apperrors.NewInternal("payment_store_unavailable", "store unavailable", nil),
	}
	worker := NewWorker(true, 5*time.Millisecond, 24*time.Hour, time.Hour, fakeUseCase, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(40 * time.Millisecond)
		cancel()
	}()

	worker.Start(ctx)

	if fakeUseCase.calls() != 1 {
		t.Fatalf("expected a single sweep before the cooldown elapsed, got %d", fakeUseCase.calls())
	}
}

type fakeSweepUseCase struct {
	mu        sync.Mutex
	callCount int
	last      dto.SweepPendingPaymentsCommand
	output    dto.SweepPendingPaymentsOutput
	err       *apperrors.AppError
}

func (f *fakeSweepUseCase) Execute(_ context.Context, command dto.SweepPendingPaymentsCommand) (dto.SweepPendingPaymentsOutput, *apperrors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount++
	f.last = command
	if f.err != nil {
		return dto.SweepPendingPaymentsOutput{}, f.err
	}
	return f.output, nil
}

func (f *fakeSweepUseCase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

func (f *fakeSweepUseCase) lastCommand() dto.SweepPendingPaymentsCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
