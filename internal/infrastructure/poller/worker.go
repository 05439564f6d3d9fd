package poller

import (
	"context"
	"log"
	"time"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	"cryptosub/internal/infrastructure/metrics"
)

// Worker sweeps pending payments on a fixed cadence. A failed sweep waits errorCooldown
// instead of the regular interval before trying again.
type Worker struct {
	enabled       bool
	interval      time.Duration
	maxAge        time.Duration
	errorCooldown time.Duration
	useCase       portsin.SweepPendingPaymentsUseCase
	logger        *log.Logger
}

func NewWorker(
	enabled bool,
	interval time.Duration,
	maxAge time.Duration,
	errorCooldown time.Duration,
	useCase portsin.SweepPendingPaymentsUseCase,
	logger *log.Logger,
) *Worker {
	return &Worker{
		enabled:       enabled,
		interval:      interval,
		maxAge:        maxAge,
		errorCooldown: errorCooldown,
		useCase:       useCase,
		logger:        logger,
	}
}

func (w *Worker) Enabled() bool {
	return w != nil && w.enabled
}

func (w *Worker) Start(ctx context.Context) {
	if w == nil || !w.enabled || w.useCase == nil {
		return
	}

	w.logf(
		"payment poller started interval=%s max_age=%s error_cooldown=%s",
		w.interval,
		w.maxAge,
		w.errorCooldown,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logf("payment poller stopped")
			return
		case <-timer.C:
			next := w.interval
			if !w.runCycle(ctx) {
				next = w.errorCooldown
			}
			timer.Reset(next)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) bool {
	startedAt := time.Now().UTC()
	output, appErr := w.useCase.Execute(ctx, dto.SweepPendingPaymentsCommand{MaxAge: w.maxAge})
	if appErr != nil {
		metrics.PollerSweepsTotal.WithLabelValues("error").Inc()
		w.logf(
			"payment poller sweep failed code=%s message=%s details=%v cooldown=%s",
			appErr.Code,
			appErr.Message,
			appErr.Details,
			w.errorCooldown,
		)
		return false
	}

	metrics.PollerSweepsTotal.WithLabelValues("ok").Inc()
	metrics.PollerPaymentsTotal.WithLabelValues("verified").Add(float64(output.Verified))
	metrics.PollerPaymentsTotal.WithLabelValues("expired").Add(float64(output.Expired))
	metrics.PollerPaymentsTotal.WithLabelValues("pending").Add(float64(output.Pending))
	metrics.PollerPaymentsTotal.WithLabelValues("error").Add(float64(output.Errors))

	w.logf(
		"payment poller sweep completed scanned=%d verified=%d expired=%d pending=%d errors=%d latency_ms=%d",
		output.Scanned,
		output.Verified,
		output.Expired,
		output.Pending,
		output.Errors,
		time.Since(startedAt).Milliseconds(),
	)
	return true
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
