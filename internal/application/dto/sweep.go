package dto

import "time"

type SweepPendingPaymentsCommand struct {
	MaxAge time.Duration
}

type SweepPendingPaymentsOutput struct {
	Scanned  int
	Verified int
	Expired  int
	Pending  int
	Errors   int
}
