package entities

import (
	"time"

	valueobjects "cryptosub/internal/domain/value_objects"
)

type Subscription struct {
	UserID    int64
	Tier      valueobjects.Tier
	ExpiresAt time.Time
}

func (s Subscription) IsActive(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
