package dto

import "time"

type GetUserSubscriptionQuery struct {
	UserID int64
}

type SubscriptionView struct {
	UserID    int64     `json:"user_id"`
	Tier      string    `json:"tier"`
	AdSlots   int       `json:"ad_slots"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
}

type ListCurrenciesQuery struct{}

type CurrencyEntry struct {
	CryptoType        string `json:"crypto_type"`
	Chain             string `json:"chain"`
	AttributionMethod string `json:"attribution_method"`
	DisplayPrecision  int32  `json:"display_precision"`
	Stablecoin        bool   `json:"stablecoin"`
	Configured        bool   `json:"configured"`
}

type TierEntry struct {
	Tier         string `json:"tier"`
	PriceUSD     string `json:"price_usd"`
	DurationDays int    `json:"duration_days"`
	AdSlots      int    `json:"ad_slots"`
}

type ListCurrenciesOutput struct {
	Currencies []CurrencyEntry `json:"currencies"`
	Tiers      []TierEntry     `json:"tiers"`
}
