package valueobjects

import (
	"sort"
	"strings"

	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

func ParseTier(raw string) (Tier, *apperrors.AppError) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierBasic:
		return TierBasic, nil
	case TierPro:
		return TierPro, nil
	case TierEnterprise:
		return TierEnterprise, nil
	default:
		return "", apperrors.NewValidation(
			"unsupported_tier",
			"tier is not supported",
			map[string]any{"tier": raw},
		)
	}
}

func (t Tier) String() string {
	return string(t)
}

type TierPlan struct {
	Tier         Tier
	PriceUSD     decimal.Decimal
	DurationDays int
	AdSlots      int
}

type TierCatalog struct {
	plans map[Tier]TierPlan
}

func DefaultTierCatalog() TierCatalog {
	catalog, _ := NewTierCatalog([]TierPlan{
		{Tier: TierBasic, PriceUSD: decimal.NewFromInt(15), DurationDays: 30, AdSlots: 1},
		{Tier: TierPro, PriceUSD: decimal.NewFromInt(45), DurationDays: 30, AdSlots: 3},
		{Tier: TierEnterprise, PriceUSD: decimal.NewFromInt(75), DurationDays: 30, AdSlots: 5},
	})
	return catalog
}

func NewTierCatalog(plans []TierPlan) (TierCatalog, *apperrors.AppError) {
	byTier := make(map[Tier]TierPlan, len(plans))
	for _, plan := range plans {
		if _, appErr := ParseTier(string(plan.Tier)); appErr != nil {
			return TierCatalog{}, appErr
		}
		if !plan.PriceUSD.IsPositive() {
			return TierCatalog{}, apperrors.NewValidation(
				"tier_price_invalid",
				"tier price must be positive",
				map[string]any{"tier": plan.Tier.String()},
			)
		}
		if plan.DurationDays <= 0 {
			return TierCatalog{}, apperrors.NewValidation(
				"tier_duration_invalid",
				"tier duration must be positive",
				map[string]any{"tier": plan.Tier.String()},
			)
		}
		byTier[plan.Tier] = plan
	}
	if _, exists := byTier[TierBasic]; !exists {
		return TierCatalog{}, apperrors.NewValidation(
			"tier_catalog_basic_missing",
			"tier catalog must define the basic tier",
			nil,
		)
	}

	return TierCatalog{plans: byTier}, nil
}

func (c TierCatalog) Plan(tier Tier) (TierPlan, bool) {
	plan, exists := c.plans[tier]
	return plan, exists
}

// Basic is the fallback plan; every valid catalog has one.
func (c TierCatalog) Basic() TierPlan {
	return c.plans[TierBasic]
}

// TierForAmount matches an exact catalog price. Any other amount is reported as unmatched.
func (c TierCatalog) TierForAmount(amountUSD decimal.Decimal) (TierPlan, bool) {
	for _, plan := range c.Plans() {
		if plan.PriceUSD.Equal(amountUSD) {
			return plan, true
		}
	}
	return c.Basic(), false
}

func (c TierCatalog) Plans() []TierPlan {
	out := make([]TierPlan, 0, len(c.plans))
	for _, plan := range c.plans {
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PriceUSD.LessThan(out[j].PriceUSD)
	})
	return out
}
