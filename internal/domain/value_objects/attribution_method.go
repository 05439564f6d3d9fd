package valueobjects

import apperrors "cryptosub/internal/shared_kernel/errors"

type AttributionMethod string

const (
	AttributionMemo             AttributionMethod = "memo"
	AttributionAmountTimeWindow AttributionMethod = "amount_time_window"
)

func ParseAttributionMethod(raw string) (AttributionMethod, *apperrors.AppError) {
	switch raw {
	case string(AttributionMemo):
		return AttributionMemo, nil
	case string(AttributionAmountTimeWindow):
		return AttributionAmountTimeWindow, nil
	default:
		return "", apperrors.NewInternal(
			"attribution_method_invalid",
			"attribution method is invalid",
			map[string]any{"attribution_method": raw},
		)
	}
}

func (m AttributionMethod) String() string {
	return string(m)
}
