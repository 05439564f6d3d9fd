package use_cases

import (
	"context"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type listCurrenciesUseCase struct {
	addressBook portsout.WalletAddressBook
	catalog     valueobjects.TierCatalog
}

func NewListCurrenciesUseCase(addressBook portsout.WalletAddressBook, catalog valueobjects.TierCatalog) portsin.ListCurrenciesUseCase {
	return &listCurrenciesUseCase{
		addressBook: addressBook,
		catalog:     catalog,
	}
}

func (u *listCurrenciesUseCase) Execute(_ context.Context, _ dto.ListCurrenciesQuery) (dto.ListCurrenciesOutput, *apperrors.AppError) {
	if u.addressBook == nil {
		return dto.ListCurrenciesOutput{}, apperrors.NewInternal(
			"wallet_address_book_missing",
			"wallet address book is required",
			nil,
		)
	}

	output := dto.ListCurrenciesOutput{
		Currencies: make([]dto.CurrencyEntry, 0, len(valueobjects.SupportedCryptoTypes)),
	}
	for _, crypto := range valueobjects.SupportedCryptoTypes {
		output.Currencies = append(output.Currencies, dto.CurrencyEntry{
			CryptoType:        crypto.String(),
			Chain:             crypto.Chain(),
			AttributionMethod: crypto.DefaultAttributionMethod().String(),
			DisplayPrecision:  crypto.DisplayPrecision(),
			Stablecoin:        crypto.IsStablecoin(),
			Configured:        u.addressBook.Configured(crypto),
		})
	}

	plans := u.catalog.Plans()
	output.Tiers = make([]dto.TierEntry, 0, len(plans))
	for _, plan := range plans {
		output.Tiers = append(output.Tiers, dto.TierEntry{
			Tier:         plan.Tier.String(),
			PriceUSD:     plan.PriceUSD.StringFixed(2),
			DurationDays: plan.DurationDays,
			AdSlots:      plan.AdSlots,
		})
	}

	return output, nil
}
