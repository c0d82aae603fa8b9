package documents

import (
	"fmt"
	"math"

	"github.com/atelier-erp/atelier-erp/internal/money"
)

// MaxAllowedRemise returns the highest discount percentage that keeps the
// post-discount total at or above what has already been collected.
func MaxAllowedRemise(documentTotal, totalPaid float64) float64 {
	if documentTotal <= 0 {
		return 0
	}
	return money.Clamp(100-totalPaid*100/documentTotal, 0, 100)
}

// EffectiveMaxRemise unifies the payment-coverage bound and the sub-type hard
// cap into the single ceiling applied at every remise entry point.
func EffectiveMaxRemise(docType DocType, documentTotal, totalPaid float64) float64 {
	return math.Min(MaxAllowedRemise(documentTotal, totalPaid), docType.RemiseCap())
}

// DiscountAmount computes the discount value for a subtotal.
func DiscountAmount(subtotal, remisePercent float64) float64 {
	return money.Round2(subtotal * remisePercent / 100)
}

// PostDiscountTotal computes the amount due after discount.
func PostDiscountTotal(subtotal, remisePercent float64) float64 {
	return money.Round2(subtotal * (100 - remisePercent) / 100)
}

// ValidateRemise rejects a discount percentage that violates either bound, or
// that would leave the post-discount total below the collected payments.
func ValidateRemise(docType DocType, subtotal, remisePercent, totalPaid float64) error {
	if remisePercent < 0 || remisePercent > 100 {
		return fmt.Errorf("%w: %.2f%% outside [0,100]", ErrRemiseExceedsMax, remisePercent)
	}
	max := EffectiveMaxRemise(docType, subtotal, totalPaid)
	if remisePercent > max+1e-9 {
		return fmt.Errorf("%w: %.2f%% > %.2f%%", ErrRemiseExceedsMax, remisePercent, max)
	}
	if PostDiscountTotal(subtotal, remisePercent) < money.Round2(totalPaid)-0.005 {
		return fmt.Errorf("%w: due %.2f < paid %.2f", ErrPaymentsExceedTotal,
			PostDiscountTotal(subtotal, remisePercent), money.Round2(totalPaid))
	}
	return nil
}
