package domain

// ReferralDiscount is the referee-side discount derived from the library's
// referral program. It only applies when no explicit coupon was supplied.
type ReferralDiscount struct {
	Type  PromotionType
	Value int64
}

type DiscountResult struct {
	FinalAmount    int64
	DiscountAmount int64
	Description    string
}

// DiscountFor computes the discount this promotion grants on base.
// Percentage discounts are clamped to MaxDiscount when set; the result never
// exceeds base.
func (p Promotion) DiscountFor(base int64) int64 {
	return discountAmount(base, p.Type, p.Value, p.MaxDiscount)
}

// ComputeAmount resolves the final payable amount. An explicit coupon always
// wins over a referral discount; the referral discount is only considered
// when no coupon is present. When the referral discount applies, the
// description is annotated so receipts show the reason.
func ComputeAmount(base int64, description string, coupon *Promotion, referral *ReferralDiscount) DiscountResult {
	res := DiscountResult{FinalAmount: base, Description: description}
	if base < 0 {
		res.FinalAmount = 0
		return res
	}

	switch {
	case coupon != nil:
		res.DiscountAmount = coupon.DiscountFor(base)
	case referral != nil:
		res.DiscountAmount = discountAmount(base, referral.Type, referral.Value, nil)
		if res.DiscountAmount > 0 {
			res.Description = description + " (Referral Discount)"
		}
	}

	res.FinalAmount = base - res.DiscountAmount
	if res.FinalAmount < 0 {
		res.FinalAmount = 0
	}
	return res
}

func discountAmount(base int64, typ PromotionType, value int64, maxDiscount *int64) int64 {
	if base <= 0 || value <= 0 {
		return 0
	}

	var discount int64
	switch typ {
	case PromotionTypePercentage:
		discount = base * value / 100
		if maxDiscount != nil && discount > *maxDiscount {
			discount = *maxDiscount
		}
	case PromotionTypeFixed:
		discount = value
	default:
		return 0
	}

	if discount > base {
		discount = base
	}
	return discount
}
