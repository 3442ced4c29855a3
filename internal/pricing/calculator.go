// Package pricing turns priced cart lines and promotion amounts into order totals.
// Everything here is pure: no I/O, no clock, no hidden state.
package pricing

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of decimal places of the store currency.
const MinorUnitPlaces = 2

var hundred = decimal.NewFromInt(100)

// Line is a cart line priced from the catalog.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Input collects everything the calculator needs.
type Input struct {
	Lines []Line
	// DiscountAmount is the amount requested by the discount validator. Clamped to [0, subtotal].
	DiscountAmount decimal.Decimal
	// GiftCardBalance is the available balance. Applied only against what remains after the discount.
	GiftCardBalance decimal.Decimal
	Shipping        decimal.Decimal
}

// Breakdown is the result of a calculation. Total equals
// max(0, Subtotal - Discount - GiftCard + Shipping) exactly.
type Breakdown struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	GiftCard decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Calculate computes subtotal, clamped discount, clamped gift card amount, shipping and total.
func Calculate(in Input) Breakdown {
	subtotal := Subtotal(in.Lines)

	discount := clamp(RoundMoney(in.DiscountAmount), subtotal)
	remaining := subtotal.Sub(discount)
	giftCard := clamp(RoundMoney(in.GiftCardBalance), remaining)

	shipping := RoundMoney(in.Shipping)
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}

	total := subtotal.Sub(discount).Sub(giftCard).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		GiftCard: giftCard,
		Shipping: shipping,
		Total:    RoundMoney(total),
	}
}

// Subtotal is the sum of unit price times quantity, rounded to minor units.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return RoundMoney(sum)
}

// Percentage returns value percent of amount, kept at four decimal places so the
// final rounding to minor units happens once.
func Percentage(amount, value decimal.Decimal) decimal.Decimal {
	return amount.Mul(value).Div(hundred).Round(4)
}

// RoundMoney rounds half-up (away from zero) to the currency's minor unit.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitPlaces)
}

// clamp bounds v to [0, upper].
func clamp(v, upper decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if upper.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(v, upper)
}
