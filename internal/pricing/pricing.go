// Package pricing computes effective course prices. All amounts are integer
// minor units (cents); 199.90 BRL is carried as 19990.
package pricing

import (
	"errors"
	"regexp"
	"time"
)

type PromoType string

const (
	PromoPercent PromoType = "PERCENT"
	PromoFixed   PromoType = "FIXED"
)

// Promo is a time-boxed discount. Percent values are whole percentage
// points, fixed values are minor units.
type Promo struct {
	Type  PromoType `json:"type"`
	Value int64     `json:"value"`
	Until time.Time `json:"until"`
}

var (
	ErrBaseAmountInvalid = errors.New("pricing_base_amount_invalid")
	ErrCurrencyInvalid   = errors.New("pricing_currency_invalid")
	ErrPromoInvalid      = errors.New("pricing_promo_invalid")
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks a base amount, currency and optional promo. A promo may
// never drive the effective price to zero or below: percent stays under
// 100, fixed stays under the base amount.
func Validate(baseAmount int64, currency string, promo *Promo) error {
	if baseAmount <= 0 {
		return ErrBaseAmountInvalid
	}
	if !currencyRe.MatchString(currency) {
		return ErrCurrencyInvalid
	}
	if promo == nil {
		return nil
	}
	switch promo.Type {
	case PromoPercent:
		if promo.Value <= 0 || promo.Value >= 100 {
			return ErrPromoInvalid
		}
	case PromoFixed:
		if promo.Value <= 0 || promo.Value >= baseAmount {
			return ErrPromoInvalid
		}
	default:
		return ErrPromoInvalid
	}
	if promo.Until.IsZero() {
		return ErrPromoInvalid
	}
	return nil
}

// EffectivePrice applies promo discounting at the given instant. An expired
// or absent promo yields the base amount; the boundary instant still counts
// as active. Percent discounts round half up on the cent.
func EffectivePrice(baseAmount int64, promo *Promo, now time.Time) int64 {
	if promo == nil || now.After(promo.Until) {
		return baseAmount
	}
	switch promo.Type {
	case PromoPercent:
		return (baseAmount*(100-promo.Value) + 50) / 100
	case PromoFixed:
		return baseAmount - promo.Value
	default:
		return baseAmount
	}
}
