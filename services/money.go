package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies whose minor unit is not the usual 1/100.
var minorUnitExponents = map[string]int32{
	"KRW": 0,
	"JPY": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"TND": 3,
}

// CurrencyExponent returns the number of minor-unit decimal places for an
// ISO 4217 currency code (2 unless listed otherwise).
func CurrencyExponent(code string) int32 {
	if exp, ok := minorUnitExponents[strings.ToUpper(code)]; ok {
		return exp
	}
	return 2
}

// ToMinorUnits converts a major-unit decimal amount to integer minor units
// of the given currency, rounding half to even so repeated normalizations
// carry no systematic bias.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(CurrencyExponent(currency)).RoundBank(0).IntPart()
}

// FitsCurrency reports whether amount carries no more decimal places than
// the currency's minor unit allows (e.g. rejects 10.5 KRW or 3.141 USD).
func FitsCurrency(amount decimal.Decimal, currency string) bool {
	return amount.Shift(CurrencyExponent(currency)).IsInteger()
}
