package gifts

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber reads a cell as a number and returns def when it is not one.
// It accepts "1899.90", " 1899 ", "R$ 1899,90" and "1.899,90".
func ParseNumber(raw string, def float64) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}

	if strings.Contains(s, ",") {
		// Brazilian format: dots group thousands, the comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// ParseCount reads a cell as a quota count, truncating fractions.
func ParseCount(raw string, def int) int {
	v := ParseNumber(raw, float64(def))
	return int(v)
}

// Round2 rounds a currency amount to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// PerQuota splits a price into equal quotas, rounded to cents.
func PerQuota(total float64, quotas int) float64 {
	if quotas <= 0 {
		quotas = 1
	}
	return decimal.NewFromFloat(total).
		DivRound(decimal.NewFromInt(int64(quotas)), 2).
		InexactFloat64()
}

// FormatAmount renders an amount with two decimals and a dot, as stored in the sheet.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatBRL renders an amount as "R$ 1.234,56".
func FormatBRL(v float64) string {
	fixed := decimal.NewFromFloat(v).Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "R$ " + b.String() + "," + frac
}
