// Package utils provides common utility functions for ArthAstra:
// Indian-format currency rendering and IST date handling.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatINR renders an amount in the Indian numbering system with a rupee
// sign and two decimal places: 1234567.89 becomes "₹12,34,567.89". The last
// three digits form one group, everything above groups in pairs.
func FormatINR(amount float64) string {
	sign := "₹"
	if amount < 0 {
		sign = "-₹"
	}

	paise := int64(math.Round(math.Abs(amount) * 100))
	return fmt.Sprintf("%s%s.%02d", sign, groupIndian(paise/100), paise%100)
}

// inrUnits are the compact-notation thresholds, largest first.
var inrUnits = []struct {
	value  float64
	suffix string
}{
	{1e12, " L Cr"},
	{1e7, " Cr"},
	{1e5, " L"},
	{1e3, " K"},
}

// FormatINRCompact renders an amount in Lakh/Crore shorthand:
// 1500000 becomes "₹15 L", 192734500000 becomes "₹19273.45 Cr".
// Amounts under a thousand fall back to plain two-decimal rupees.
func FormatINRCompact(amount float64) string {
	sign := "₹"
	if amount < 0 {
		sign = "-₹"
	}
	abs := math.Abs(amount)

	for _, u := range inrUnits {
		if abs >= u.value {
			return sign + trimZeros(abs/u.value) + u.suffix
		}
	}
	return fmt.Sprintf("%s%.2f", sign, abs)
}

// ToLakhs converts a raw amount to lakhs.
func ToLakhs(amount float64) float64 { return amount / 1e5 }

// ToCrores converts a raw amount to crores.
func ToCrores(amount float64) float64 { return amount / 1e7 }

// FromLakhs converts lakhs back to a raw amount.
func FromLakhs(lakhs float64) float64 { return lakhs * 1e5 }

// FromCrores converts crores back to a raw amount.
func FromCrores(crores float64) float64 { return crores * 1e7 }

// FormatPct renders a percentage with an explicit sign: "+2.45%", "-1.23%".
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// groupIndian inserts commas per the Indian system: the low three digits
// stand alone, the rest split into pairs.
func groupIndian(n int64) string {
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}

	groups := []string{digits[len(digits)-3:]}
	rest := digits[:len(digits)-3]
	for len(rest) > 2 {
		groups = append([]string{rest[len(rest)-2:]}, groups...)
		rest = rest[:len(rest)-2]
	}
	groups = append([]string{rest}, groups...)

	return strings.Join(groups, ",")
}

// trimZeros rounds to two decimals and drops a trailing ".00" or ".x0".
func trimZeros(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
