package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var soldOutPhrases = []string{
	"sold out",
	"sold",
	"out of stock",
	"unavailable",
	"no longer available",
	"private collection",
}

var (
	leadingCurrencyCode  = regexp.MustCompile(`^[A-Za-z]{3}\s*`)
	trailingCurrencyCode = regexp.MustCompile(`\s*[A-Za-z]{3}$`)
	strictAmount         = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
)

const currencySymbols = "$€£¥₹ \t"

// PriceResult is the outcome of ParsePrice. Cents is nil when no exact
// price could be read.
type PriceResult struct {
	Cents     *int64
	IsSoldOut bool
}

// ParsePrice reads a single price like "$1,200.00", "USD 115" or "Sold".
// Ranges, prose and bare symbols yield a nil Cents.
func ParsePrice(raw string) PriceResult {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, phrase := range soldOutPhrases {
		if strings.Contains(lower, phrase) {
			return PriceResult{IsSoldOut: true}
		}
	}

	s := strings.TrimSpace(raw)
	s = strings.Trim(s, currencySymbols)
	s = leadingCurrencyCode.ReplaceAllString(s, "")
	s = trailingCurrencyCode.ReplaceAllString(s, "")
	s = strings.Trim(s, currencySymbols)
	s = strings.ReplaceAll(s, ",", "")

	if !strictAmount.MatchString(s) {
		return PriceResult{}
	}
	dollars, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return PriceResult{}
	}
	cents := int64(math.Round(dollars * 100))
	return PriceResult{Cents: &cents}
}
