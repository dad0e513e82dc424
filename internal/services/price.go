package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priceStripRe = regexp.MustCompile(`[^0-9.,]`)

// parsePrice pulls a numeric value out of a free-text price like "$4.50",
// "AUD 12", or "3,99".
func parsePrice(price string) (float64, bool) {
	if strings.TrimSpace(price) == "" {
		return 0, false
	}
	cleaned := priceStripRe.ReplaceAllString(price, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// normalizePrice canonicalizes a parseable price to "$X.XX"; unparseable
// text passes through unchanged.
func normalizePrice(price string) string {
	f, ok := parsePrice(price)
	if !ok {
		return price
	}
	return fmt.Sprintf("$%.2f", f)
}
