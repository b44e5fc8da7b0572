package services

import "strings"

// Alias tables mapping free-text labels from the passenger side onto the
// canonical tags drivers are configured with. Kept as data so new locales
// can be added without touching the matcher.

var paymentAliases = map[string]string{
	"💵 готівка": "cash",
	"готівка":   "cash",
	"💳 переказ на картку водію": "card",
	"карта":     "card",
	"на картку": "card",
	"cash":      "cash",
	"card":      "card",
}

var tariffAliases = map[string]string{
	"стандарт": "standard",
	"комфорт":  "comfort",
	"бізнес":   "business",
	"standard": "standard",
	"comfort":  "comfort",
	"business": "business",
}

// NormalizePayment lowercases and resolves a payment label. Unknown labels
// pass through lowercased so the matcher's equality check fails closed.
func NormalizePayment(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := paymentAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeTariff resolves a tariff label to its canonical class tag.
func NormalizeTariff(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := tariffAliases[key]; ok {
		return canonical
	}
	return key
}
