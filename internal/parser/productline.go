package parser

import (
	"strings"

	"salesmerge/pkg/canonical"
)

// ClassifyProductLine assigns the product family from a SKU description.
func ClassifyProductLine(description string) canonical.ProductLine {
	text := strings.ToLower(description)
	switch {
	case strings.Contains(text, "pale"):
		return canonical.PaleAle
	case strings.Contains(text, "pilsner"):
		return canonical.Pilsner
	case strings.Contains(text, "ipa"):
		return canonical.IPA
	case strings.Contains(text, "lager"):
		return canonical.DarkLager
	default:
		return canonical.OtherLine
	}
}

// provinceNames expands two-letter Canadian province codes in the feed.
var provinceNames = map[string]string{
	"AB": "Alberta", "BC": "British Columbia", "MB": "Manitoba",
	"NB": "New Brunswick", "NL": "Newfoundland and Labrador",
	"NS": "Nova Scotia", "NT": "Northwest Territories", "NU": "Nunavut",
	"ON": "Ontario", "PE": "Prince Edward Island", "QC": "Quebec",
	"SK": "Saskatchewan", "YT": "Yukon",
}

func expandProvince(code string) string {
	if full, ok := provinceNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return full
	}
	return strings.TrimSpace(code)
}
