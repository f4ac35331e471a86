// Package util provides unit extraction helpers shared by the channel
// parsers. SKU descriptions encode pack sizes in several vendor-specific
// notations; these helpers turn them into bottle counts.
package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rePack     = regexp.MustCompile(`(\d+)-pack`)
	rePk       = regexp.MustCompile(`(\d+)\s*pk`)
	reBtls     = regexp.MustCompile(`(\d+)\s*btls`)
	reMult     = regexp.MustCompile(`(\d+)\s*[*&x×]\s*(\d+)`)
	reCasePack = regexp.MustCompile(`(\d+)/(\d+)x`)
	reSingle   = regexp.MustCompile(`\bsingle\b`)
)

// PackSize is the outcome of pack-notation extraction for one description.
type PackSize struct {
	BottlesPerPack float64
	PacksPerCase   float64 // 0 when the notation does not carry a case count
	Rule           string  // which notation matched
}

// ExtractPackSize parses pack notation out of a SKU description. Rules are
// tried in priority order; the first match wins. Returns false when no
// notation is present.
func ExtractPackSize(description string) (PackSize, bool) {
	text := strings.ToLower(description)

	if m := reCasePack.FindStringSubmatch(text); m != nil {
		packs, _ := strconv.ParseFloat(m[1], 64)
		bottles, _ := strconv.ParseFloat(m[2], 64)
		return PackSize{BottlesPerPack: bottles, PacksPerCase: packs, Rule: "P/Bx"}, true
	}
	if m := rePack.FindStringSubmatch(text); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		return PackSize{BottlesPerPack: n, Rule: "X-pack"}, true
	}
	if m := rePk.FindStringSubmatch(text); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		return PackSize{BottlesPerPack: n, Rule: "X pk"}, true
	}
	if m := reBtls.FindStringSubmatch(text); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		return PackSize{BottlesPerPack: n, Rule: "X btls"}, true
	}
	if m := reMult.FindStringSubmatch(text); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[2], 64)
		return PackSize{BottlesPerPack: b, PacksPerCase: a, Rule: "A*B"}, true
	}
	if reSingle.MatchString(text) {
		return PackSize{BottlesPerPack: 1, Rule: "single"}, true
	}
	return PackSize{}, false
}

// TotalBottles converts an order quantity into a bottle count using the
// extracted pack size. Quantity counts packs (or cases when the notation
// carries a case multiplier).
func (p PackSize) TotalBottles(quantity float64) float64 {
	if p.PacksPerCase > 0 {
		return quantity * p.PacksPerCase * p.BottlesPerPack
	}
	return quantity * p.BottlesPerPack
}
