package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reYear  = regexp.MustCompile(`(20\d{2})`)
	reMonth = regexp.MustCompile(`(?i)(jan\.?|feb\.?|mar\.?|apr\.?|may\.?|jun\.?|jul\.?|aug\.?|sep\.?|sept\.?|oct\.?|nov\.?|dec\.?|january|february|march|april|june|july|august|september|october|november|december)`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// monthFromName extracts the reporting month from a file or sheet name like
// "Horizon Sales Mar. 2024.csv" or "March 2024". Monthly exports carry no
// per-row date, so every row is stamped with the first of that month.
func monthFromName(name string) (time.Time, error) {
	ym := reYear.FindStringSubmatch(name)
	mm := reMonth.FindStringSubmatch(name)
	if ym == nil || mm == nil {
		return time.Time{}, fmt.Errorf("no month and year in name %q", name)
	}
	year, err := strconv.Atoi(ym[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad year in name %q", name)
	}
	key := strings.TrimSuffix(strings.ToLower(mm[1]), ".")
	month, ok := monthNames[key]
	if !ok {
		return time.Time{}, fmt.Errorf("bad month %q in name %q", mm[1], name)
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}
