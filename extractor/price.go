package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// priceNumber matches the first amount in a string. Spaces (including
// no-break and narrow no-break) and apostrophes only count as thousands
// separators between groups of exactly three digits, so "$24.99 2 for $40"
// stops after 24.99. A leading decimal point (".99") is accepted.
var priceNumber = regexp.MustCompile(`(?:\d{1,3}(?:[ \x{00a0}\x{202f}']\d{3})+|\d+)(?:[.,]\d+)*|[.,]\d+`)

// ParsePrice extracts a non-negative amount from a human-formatted price
// such as "$1,299.99", "1.299,99 €", "1 299,00 €" or "CHF 1'299.–". It reports false for
// text without a number ("free") and for negative amounts.
//
// A lone separator followed by exactly three digits is read as a thousands
// separator ("1.299" is 1299); otherwise the last separator is the decimal point.
func ParsePrice(s string) (float64, bool) {
	loc := priceNumber.FindStringIndex(s)
	if loc == nil {
		return 0, false
	}

	prefix := strings.TrimRightFunc(s[:loc[0]], func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Sc, r)
	})
	if strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, "−") {
		return 0, false
	}

	num := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			return r
		}
		return -1
	}, s[loc[0]:loc[1]])
	num = strings.TrimRight(num, ".,")

	lastDot := strings.LastIndexByte(num, '.')
	lastComma := strings.LastIndexByte(num, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			num = strings.ReplaceAll(num, ",", "")
		} else {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		}
	case lastComma >= 0:
		num = normaliseSingleSeparator(num, ',')
	case lastDot >= 0:
		num = normaliseSingleSeparator(num, '.')
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// normaliseSingleSeparator handles numbers that use only one kind of
// separator, returning a string strconv can parse.
func normaliseSingleSeparator(num string, sep byte) string {
	s := string(sep)
	if strings.Count(num, s) > 1 {
		return strings.ReplaceAll(num, s, "")
	}
	idx := strings.IndexByte(num, sep)
	if len(num)-idx-1 == 3 {
		return strings.Replace(num, s, "", 1)
	}
	return strings.Replace(num, s, ".", 1)
}
