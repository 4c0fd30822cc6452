package ranking

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// leadingNumber matches the longest decimal prefix, the way lenient
// spreadsheet exports expect "81.4pts" or "85.9 " to read.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ToNumber normalizes a raw score cell. Whitespace is stripped, a comma
// decimal separator becomes a period, and the leading decimal number is
// parsed. Anything unparseable (including empty cells) yields 0.
func ToNumber(raw string) float64 {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	s = strings.Replace(s, ",", ".", 1)

	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
