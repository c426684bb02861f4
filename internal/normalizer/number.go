package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberStripper = strings.NewReplacer("$", "", "%", "", ",", "")
	numberPrefix   = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ToNumber coerces a cell value into a non-negative float. Currency symbols,
// percent signs and thousands separators are ignored. Blank, unparseable,
// negative and non-finite values become 0.
func ToNumber(v Value) float64 {
	switch v.Kind() {
	case KindNumber:
		return clean(v.num)
	case KindText:
		return ParseNumber(v.text)
	default:
		return 0
	}
}

// ParseNumber parses the leading number of a formatted string such as
// "$1,234.56" or "12.5%".
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(numberStripper.Replace(s))
	if s == "" {
		return 0
	}
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return clean(f)
}

func clean(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
