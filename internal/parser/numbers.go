package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	spaceRE = regexp.MustCompile(`\s+`)
	floatRE = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	moneyRE = regexp.MustCompile(`([\d,]+(?:\.\d{2})?)`)
)

// cleanText collapses whitespace and strips zero-width junk that PDF text
// extraction tends to leave behind.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "​", " ")
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// toFloat extracts the first float-looking token from s, nil if there is none.
func toFloat(s string) *float64 {
	m := floatRE.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

// toInt parses s as an integer, nil on failure. Used for sub-fields where a
// malformed value degrades to a fallback marker instead of rejecting the line.
func toInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// moneyToDecimal parses a comma-grouped money figure ("12,340" or "12,340.50").
// Returns nil for malformed input rather than an error.
func moneyToDecimal(s string) *decimal.Decimal {
	m := moneyRE.FindString(s)
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

// splitAgeSex parses tokens like "2d" or "3b" used on greyhound forms,
// returning age and sex ("M" for dog, "F" for bitch).
func splitAgeSex(token string) (*int, string) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, ""
	}

	var age *int
	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i > 0 {
		age = toInt(t[:i])
	}

	sex := ""
	if i < len(t) {
		switch last := strings.ToLower(t[len(t)-1:]); last {
		case "d":
			sex = "M"
		case "b":
			sex = "F"
		default:
			sex = strings.ToUpper(last)
		}
	}
	return age, sex
}

// parseFloatList parses a comma-separated list like "22.65, 22.52, 22.77".
// Malformed elements are skipped.
func parseFloatList(s string) []float64 {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		if f := toFloat(part); f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// degluedName strips a leading numeric fragment when the form-number field
// glues its tail onto the name token, e.g. form "41325" + name "25Fast Lane".
func degluedName(formNumber, rawName string) string {
	name := strings.TrimSpace(rawName)
	if len(formNumber) >= 2 {
		tail := formNumber[len(formNumber)-2:]
		if strings.HasPrefix(name, tail) {
			name = strings.TrimSpace(name[len(tail):])
		}
	}
	return name
}

// normalizeName canonicalizes a name for matching section headers against
// parsed entrants: uppercase, apostrophes dropped, hyphens as spaces.
func normalizeName(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
