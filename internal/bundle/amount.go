package bundle

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var currencyTokens = regexp.MustCompile(`(?i)^(₹|\$|rs\.?|inr|usd)\s*`)

// totalPatterns match the labelled totals billing documents print. First
// match wins, so the most specific labels come first.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)net\s+payable\s*:?\s*₹?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)grand\s+total\s*:?\s*₹?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)total\s+amount\s*:?\s*₹?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)total\s*:?\s*₹?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`₹\s*([\d,]+\.\d{2})`),
}

// ParseAmount parses a monetary value string: currency symbols and
// thousands separators are tolerated, anything else is an error.
func ParseAmount(s string) (float64, error) {
	n := strings.TrimSpace(s)
	n = currencyTokens.ReplaceAllString(n, "")
	n = strings.ReplaceAll(n, ",", "")
	n = strings.TrimSpace(n)
	if n == "" {
		return 0, eris.New("empty amount")
	}
	v, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, eris.Errorf("unparseable amount %q", s)
	}
	return v, nil
}

// ExtractTotal scans free text for a labelled total amount. Used to surface
// the detected charge when classifying a document from its content preview.
func ExtractTotal(text string) (float64, bool) {
	for _, p := range totalPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := ParseAmount(m[1])
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
