// Package cellparse normalizes raw spreadsheet values from the route
// registry and the fault log into typed values.
package cellparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

var (
	clockPattern      = regexp.MustCompile(`^\d{1,4}:\d{2}(:\d{2})?$`)
	isoDatePattern    = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	monthTokenPattern = regexp.MustCompile(`(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
	yearPattern       = regexp.MustCompile(`(20\d{2})`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	hyphenPattern     = regexp.MustCompile(`\s*-\s*`)
	trailingZeroID    = regexp.MustCompile(`\.0$`)
	filenameReserved  = regexp.MustCompile(`[\\/:*?"<>|]`)
)

var monthTokens = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Duration converts a fault-duration cell to hours. Numeric cells are taken
// as hours; clock-formatted cells carry a day fraction; text accepts "H:MM"
// or "H:MM:SS" and then a bare number. ok is false when nothing parses.
func Duration(c sheet.Cell) (float64, bool) {
	switch c.Kind {
	case sheet.KindEmpty:
		return 0, false
	case sheet.KindNumber:
		return c.Number, true
	case sheet.KindClock:
		return c.Number * 24, true
	}
	return DurationText(c.Text)
}

// DurationText parses the textual forms accepted by Duration.
func DurationText(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if clockPattern.MatchString(s) {
		parts := strings.Split(s, ":")
		h, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		sec := 0
		if len(parts) == 3 {
			sec, _ = strconv.Atoi(parts[2])
		}
		return float64(h) + float64(m)/60.0 + float64(sec)/3600.0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeRouteName folds a route name to its join key. Two names denote
// the same route only when their normalized forms are byte-equal.
func NormalizeRouteName(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "\u00a0", " ")
	t = strings.ReplaceAll(t, "\u2013", "-")
	t = strings.ReplaceAll(t, "\u2014", "-")
	t = whitespacePattern.ReplaceAllString(t, " ")
	t = hyphenPattern.ReplaceAllString(t, "-")
	return strings.TrimSpace(t)
}

// ExemptFlag interprets a free-text exemption marker. Ambiguous values are
// not exempt.
func ExemptFlag(raw string) bool {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "":
		return false
	case "NO", "N", "0", "FALSE":
		return false
	case "YES", "Y", "1", "TRUE":
		return true
	}
	return strings.Contains(s, "YES") || strings.Contains(s, "EXEMPT")
}

// MonthYear extracts the billing month from a registry cell.
func MonthYear(c sheet.Cell) (int, time.Month, bool) {
	if c.Kind == sheet.KindDate {
		return c.Time.Year(), c.Time.Month(), true
	}
	return MonthYearText(c.Value())
}

// MonthYearText searches free text for an ISO date, then for a month token
// plus a 20xx year.
func MonthYearText(raw string) (int, time.Month, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, false
	}
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return 0, 0, false
		}
		return year, time.Month(month), true
	}
	token := monthTokenPattern.FindStringSubmatch(strings.ToLower(s))
	year := yearPattern.FindStringSubmatch(s)
	if token != nil && year != nil {
		y, _ := strconv.Atoi(year[1])
		return y, monthTokens[token[1]], true
	}
	return 0, 0, false
}

// TDSRate maps the 4th character of the vendor PAN to the income-tax TDS
// rate in percent. ok is false when no character was supplied.
func TDSRate(pan4 string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(pan4))
	if s == "" {
		return 0, false
	}
	if s == "P" || s == "H" {
		return 1, true
	}
	return 2, true
}

// RouteID canonicalizes a route identifier: trimmed, with a spreadsheet
// float suffix ".0" removed.
func RouteID(c sheet.Cell) string {
	return trailingZeroID.ReplaceAllString(Literal(c), "")
}

// Literal returns the trimmed cell text as written. Numeric cells keep
// their source text, so "00123" stays "00123", unless that text is a
// formatted display such as "12,345".
func Literal(c sheet.Cell) string {
	if c.Kind == sheet.KindNumber {
		raw := strings.TrimSpace(c.Text)
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return raw
		}
	}
	return strings.TrimSpace(c.Value())
}

// Number coerces a cell to a finite float. ok is false for blanks, text,
// NaN and infinities.
func Number(c sheet.Cell) (float64, bool) {
	switch c.Kind {
	case sheet.KindNumber, sheet.KindClock:
		return c.Number, true
	case sheet.KindText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// FirstNonBlank returns the first non-blank trimmed value.
func FirstNonBlank(values []string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// SanitizeFilename makes s safe for use inside an output file name.
func SanitizeFilename(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	s = filenameReserved.ReplaceAllString(s, "_")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .-_")
	if s == "" {
		s = "Unknown"
	}
	runes := []rune(s)
	if maxLen > 0 && len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes)
}
