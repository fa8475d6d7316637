// Package report renders the workbook, the accounts office note, the
// clause 14.1 penalty note and the machine-readable run summary.
package report

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/ledger"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/penalty"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/reconcile"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
)

// Bill is everything one run computed.
type Bill struct {
	Registry   *registry.Registry
	Faults     *reconcile.Result
	Assessment penalty.Assessment
	Ledger     ledger.Ledger
}

// Money formats an amount as fixed 2-decimal text grouped by thousands,
// e.g. "123,456.78".
func Money(d decimal.Decimal) string {
	s := d.StringFixedBank(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return "0.00"
	}
	out := humanize.Comma(n) + "." + frac
	if negative && out != "0.00" {
		out = "-" + out
	}
	return out
}

// Fixed2 formats a float with exactly 2 decimals.
func Fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// YesNo renders a flag the way the notes and workbook print it.
func YesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
