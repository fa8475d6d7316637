// Package reconcile matches Format C fault rows to registry routes.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/cellparse"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

// Dataset labels the fault log in schema errors.
const Dataset = "Format C"

const (
	ColRouteID   = "Transnet Route ID"
	ColRouteName = "Working Route Name as per Transnet"

	// legacyDurationIndex is column N of the historical Format C layout.
	legacyDurationIndex = 13
)

// RequiredColumns lists the Format C headers that must be present.
var RequiredColumns = []string{ColRouteID, ColRouteName}

// Fault is one valid fault row.
type Fault struct {
	Row            int
	RawRouteID     string
	RawRouteName   string
	NormalizedName string
	Hours          float64
	Exempt         bool

	// RouteID is the resolved registry id, or RawRouteID when unresolved.
	RouteID       string
	Resolved      bool
	MatchedByName bool
	// RouteName is the registry name when resolved, else RawRouteName.
	RouteName string

	Cells []sheet.Cell
}

// ParseWarning describes a fault row excluded from penalty math.
type ParseWarning struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("row %d: %s %q: %s", w.Row, w.Column, w.Value, w.Reason)
}

// InvalidRow is a fault row whose duration is unusable.
type InvalidRow struct {
	Row          int
	RawRouteID   string
	RawRouteName string
	Exempt       bool
	Cells        []sheet.Cell
	Warning      ParseWarning
}

// Result is the reconciled fault log.
type Result struct {
	Headers []string

	DurationColumn     string
	DurationIndex      int
	DurationByPosition bool
	// ExemptionColumn is empty when no exemption column was detected.
	ExemptionColumn string
	ExemptionIndex  int

	Valid   []Fault
	Invalid []InvalidRow
}

// MissingRoute is an unresolved route aggregated for the mapping remarks.
type MissingRoute struct {
	RouteID       string
	RouteName     string
	DowntimeHours float64
}

// Columns is the detected Format C column layout.
type Columns struct {
	RouteID            int
	RouteName          int
	Duration           int
	DurationByPosition bool
	Exemption          int
}

// DetectColumns validates the Format C headers and locates the duration and
// exemption columns. Exemption is -1 when absent.
func DetectColumns(headers []string) (Columns, error) {
	t := sheet.Table{Headers: headers}
	if err := t.Require(Dataset, RequiredColumns...); err != nil {
		return Columns{}, err
	}
	duration, byPosition, err := DetectDurationColumn(headers)
	if err != nil {
		return Columns{}, err
	}
	return Columns{
		RouteID:            t.Index(ColRouteID),
		RouteName:          t.Index(ColRouteName),
		Duration:           duration,
		DurationByPosition: byPosition,
		Exemption:          DetectExemptionColumn(headers),
	}, nil
}

// DetectDurationColumn returns the first header naming both "fault" and
// "duration". byPosition reports use of the positional fallback.
func DetectDurationColumn(headers []string) (int, bool, error) {
	for i, h := range headers {
		s := strings.ToLower(h)
		if strings.Contains(s, "fault") && strings.Contains(s, "duration") {
			return i, false, nil
		}
	}
	// Legacy fallback of last resort: older Format C sheets carry the
	// duration in column N without a recognizable header.
	if len(headers) > legacyDurationIndex {
		return legacyDurationIndex, true, nil
	}
	return -1, false, &sheet.SchemaError{Dataset: Dataset, Missing: []string{"Fault Duration"}}
}

// DetectExemptionColumn returns the index of the exemption column, or -1.
// An explicit "exempt" header wins over a yes/no penalty column.
func DetectExemptionColumn(headers []string) int {
	for i, h := range headers {
		if strings.Contains(strings.ToLower(strings.TrimSpace(h)), "exempt") {
			return i
		}
	}
	for i, h := range headers {
		s := strings.ToLower(strings.TrimSpace(h))
		penaltyColumn := (strings.Contains(s, "mttr") && strings.Contains(s, "penalty")) ||
			strings.Contains(s, "avbility") ||
			strings.Contains(s, "availability")
		if !penaltyColumn {
			continue
		}
		if strings.Contains(s, "yes") || strings.Contains(s, "no") || strings.Contains(s, "y/n") {
			return i
		}
	}
	return -1
}

// Reconcile splits fault rows into valid and invalid sets and resolves every
// valid row by route id first, then by normalized route name. Unresolved
// rows keep their raw id. Rows are never deduplicated.
func Reconcile(t *sheet.Table, reg *registry.Registry) (*Result, error) {
	if t == nil {
		return nil, fmt.Errorf("format C table is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("route registry is required")
	}
	cols, err := DetectColumns(t.Headers)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Headers:            t.Headers,
		DurationColumn:     t.Headers[cols.Duration],
		DurationIndex:      cols.Duration,
		DurationByPosition: cols.DurationByPosition,
		ExemptionIndex:     cols.Exemption,
	}
	if cols.Exemption >= 0 {
		res.ExemptionColumn = t.Headers[cols.Exemption]
	}

	for _, row := range t.Rows {
		rawID := cellparse.RouteID(row.Cell(cols.RouteID))
		rawName := cellparse.Literal(row.Cell(cols.RouteName))
		exempt := false
		if cols.Exemption >= 0 {
			exempt = cellparse.ExemptFlag(row.Cell(cols.Exemption).Value())
		}

		durationCell := row.Cell(cols.Duration)
		hours, ok := cellparse.Duration(durationCell)
		if !ok || hours <= 0 {
			res.Invalid = append(res.Invalid, InvalidRow{
				Row:          row.Line,
				RawRouteID:   rawID,
				RawRouteName: rawName,
				Exempt:       exempt,
				Cells:        row.Cells,
				Warning: ParseWarning{
					Row:    row.Line,
					Column: res.DurationColumn,
					Value:  durationCell.Value(),
					Reason: invalidReason(durationCell, ok),
				},
			})
			continue
		}

		fault := Fault{
			Row:            row.Line,
			RawRouteID:     rawID,
			RawRouteName:   rawName,
			NormalizedName: cellparse.NormalizeRouteName(rawName),
			Hours:          hours,
			Exempt:         exempt,
			RouteID:        rawID,
			RouteName:      rawName,
			Cells:          row.Cells,
		}
		resolve(&fault, reg)
		res.Valid = append(res.Valid, fault)
	}
	return res, nil
}

func resolve(f *Fault, reg *registry.Registry) {
	switch {
	case reg.HasID(f.RawRouteID):
		f.Resolved = true
	case f.NormalizedName != "":
		if id, ok := reg.IDForName(f.NormalizedName); ok {
			f.RouteID = id
			f.Resolved = true
			f.MatchedByName = true
		}
	}
	if name, ok := reg.NameOf(f.RouteID); ok {
		f.RouteName = name
	}
}

func invalidReason(c sheet.Cell, parsed bool) string {
	switch {
	case c.Blank():
		return "blank duration"
	case !parsed:
		return "unparseable duration"
	default:
		return "non-positive duration"
	}
}

// ExemptCount returns the number of valid exempt faults.
func (r *Result) ExemptCount() int {
	n := 0
	for _, f := range r.Valid {
		if f.Exempt {
			n++
		}
	}
	return n
}

// Warnings returns the parse warning of every invalid row.
func (r *Result) Warnings() []ParseWarning {
	out := make([]ParseWarning, 0, len(r.Invalid))
	for _, row := range r.Invalid {
		out = append(out, row.Warning)
	}
	return out
}

// MissingRoutes groups unresolved faults by raw id and name, largest
// downtime first.
func (r *Result) MissingRoutes() []MissingRoute {
	type key struct{ id, name string }
	totals := map[key]float64{}
	keys := make([]key, 0)
	for _, f := range r.Valid {
		if f.Resolved {
			continue
		}
		k := key{f.RawRouteID, f.RawRouteName}
		if _, seen := totals[k]; !seen {
			keys = append(keys, k)
		}
		totals[k] += f.Hours
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}
		return keys[i].name < keys[j].name
	})
	out := make([]MissingRoute, 0, len(keys))
	for _, k := range keys {
		out = append(out, MissingRoute{RouteID: k.id, RouteName: k.name, DowntimeHours: totals[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DowntimeHours > out[j].DowntimeHours
	})
	return out
}
