// Package registry builds the canonical route list of one billing run from
// the Format A route registry.
package registry

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/cellparse"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

// Dataset labels the registry in schema errors.
const Dataset = "Format A"

// Format A headers, matched exactly after trimming.
const (
	ColFormat    = "FORMAT"
	ColBA        = "BA"
	ColOA        = "OA"
	ColMonth     = "Month"
	ColSlNo      = "Sr.No."
	ColRouteID   = "Transnet Route ID"
	ColRouteName = "Working Route Name as per Transnet"
	ColRKM       = "RKM"
	ColVendor    = "Name of Maintenance Agency"
)

// RequiredColumns lists every Format A header in report order.
var RequiredColumns = []string{
	ColFormat, ColBA, ColOA, ColMonth, ColSlNo,
	ColRouteID, ColRouteName, ColRKM, ColVendor,
}

// Route is one contracted route.
type Route struct {
	Format         string
	BA             string
	OA             string
	Month          string
	SlNo           string
	ID             string
	Name           string
	NormalizedName string
	LengthKM       float64
	Vendor         string
	// SLACharge is LengthKM x rate rounded to 4 decimals.
	SLACharge decimal.Decimal
}

// Registry is the immutable route view of one run.
type Registry struct {
	Routes    []Route
	RatePerKM decimal.Decimal

	BA     string
	OA     string
	Vendor string

	Year  int
	Month time.Month
	// MonthRaw is the first row's Month cell as text.
	MonthRaw string
	// MonthFallback is true when MonthRaw did not parse and the run clock
	// supplied the billing month.
	MonthFallback bool

	// Warnings holds non-fatal registry issues such as duplicate route ids.
	Warnings []string

	byID   map[string]int
	byName map[string]string
}

// Build validates the Format A headers and derives the registry. now is the
// fallback billing month when the Month cell cannot be parsed.
func Build(t *sheet.Table, ratePerKM decimal.Decimal, now time.Time) (*Registry, error) {
	if t == nil {
		return nil, fmt.Errorf("format A table is required")
	}
	if err := t.Require(Dataset, RequiredColumns...); err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		idx[col] = t.Index(col)
	}

	reg := &Registry{
		RatePerKM: ratePerKM,
		byID:      map[string]int{},
		byName:    map[string]string{},
	}

	var baValues, oaValues, vendorValues []string
	for i, row := range t.Rows {
		if i == 0 {
			reg.MonthRaw = row.Cell(idx[ColMonth]).Value()
			year, month, ok := cellparse.MonthYear(row.Cell(idx[ColMonth]))
			if ok {
				reg.Year, reg.Month = year, month
			}
		}

		baValues = append(baValues, row.Cell(idx[ColBA]).Value())
		oaValues = append(oaValues, row.Cell(idx[ColOA]).Value())
		vendorValues = append(vendorValues, row.Cell(idx[ColVendor]).Value())

		id := cellparse.RouteID(row.Cell(idx[ColRouteID]))
		if id == "" {
			reg.Warnings = append(reg.Warnings, fmt.Sprintf("row %d: blank route id, row ignored", row.Line))
			continue
		}
		if first, dup := reg.byID[id]; dup {
			reg.Warnings = append(reg.Warnings, fmt.Sprintf(
				"row %d: duplicate route id %q (first seen as Sr.No. %s), row ignored",
				row.Line, id, reg.Routes[first].SlNo,
			))
			continue
		}

		km, ok := cellparse.Number(row.Cell(idx[ColRKM]))
		if !ok || km < 0 {
			km = 0
		}
		name := cellparse.Literal(row.Cell(idx[ColRouteName]))
		route := Route{
			Format:         row.Cell(idx[ColFormat]).Value(),
			BA:             row.Cell(idx[ColBA]).Value(),
			OA:             row.Cell(idx[ColOA]).Value(),
			Month:          row.Cell(idx[ColMonth]).Value(),
			SlNo:           row.Cell(idx[ColSlNo]).Value(),
			ID:             id,
			Name:           name,
			NormalizedName: cellparse.NormalizeRouteName(name),
			LengthKM:       km,
			Vendor:         row.Cell(idx[ColVendor]).Value(),
			SLACharge:      decimal.NewFromFloat(km).Mul(ratePerKM).RoundBank(4),
		}

		reg.byID[id] = len(reg.Routes)
		if route.NormalizedName != "" {
			if prev, dup := reg.byName[route.NormalizedName]; dup {
				reg.Warnings = append(reg.Warnings, fmt.Sprintf(
					"row %d: route name %q also used by %s, name lookups resolve to %s",
					row.Line, name, prev, id,
				))
			}
			reg.byName[route.NormalizedName] = id
		}
		reg.Routes = append(reg.Routes, route)
	}

	if reg.Year == 0 {
		reg.Year, reg.Month = now.Year(), now.Month()
		reg.MonthFallback = true
	}
	reg.BA = cellparse.FirstNonBlank(baValues)
	reg.OA = cellparse.FirstNonBlank(oaValues)
	reg.Vendor = cellparse.FirstNonBlank(vendorValues)
	return reg, nil
}

// HasID reports whether id is a known route id.
func (r *Registry) HasID(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Route returns the route with the given id.
func (r *Registry) Route(id string) (Route, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Route{}, false
	}
	return r.Routes[i], true
}

// NameOf returns the registry name of a route id.
func (r *Registry) NameOf(id string) (string, bool) {
	route, ok := r.Route(id)
	return route.Name, ok
}

// IDForName resolves a normalized route name to its route id. When several
// routes share a name the last one in the registry wins.
func (r *Registry) IDForName(normalized string) (string, bool) {
	id, ok := r.byName[normalized]
	return id, ok
}

// DaysInMonth returns the number of days in the billing month.
func (r *Registry) DaysInMonth() int {
	return time.Date(r.Year, r.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// HoursInMonth returns the availability window of the billing month.
func (r *Registry) HoursInMonth() float64 {
	return float64(r.DaysInMonth() * 24)
}

// MonthName returns the English month name, e.g. "May".
func (r *Registry) MonthName() string {
	return r.Month.String()
}

// MonthDisplay returns the billing month as "May-2024".
func (r *Registry) MonthDisplay() string {
	return fmt.Sprintf("%s-%d", r.MonthName(), r.Year)
}

// TotalKM returns the summed route length rounded to 2 decimals.
func (r *Registry) TotalKM() float64 {
	total := decimal.Zero
	for _, route := range r.Routes {
		total = total.Add(decimal.NewFromFloat(route.LengthKM))
	}
	v, _ := total.RoundBank(2).Float64()
	return v
}

// TotalBasic returns the basic SLA value: the sum of route charges rounded
// to 2 decimals.
func (r *Registry) TotalBasic() decimal.Decimal {
	total := decimal.Zero
	for _, route := range r.Routes {
		total = total.Add(route.SLACharge)
	}
	return total.RoundBank(2)
}
