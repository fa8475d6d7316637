package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/registry"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/sheet"
)

func table(headers []string, rows ...[]string) *sheet.Table {
	t := &sheet.Table{Name: Dataset, Headers: headers}
	for i, r := range rows {
		cells := make([]sheet.Cell, len(r))
		for j, v := range r {
			cells[j] = sheet.TextCell(v)
		}
		t.Rows = append(t.Rows, sheet.Row{Line: i + 2, Cells: cells})
	}
	return t
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	a := table(registry.RequiredColumns,
		[]string{"A", "BA", "OA", "2024-06-01", "1", "R1", "Pune - Mumbai", "10", "V"},
		[]string{"A", "BA", "OA", "2024-06-01", "2", "R2", "Nasik Dhule", "5", "V"},
	)
	reg, err := registry.Build(a, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)
	return reg
}

var faultHeaders = []string{"Sl", "Transnet Route ID", "Working Route Name as per Transnet", "Fault Duration (HH:MM)", "Exempted (Yes/No)"}

func TestReconcileResolvesByIDThenName(t *testing.T) {
	c := table(faultHeaders,
		[]string{"1", "R1", "something else entirely", "5:00", "No"},
		[]string{"2", "X9", "PUNE  –  MUMBAI", "2", ""},
		[]string{"3", "X7", "Unknown Route", "3.5", "yes"},
	)
	res, err := Reconcile(c, testRegistry(t))
	require.NoError(t, err)
	require.Len(t, res.Valid, 3)

	byID := res.Valid[0]
	assert.True(t, byID.Resolved)
	assert.False(t, byID.MatchedByName)
	assert.Equal(t, "R1", byID.RouteID)
	assert.Equal(t, "Pune - Mumbai", byID.RouteName)
	assert.Equal(t, 5.0, byID.Hours)

	byName := res.Valid[1]
	assert.True(t, byName.Resolved)
	assert.True(t, byName.MatchedByName)
	assert.Equal(t, "R1", byName.RouteID)
	assert.Equal(t, "X9", byName.RawRouteID)

	missing := res.Valid[2]
	assert.False(t, missing.Resolved)
	assert.Equal(t, "X7", missing.RouteID)
	assert.Equal(t, "Unknown Route", missing.RouteName)
	assert.True(t, missing.Exempt)
	assert.Equal(t, 1, res.ExemptCount())
}

func TestReconcileSegregatesInvalidDurations(t *testing.T) {
	c := table(faultHeaders,
		[]string{"1", "R1", "a", "", "No"},
		[]string{"2", "R1", "a", "abc", "No"},
		[]string{"3", "R1", "a", "0", "No"},
		[]string{"4", "R1", "a", "-2", "No"},
		[]string{"5", "R1", "a", "1:30", "No"},
	)
	res, err := Reconcile(c, testRegistry(t))
	require.NoError(t, err)

	require.Len(t, res.Valid, 1)
	require.Len(t, res.Invalid, 4)
	reasons := []string{}
	for _, w := range res.Warnings() {
		reasons = append(reasons, w.Reason)
		assert.Equal(t, "Fault Duration (HH:MM)", w.Column)
	}
	assert.Equal(t, []string{"blank duration", "unparseable duration", "non-positive duration", "non-positive duration"}, reasons)
	assert.Equal(t, 3, res.Invalid[1].Row)
}

func TestReconcileKeepsDuplicateRows(t *testing.T) {
	c := table(faultHeaders,
		[]string{"1", "R2", "Nasik Dhule", "7", "No"},
		[]string{"2", "R2", "Nasik Dhule", "7", "No"},
	)
	res, err := Reconcile(c, testRegistry(t))
	require.NoError(t, err)
	if len(res.Valid) != 2 {
		t.Fatalf("expected duplicate fault rows to both count, got %d", len(res.Valid))
	}
}

func TestMissingRoutesSortedByDowntime(t *testing.T) {
	c := table(faultHeaders,
		[]string{"1", "Z1", "Alpha", "2", "No"},
		[]string{"2", "Z2", "Beta", "10", "No"},
		[]string{"3", "Z1", "Alpha", "1.5", "Yes"},
		[]string{"4", "R1", "Pune - Mumbai", "40", "No"},
	)
	res, err := Reconcile(c, testRegistry(t))
	require.NoError(t, err)

	missing := res.MissingRoutes()
	require.Len(t, missing, 2)
	assert.Equal(t, MissingRoute{RouteID: "Z2", RouteName: "Beta", DowntimeHours: 10}, missing[0])
	assert.Equal(t, MissingRoute{RouteID: "Z1", RouteName: "Alpha", DowntimeHours: 3.5}, missing[1])
}

func TestReconcileBlankNameStaysUnresolved(t *testing.T) {
	a := table(registry.RequiredColumns,
		[]string{"A", "BA", "OA", "2024-06-01", "1", "R1", "Pune - Mumbai", "10", "V"},
		[]string{"A", "BA", "OA", "2024-06-01", "2", "R2", "", "5", "V"},
	)
	reg, err := registry.Build(a, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)

	c := table(faultHeaders, []string{"1", "R9", "", "30:00", "No"})
	res, err := Reconcile(c, reg)
	require.NoError(t, err)
	require.Len(t, res.Valid, 1)

	fault := res.Valid[0]
	if fault.Resolved {
		t.Fatalf("expected blank-name fault to stay unresolved, got route %s", fault.RouteID)
	}
	assert.False(t, fault.MatchedByName)
	assert.Equal(t, "R9", fault.RouteID)

	missing := res.MissingRoutes()
	require.Len(t, missing, 1)
	assert.Equal(t, MissingRoute{RouteID: "R9", RouteName: "", DowntimeHours: 30}, missing[0])
}

func TestReconcileDuplicateNameResolvesToLastRoute(t *testing.T) {
	a := table(registry.RequiredColumns,
		[]string{"A", "BA", "OA", "2024-06-01", "1", "R1", "Pune - Mumbai", "10", "V"},
		[]string{"A", "BA", "OA", "2024-06-01", "2", "R2", "pune-mumbai", "5", "V"},
	)
	reg, err := registry.Build(a, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)

	res, err := Reconcile(table(faultHeaders, []string{"1", "X1", "Pune-Mumbai", "2", "No"}), reg)
	require.NoError(t, err)
	require.Len(t, res.Valid, 1)
	assert.True(t, res.Valid[0].MatchedByName)
	assert.Equal(t, "R2", res.Valid[0].RouteID)
}

func TestReconcileKeepsLeadingZeroIDs(t *testing.T) {
	a := table(registry.RequiredColumns,
		[]string{"A", "BA", "OA", "2024-06-01", "1", "00123", "Route One", "10", "V"},
	)
	reg, err := registry.Build(a, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)

	res, err := Reconcile(table(faultHeaders,
		[]string{"1", "00123", "x", "2", "No"},
		[]string{"2", "123", "y", "2", "No"},
	), reg)
	require.NoError(t, err)
	require.Len(t, res.Valid, 2)
	assert.True(t, res.Valid[0].Resolved)
	assert.Equal(t, "00123", res.Valid[0].RouteID)
	assert.False(t, res.Valid[1].Resolved)
	assert.Equal(t, "123", res.Valid[1].RawRouteID)
}

func TestDetectDurationColumnLegacyPosition(t *testing.T) {
	headers := make([]string, 15)
	for i := range headers {
		headers[i] = "col"
	}
	idx, byPosition, err := DetectDurationColumn(headers)
	require.NoError(t, err)
	assert.Equal(t, 13, idx)
	assert.True(t, byPosition)

	headers[4] = "Total FAULT duration"
	idx, byPosition, err = DetectDurationColumn(headers)
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	assert.False(t, byPosition)
}

func TestDetectDurationColumnMissing(t *testing.T) {
	_, _, err := DetectDurationColumn([]string{"Transnet Route ID", "Working Route Name as per Transnet"})
	var schemaErr *sheet.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"Fault Duration"}, schemaErr.Missing)
}

func TestDetectExemptionColumn(t *testing.T) {
	cases := []struct {
		headers []string
		want    int
	}{
		{[]string{"a", "MTTR Penalty (Yes/No)", "Exemption Remarks"}, 2},
		{[]string{"a", "MTTR Penalty applicable (Yes/No)"}, 1},
		{[]string{"a", "Avbility Y/N"}, 1},
		{[]string{"a", "Availability Penalty"}, -1},
		{[]string{"a", "b"}, -1},
	}
	for _, tc := range cases {
		if got := DetectExemptionColumn(tc.headers); got != tc.want {
			t.Fatalf("headers %v: expected %d, got %d", tc.headers, tc.want, got)
		}
	}
}

func TestReconcileWithoutExemptionColumn(t *testing.T) {
	c := table(
		[]string{"Transnet Route ID", "Working Route Name as per Transnet", "Fault Duration"},
		[]string{"R1", "x", "6"},
	)
	res, err := Reconcile(c, testRegistry(t))
	require.NoError(t, err)
	assert.Empty(t, res.ExemptionColumn)
	assert.False(t, res.Valid[0].Exempt)
}

func TestReconcileSchemaError(t *testing.T) {
	c := table([]string{"Route", "Fault Duration"})
	_, err := Reconcile(c, testRegistry(t))
	var schemaErr *sheet.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, Dataset, schemaErr.Dataset)
	assert.Equal(t, RequiredColumns, schemaErr.Missing)
}
