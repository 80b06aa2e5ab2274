package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/plotdesk/models"
)

func TestFromSheet_HeaderMatchingAndExtras(t *testing.T) {
	s := Sheet{
		Header: []string{" plot_no ", "LOCATION", "Length", "Width", "status", "Price_Lakhs", "Lat", "Lon", "Area_sqft"},
		Rows: [][]string{
			{"101.0", "Sector 5", "40", "30", "booked", "1,250.5", "26.8", "80.9", "1200"},
			{"102", "Sector 6", "", "", "Reserved", "", "", "", ""},
		},
	}

	table, warnings, err := FromSheet(s)
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, models.CanonicalColumns...), "Length", "Width"), table.Columns)
	require.Len(t, table.Records, 2)

	first := table.Records[0]
	assert.Equal(t, int64(101), first.PlotNo)
	assert.Equal(t, models.PlotStatusBooked, first.Status)
	assert.InDelta(t, 1250.5, *first.PriceLakhs, 1e-9)
	assert.InDelta(t, 1200, *first.AreaSqft, 1e-9)
	assert.Equal(t, map[string]string{"Length": "40", "Width": "30"}, first.Extra)

	second := table.Records[1]
	assert.Equal(t, models.PlotStatusAvailable, second.Status)
	assert.Nil(t, second.Lat)
	assert.Nil(t, second.Extra)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Reserved")
}

func TestFromSheet_BlankStatusDefaultsToAvailable(t *testing.T) {
	table, warnings, err := FromSheet(Sheet{Header: []string{"Plot_No", "Status"}, Rows: [][]string{{"5", ""}}})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, models.PlotStatusAvailable, table.Records[0].Status)
}

func TestFromSheet_UnparseableNumbersSurviveRoundTrip(t *testing.T) {
	s := Sheet{
		Header: []string{"Plot_No", "Location", "Area_sqft", "Status", "Price_Lakhs", "Lat", "Lon"},
		Rows:   [][]string{{"12A", "Corner", "approx 900", "Sold", "on request", "", ""}},
	}

	table, warnings, err := FromSheet(s)
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
	rec := table.Records[0]
	assert.Nil(t, rec.AreaSqft)
	assert.Nil(t, rec.PriceLakhs)

	out := ToSheet(table)
	assert.Equal(t, s.Header, out.Header)
	assert.Equal(t, s.Rows, out.Rows)
}

func TestFromSheet_EmptySheet(t *testing.T) {
	table, _, err := FromSheet(Sheet{})
	require.NoError(t, err)
	assert.Equal(t, EmptyTable(), table)

	_, _, err = FromSheet(Sheet{Rows: [][]string{{"1", "x"}}})
	assert.ErrorIs(t, err, ErrMalformedSheet)
}

func TestToSheet_RoundTrip(t *testing.T) {
	table := EmptyTable()
	table.Columns = append(table.Columns, "Facing")
	table.Records = []models.PlotRecord{
		{PlotNo: 1, Location: "North Block", Status: models.PlotStatusAvailable, AreaSqft: models.Float(1500), PriceLakhs: models.Float(18.25), Lat: models.Float(26.846708), Lon: models.Float(80.946159), Extra: map[string]string{"Facing": "East"}},
		{PlotNo: 2, Status: models.PlotStatusSold},
	}

	back, warnings, err := FromSheet(ToSheet(table))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, table, back)
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" SOLD ")
	assert.True(t, ok)
	assert.Equal(t, models.PlotStatusSold, st)

	_, ok = ParseStatus("Pending")
	assert.False(t, ok)
}
