package mapview

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

func mapTable() models.InventoryTable {
	t := inventory.EmptyTable()
	t.Records = []models.PlotRecord{
		{PlotNo: 101, Location: "Sector 5", Status: models.PlotStatusAvailable, PriceLakhs: models.Float(25), AreaSqft: models.Float(1200), Lat: models.Float(26.80), Lon: models.Float(80.90)},
		{PlotNo: 102, Location: "Sector 6", Status: models.PlotStatusSold},
		{PlotNo: 103, Location: "Sector 7", Status: models.PlotStatusBooked, Lat: models.Float(26.90), Lon: models.Float(81.00)},
		{PlotNo: 104, Location: "Bad Fix", Status: models.PlotStatusAvailable, Lat: models.Float(123), Lon: models.Float(80)},
	}
	return t
}

func TestFeatureCollection_OnlyMappableRows(t *testing.T) {
	fc := FeatureCollection(mapTable())
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, orb.Point{80.90, 26.80}, first.Geometry)
	assert.Equal(t, 0, first.Properties["row"])
	assert.Equal(t, int64(101), first.Properties["plotNo"])
	assert.Equal(t, "#28a745", first.Properties["color"])
	assert.Equal(t, 25.0, first.Properties["priceLakhs"])

	second := fc.Features[1]
	assert.Equal(t, 2, second.Properties["row"])
	assert.Equal(t, "#dc3545", second.Properties["color"])
	_, hasPrice := second.Properties["priceLakhs"]
	assert.False(t, hasPrice)

	require.NotNil(t, fc.BBox)
	assert.Equal(t, []float64{80.90, 26.80, 81.00, 26.90}, []float64(fc.BBox))
}

func TestFeatureCollection_EmptyTable(t *testing.T) {
	fc := FeatureCollection(inventory.EmptyTable())
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)
}

func TestBoundsAndCenter(t *testing.T) {
	b, ok := Bounds(mapTable())
	require.True(t, ok)
	assert.Equal(t, orb.Point{80.90, 26.80}, b.Min)
	assert.Equal(t, orb.Point{81.00, 26.90}, b.Max)

	c := Center(mapTable(), orb.Point{0, 0})
	assert.InDelta(t, 80.95, c[0], 1e-9)
	assert.InDelta(t, 26.85, c[1], 1e-9)

	def := orb.Point{78.96, 20.59}
	assert.Equal(t, def, Center(inventory.EmptyTable(), def))
}

func TestWriteShapefile_ReadBack(t *testing.T) {
	dir := t.TempDir()
	files, err := WriteShapefile(mapTable(), dir, "plots")
	require.NoError(t, err)
	for _, f := range files {
		assert.FileExists(t, f)
	}

	r, err := shp.Open(filepath.Join(dir, "plots.shp"))
	require.NoError(t, err)
	defer r.Close()

	attr := func(row, field int) string {
		return strings.TrimRight(r.ReadAttribute(row, field), "\x00 ")
	}

	var points []shp.Point
	for r.Next() {
		_, s := r.Shape()
		p, ok := s.(*shp.Point)
		require.True(t, ok)
		points = append(points, *p)
	}
	require.NoError(t, r.Err())
	require.Len(t, points, 2)
	assert.Equal(t, shp.Point{X: 80.90, Y: 26.80}, points[0])

	assert.Equal(t, 2, r.AttributeCount())
	assert.Equal(t, "101", attr(0, 0))
	assert.Equal(t, "Sector 5", attr(0, 1))
	assert.Equal(t, "Available", attr(0, 2))
	assert.Equal(t, "25.00", attr(0, 3))
	assert.Equal(t, "103", attr(1, 0))
	assert.Equal(t, "0.00", attr(1, 3))
}

func TestShapefileZip(t *testing.T) {
	data, err := ShapefileZip(mapTable(), "plots")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"plots.dbf", "plots.prj", "plots.shp", "plots.shx"}, names)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abc", 2))
	// "é" is two bytes; cutting through it drops the partial rune
	assert.Equal(t, "a", truncate("aé", 2))
}

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Plot 101</name>
      <ExtendedData>
        <Data name="status"><value>Booked</value></Data>
        <Data name="Location"><value>Sector 5</value></Data>
        <Data name="Facing"><value>East</value></Data>
      </ExtendedData>
      <Point><coordinates>80.9461,26.8467,0</coordinates></Point>
    </Placemark>
    <Folder>
      <name>Phase 2</name>
      <Placemark>
        <name>P-202</name>
        <Polygon>
          <outerBoundaryIs><LinearRing>
            <coordinates>80.0,26.0,0 80.2,26.0,0 80.2,26.2,0 80.0,26.2,0 80.0,26.0,0</coordinates>
          </LinearRing></outerBoundaryIs>
        </Polygon>
      </Placemark>
      <Placemark>
        <name>Entrance gate</name>
        <Point><coordinates>80.1,26.1</coordinates></Point>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestParseKML(t *testing.T) {
	records, warnings, err := ParseKML([]byte(sampleKML))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, int64(101), first.PlotNo)
	assert.Equal(t, models.PlotStatusBooked, first.Status)
	assert.Equal(t, "Sector 5", first.Location)
	assert.Equal(t, map[string]string{"Facing": "East"}, first.Extra)
	require.True(t, first.HasCoordinates())
	assert.InDelta(t, 26.8467, *first.Lat, 1e-9)
	assert.InDelta(t, 80.9461, *first.Lon, 1e-9)

	second := records[1]
	assert.Equal(t, int64(202), second.PlotNo)
	assert.Equal(t, models.PlotStatusAvailable, second.Status)
	require.True(t, second.HasCoordinates())
	assert.InDelta(t, 26.1, *second.Lat, 1e-9)
	assert.InDelta(t, 80.1, *second.Lon, 1e-9)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Entrance gate")
}

func TestParseKMZ(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("doc.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(sampleKML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	records, _, err := ParseKMZ(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, _, err = ParseKMZ([]byte("not a zip"))
	assert.Error(t, err)
}

func TestParseKML_Invalid(t *testing.T) {
	_, _, err := ParseKML([]byte("<kml><Document>"))
	assert.Error(t, err)
}
