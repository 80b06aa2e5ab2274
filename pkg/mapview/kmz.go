package mapview

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

// KML geometry types
type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLinearRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	OuterBoundary struct {
		LinearRing kmlLinearRing `xml:"LinearRing"`
	} `xml:"outerBoundaryIs"`
}

type kmlMultiGeometry struct {
	Points   []kmlPoint   `xml:"Point"`
	Polygons []kmlPolygon `xml:"Polygon"`
}

type kmlExtendedData struct {
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"Data"`
	SchemaData []struct {
		SimpleData []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:",chardata"`
		} `xml:"SimpleData"`
	} `xml:"SchemaData"`
}

type kmlPlacemark struct {
	Name          string            `xml:"name"`
	Description   string            `xml:"description"`
	ExtendedData  *kmlExtendedData  `xml:"ExtendedData"`
	Point         *kmlPoint         `xml:"Point"`
	Polygon       *kmlPolygon       `xml:"Polygon"`
	MultiGeometry *kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDocument struct {
	XMLName xml.Name `xml:"kml"`
	Doc     struct {
		Placemarks []kmlPlacemark `xml:"Placemark"`
		Folders    []kmlFolder    `xml:"Folder"`
	} `xml:"Document"`
}

var plotNoPattern = regexp.MustCompile(`\d+`)

// ExtractKML returns the first .kml entry of a KMZ archive
func ExtractKML(kmzData []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(kmzData), int64(len(kmzData)))
	if err != nil {
		return nil, fmt.Errorf("failed to open KMZ archive: %w", err)
	}

	for _, f := range reader.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open KML file: %w", err)
			}
			defer rc.Close()

			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("no KML file found in KMZ archive")
}

// ParseKMZ reads plot placemarks from a KMZ archive
func ParseKMZ(kmzData []byte) ([]models.PlotRecord, []string, error) {
	kml, err := ExtractKML(kmzData)
	if err != nil {
		return nil, nil, err
	}
	return ParseKML(kml)
}

// ParseKML turns each placemark into a candidate record. The first number in the
// placemark name is the plot number; a point gives the coordinates and a polygon
// its centroid. ExtendedData fields named like table columns fill those fields,
// the rest go to Extra. Placemarks without a plot number are skipped with a warning.
func ParseKML(kmlData []byte) ([]models.PlotRecord, []string, error) {
	var doc kmlDocument
	if err := xml.Unmarshal(kmlData, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	placemarks := doc.Doc.Placemarks
	for _, f := range doc.Doc.Folders {
		placemarks = append(placemarks, flattenFolder(f)...)
	}

	var (
		records  []models.PlotRecord
		warnings []string
	)
	for i, pm := range placemarks {
		rec, warn, ok := placemarkRecord(pm)
		if warn != "" {
			warnings = append(warnings, fmt.Sprintf("placemark %d (%s): %s", i+1, strings.TrimSpace(pm.Name), warn))
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, warnings, nil
}

func flattenFolder(f kmlFolder) []kmlPlacemark {
	out := append([]kmlPlacemark{}, f.Placemarks...)
	for _, sub := range f.Folders {
		out = append(out, flattenFolder(sub)...)
	}
	return out
}

func placemarkRecord(pm kmlPlacemark) (models.PlotRecord, string, bool) {
	rec := models.PlotRecord{Status: models.PlotStatusAvailable}

	num := plotNoPattern.FindString(pm.Name)
	if num == "" {
		return rec, "no plot number in name", false
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return rec, "plot number out of range", false
	}
	rec.PlotNo = n

	var warn string
	for name, value := range extendedData(pm.ExtendedData) {
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.ReplaceAll(name, " ", "_")) {
		case "status":
			if st, ok := inventory.ParseStatus(value); ok {
				rec.Status = st
			} else if value != "" {
				warn = fmt.Sprintf("status %q coerced to %s", value, models.PlotStatusAvailable)
			}
		case "location":
			rec.Location = value
		case "area_sqft", "area":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				rec.AreaSqft = &v
			}
		case "price_lakhs", "price":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				rec.PriceLakhs = &v
			}
		default:
			if value == "" {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = map[string]string{}
			}
			rec.Extra[name] = value
		}
	}

	if p, ok := placemarkPoint(pm); ok {
		lon, lat := p[0], p[1]
		rec.Lat, rec.Lon = &lat, &lon
	} else if warn == "" {
		warn = "no usable geometry, imported without coordinates"
	}
	return rec, warn, true
}

func extendedData(ed *kmlExtendedData) map[string]string {
	out := map[string]string{}
	if ed == nil {
		return out
	}
	for _, d := range ed.Data {
		out[d.Name] = d.Value
	}
	for _, sd := range ed.SchemaData {
		for _, s := range sd.SimpleData {
			out[s.Name] = s.Value
		}
	}
	return out
}

func placemarkPoint(pm kmlPlacemark) (orb.Point, bool) {
	if pm.Point != nil {
		if coords := parseCoordinates(pm.Point.Coordinates); len(coords) > 0 {
			return coords[0], true
		}
	}
	if pm.Polygon != nil {
		if c, ok := ringCentroid(pm.Polygon.OuterBoundary.LinearRing.Coordinates); ok {
			return c, true
		}
	}
	if mg := pm.MultiGeometry; mg != nil {
		for _, pt := range mg.Points {
			if coords := parseCoordinates(pt.Coordinates); len(coords) > 0 {
				return coords[0], true
			}
		}
		for _, poly := range mg.Polygons {
			if c, ok := ringCentroid(poly.OuterBoundary.LinearRing.Coordinates); ok {
				return c, true
			}
		}
	}
	return orb.Point{}, false
}

func ringCentroid(s string) (orb.Point, bool) {
	coords := parseCoordinates(s)
	if len(coords) < 3 {
		return orb.Point{}, false
	}
	ring := orb.Ring(coords)
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	c, _ := planar.CentroidArea(orb.Polygon{ring})
	return c, true
}

// parseCoordinates reads "lon,lat[,ele] lon,lat[,ele] ..." tuples, skipping bad ones
func parseCoordinates(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
