package mapview

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"p9e.in/plotdesk/models"
)

// WGS 84 geographic CRS, written as the .prj sidecar
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// DBF attribute layout; field names are limited to 10 characters
var shapeFields = []shp.Field{
	shp.NumberField("PLOT_NO", 18),
	shp.StringField("LOCATION", 120),
	shp.StringField("STATUS", 10),
	shp.FloatField("PRICE_LKH", 16, 2),
	shp.FloatField("AREA_SQFT", 16, 2),
}

// WriteShapefile writes <dir>/<name>.shp/.shx/.dbf/.prj with one point per
// mappable record and returns the file paths. Unmappable rows are skipped.
func WriteShapefile(table models.InventoryTable, dir, name string) ([]string, error) {
	base := filepath.Join(dir, name)
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return nil, fmt.Errorf("create shapefile: %w", err)
	}
	if err := w.SetFields(shapeFields); err != nil {
		w.Close()
		return nil, fmt.Errorf("set shapefile fields: %w", err)
	}

	for _, rec := range table.Records {
		if !Mappable(rec) {
			continue
		}
		row := int(w.Write(&shp.Point{X: *rec.Lon, Y: *rec.Lat}))
		attrs := []interface{}{
			int(rec.PlotNo),
			truncate(rec.Location, 120),
			string(rec.Status),
			valueOrZero(rec.PriceLakhs),
			valueOrZero(rec.AreaSqft),
		}
		for field, v := range attrs {
			if err := w.WriteAttribute(row, field, v); err != nil {
				w.Close()
				return nil, fmt.Errorf("write plot %d attributes: %w", rec.PlotNo, err)
			}
		}
	}
	w.Close()

	// go-shp v0.1.1 names the table "<base>dbf", without the dot
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			return nil, fmt.Errorf("rename dbf: %w", err)
		}
	}

	if err := os.WriteFile(base+".prj", []byte(wgs84PRJ), 0644); err != nil {
		return nil, fmt.Errorf("write projection: %w", err)
	}
	return []string{base + ".shp", base + ".shx", base + ".dbf", base + ".prj"}, nil
}

// ShapefileZip bundles the shapefile set into one zip archive for download
func ShapefileZip(table models.InventoryTable, name string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "plots-shp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files, err := WriteShapefile(table, dir, name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, path := range files {
		if err := addToZip(zw, path); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish zip: %w", err)
	}
	return buf.Bytes(), nil
}

func addToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	dst, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("zip %s: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("zip %s: %w", filepath.Base(path), err)
	}
	return nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
