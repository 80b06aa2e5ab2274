package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

// StatusColors is the marker palette used by the map and the gallery cards
var StatusColors = map[models.PlotStatus]string{
	models.PlotStatusAvailable: "#28a745",
	models.PlotStatusBooked:    "#dc3545",
	models.PlotStatusSold:      "#6c757d",
}

// Mappable reports whether rec can be placed on the map.
// Rows without valid coordinates are still listed, just not plotted.
func Mappable(rec models.PlotRecord) bool {
	return inventory.InRange(rec)
}

// FeatureCollection turns every mappable record into a point feature.
// "row" is the record's index in table, used to link back to the list view.
func FeatureCollection(table models.InventoryTable) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, rec := range table.Records {
		if !Mappable(rec) {
			continue
		}
		f := geojson.NewFeature(orb.Point{*rec.Lon, *rec.Lat})
		f.Properties["row"] = i
		f.Properties["plotNo"] = rec.PlotNo
		f.Properties["location"] = rec.Location
		f.Properties["status"] = string(rec.Status)
		f.Properties["color"] = StatusColors[rec.Status]
		if rec.PriceLakhs != nil {
			f.Properties["priceLakhs"] = *rec.PriceLakhs
		}
		if rec.AreaSqft != nil {
			f.Properties["areaSqft"] = *rec.AreaSqft
		}
		fc.Append(f)
	}
	if b, ok := Bounds(table); ok {
		fc.BBox = geojson.NewBBox(b)
	}
	return fc
}

// Bounds is the bounding box of the mappable records; ok is false when there are none
func Bounds(table models.InventoryTable) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, rec := range table.Records {
		if !Mappable(rec) {
			continue
		}
		p := orb.Point{*rec.Lon, *rec.Lat}
		if !found {
			b = p.Bound()
			found = true
			continue
		}
		b = b.Extend(p)
	}
	return b, found
}

// Center is the initial viewport centre, falling back to def when nothing is mappable
func Center(table models.InventoryTable, def orb.Point) orb.Point {
	if b, ok := Bounds(table); ok {
		return b.Center()
	}
	return def
}
