package inventory

import (
	"maps"
	"slices"

	"p9e.in/plotdesk/models"
)

// Stats summarises a table for the gallery header
type Stats struct {
	Total      int                       `json:"total"`
	ByStatus   map[models.PlotStatus]int `json:"byStatus"`
	AreaSqft   float64                   `json:"areaSqft"`
	PriceLakhs float64                   `json:"priceLakhs"` // listed price of plots still Available
	Mappable   int                       `json:"mappable"`
}

// Summarize counts records per status and totals area and available price
func Summarize(table models.InventoryTable) Stats {
	st := Stats{ByStatus: map[models.PlotStatus]int{}}
	for _, s := range models.PlotStatuses {
		st.ByStatus[s] = 0
	}
	for _, r := range table.Records {
		st.Total++
		st.ByStatus[r.Status]++
		if r.AreaSqft != nil {
			st.AreaSqft += *r.AreaSqft
		}
		if r.PriceLakhs != nil && r.Status == models.PlotStatusAvailable {
			st.PriceLakhs += *r.PriceLakhs
		}
		if InRange(r) {
			st.Mappable++
		}
	}
	return st
}

// InRange reports whether rec has both coordinates and both are within range
func InRange(rec models.PlotRecord) bool {
	if !rec.HasCoordinates() {
		return false
	}
	lat, lon := *rec.Lat, *rec.Lon
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
