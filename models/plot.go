package models

import "time"

// PlotStatus is the sale state of a plot
type PlotStatus string

const (
	PlotStatusAvailable PlotStatus = "Available"
	PlotStatusBooked    PlotStatus = "Booked"
	PlotStatusSold      PlotStatus = "Sold"
)

// PlotStatuses lists the accepted statuses in display order
var PlotStatuses = []PlotStatus{PlotStatusAvailable, PlotStatusBooked, PlotStatusSold}

// Valid reports whether s is one of the enumerated statuses
func (s PlotStatus) Valid() bool {
	switch s {
	case PlotStatusAvailable, PlotStatusBooked, PlotStatusSold:
		return true
	}
	return false
}

// Canonical backing table columns, in the order they are written.
const (
	ColumnPlotNo     = "Plot_No"
	ColumnLocation   = "Location"
	ColumnAreaSqft   = "Area_sqft"
	ColumnStatus     = "Status"
	ColumnPriceLakhs = "Price_Lakhs"
	ColumnLat        = "Lat"
	ColumnLon        = "Lon"
)

// CanonicalColumns is the minimum schema of the backing table
var CanonicalColumns = []string{
	ColumnPlotNo,
	ColumnLocation,
	ColumnAreaSqft,
	ColumnStatus,
	ColumnPriceLakhs,
	ColumnLat,
	ColumnLon,
}

// PlotRecord is one row of inventory.
// Optional numeric fields are pointers so an empty cell stays distinguishable from 0.
type PlotRecord struct {
	PlotNo     int64             `json:"plotNo"`
	Location   string            `json:"location"`
	AreaSqft   *float64          `json:"areaSqft,omitempty"`
	Status     PlotStatus        `json:"status"`
	PriceLakhs *float64          `json:"priceLakhs,omitempty"`
	Lat        *float64          `json:"lat,omitempty"`
	Lon        *float64          `json:"lon,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"` // Length, Width and any other column, unvalidated
}

// HasCoordinates reports whether both latitude and longitude are present
func (p PlotRecord) HasCoordinates() bool {
	return p.Lat != nil && p.Lon != nil
}

// Clone returns a deep copy so callers can mutate the result freely
func (p PlotRecord) Clone() PlotRecord {
	out := p
	out.AreaSqft = cloneFloat(p.AreaSqft)
	out.PriceLakhs = cloneFloat(p.PriceLakhs)
	out.Lat = cloneFloat(p.Lat)
	out.Lon = cloneFloat(p.Lon)
	if p.Extra != nil {
		out.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Float returns a pointer to v, for filling optional record fields
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// InventoryTable is the ordered plot inventory, oldest row first.
// Columns is the header as it appears in the backing table, canonical columns first.
type InventoryTable struct {
	Columns []string     `json:"columns"`
	Records []PlotRecord `json:"records"`
}

// Len returns the number of records
func (t InventoryTable) Len() int {
	return len(t.Records)
}

// SessionState is the per-session scratch state; it is never persisted with the inventory
type SessionState struct {
	ID        string    `json:"id"`
	IsAdmin   bool      `json:"isAdmin"`
	Lat       float64   `json:"lat"` // last captured GPS fix, pre-fills new records
	Lon       float64   `json:"lon"`
	HasFix    bool      `json:"hasFix"`
	ExpiresAt time.Time `json:"expiresAt"`
}
