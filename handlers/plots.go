package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb/geojson"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inquiry"
	"p9e.in/plotdesk/pkg/inventory"
	"p9e.in/plotdesk/pkg/mapview"
)

const degradedWarning = "Plot data could not be loaded from the sheet; showing an empty inventory."

// plotItem is one gallery card. Row indexes the unfiltered table.
type plotItem struct {
	Row int `json:"row"`
	models.PlotRecord
	Color      string `json:"color"`
	InquiryURL string `json:"inquiryUrl"`
}

type plotListResponse struct {
	Columns  []string        `json:"columns"`
	Plots    []plotItem      `json:"plots"`
	Stats    inventory.Stats `json:"stats"`
	Degraded bool            `json:"degraded"`
	Warning  string          `json:"warning,omitempty"`
}

// ListPlots is the public gallery: every record whose row text contains ?q=.
// A backing store failure still answers 200 with an empty, degraded table.
func (h *Handler) ListPlots(w http.ResponseWriter, r *http.Request) {
	table, degraded := h.Store.LoadOrEmpty(r.Context())
	rows := inventory.FilterRows(table, r.URL.Query().Get("q"))

	resp := plotListResponse{
		Columns:  table.Columns,
		Plots:    make([]plotItem, 0, len(rows)),
		Degraded: degraded,
	}
	filtered := models.InventoryTable{Columns: table.Columns, Records: make([]models.PlotRecord, 0, len(rows))}
	for _, i := range rows {
		rec := table.Records[i]
		filtered.Records = append(filtered.Records, rec)
		resp.Plots = append(resp.Plots, plotItem{
			Row:        i,
			PlotRecord: rec,
			Color:      mapview.StatusColors[rec.Status],
			InquiryURL: inquiry.Link(h.Phone, rec),
		})
	}
	resp.Stats = inventory.Summarize(filtered)
	if degraded {
		resp.Warning = degradedWarning
	}
	writeJSON(w, http.StatusOK, resp)
}

type plotMapResponse struct {
	Center   [2]float64                 `json:"center"` // lon, lat
	Plots    *geojson.FeatureCollection `json:"plots"`
	Degraded bool                       `json:"degraded"`
	Warning  string                     `json:"warning,omitempty"`
}

// PlotMap returns the mappable subset of the filtered table as GeoJSON points
func (h *Handler) PlotMap(w http.ResponseWriter, r *http.Request) {
	table, degraded := h.Store.LoadOrEmpty(r.Context())
	rows := inventory.FilterRows(table, r.URL.Query().Get("q"))

	filtered := models.InventoryTable{Columns: table.Columns, Records: make([]models.PlotRecord, 0, len(rows))}
	for _, i := range rows {
		filtered.Records = append(filtered.Records, table.Records[i])
	}
	fc := mapview.FeatureCollection(filtered)
	// point "row" back at the unfiltered table
	for _, f := range fc.Features {
		if i, ok := f.Properties["row"].(int); ok {
			f.Properties["row"] = rows[i]
		}
	}

	resp := plotMapResponse{
		Center:   mapview.Center(filtered, h.MapCenter),
		Plots:    fc,
		Degraded: degraded,
	}
	if degraded {
		resp.Warning = degradedWarning
	}
	writeJSON(w, http.StatusOK, resp)
}

type inquiryResponse struct {
	Row     int    `json:"row"`
	PlotNo  int64  `json:"plotNo"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// PlotInquiry builds the WhatsApp link for the record at {index}
func (h *Handler) PlotInquiry(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	table, _ := h.Store.LoadOrEmpty(r.Context())
	if idx < 0 || idx >= table.Len() {
		writeError(w, http.StatusNotFound, "no plot at index "+strconv.Itoa(idx))
		return
	}
	rec := table.Records[idx]
	writeJSON(w, http.StatusOK, inquiryResponse{
		Row:     idx,
		PlotNo:  rec.PlotNo,
		Message: inquiry.Message(rec),
		URL:     inquiry.Link(h.Phone, rec),
	})
}
