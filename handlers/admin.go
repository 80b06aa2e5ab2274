package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"p9e.in/plotdesk/middleware"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/backing"
	"p9e.in/plotdesk/pkg/geocode"
	"p9e.in/plotdesk/pkg/inventory"
	"p9e.in/plotdesk/pkg/mapview"
)

const maxImportSize = 32 << 20

// plotInput is the admin form. Status may be blank (Available); coordinates
// fall back to the session's captured GPS fix when omitted.
type plotInput struct {
	PlotNo     int64             `json:"plotNo"`
	Location   string            `json:"location"`
	AreaSqft   *float64          `json:"areaSqft"`
	Status     models.PlotStatus `json:"status"`
	PriceLakhs *float64          `json:"priceLakhs"`
	Lat        *float64          `json:"lat"`
	Lon        *float64          `json:"lon"`
	Extra      map[string]string `json:"extra"`
}

func (p plotInput) record() models.PlotRecord {
	return models.PlotRecord{
		PlotNo:     p.PlotNo,
		Location:   strings.TrimSpace(p.Location),
		AreaSqft:   p.AreaSqft,
		Status:     p.Status,
		PriceLakhs: p.PriceLakhs,
		Lat:        p.Lat,
		Lon:        p.Lon,
		Extra:      p.Extra,
	}
}

type tableResp struct {
	Total    int      `json:"total"`
	Row      *int     `json:"row,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Imported int      `json:"imported,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// loadForWrite reads the current table for an admin edit. Unlike the public
// views it refuses to continue from the empty fallback, which would overwrite the sheet.
func (h *Handler) loadForWrite(w http.ResponseWriter, r *http.Request) (models.InventoryTable, bool) {
	table, err := h.Store.Load(r.Context())
	if err != nil {
		h.logger().Warn("admin edit refused, load failed", zap.Error(err))
		h.writeStoreError(w, err)
		return table, false
	}
	return table, true
}

// AddPlot validates one record, appends it and writes the whole table back
func (h *Handler) AddPlot(w http.ResponseWriter, r *http.Request) {
	var in plotInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	rec := in.record()
	if state, ok := middleware.GetSession(r); ok && state.HasFix {
		if rec.Lat == nil {
			rec.Lat = models.Float(state.Lat)
		}
		if rec.Lon == nil {
			rec.Lon = models.Float(state.Lon)
		}
	}

	table, ok := h.loadForWrite(w, r)
	if !ok {
		return
	}
	next, err := h.Store.Add(r.Context(), table, rec)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	row := next.Len() - 1
	h.logger().Info("plot added", zap.Int64("plotNo", rec.PlotNo), zap.Int("row", row))
	writeJSON(w, http.StatusCreated, tableResp{Total: next.Len(), Row: &row})
}

type replaceReq struct {
	Plots []plotInput `json:"plots"`
}

// ReplacePlots is the bulk editor: the body is the complete new table
func (h *Handler) ReplacePlots(w http.ResponseWriter, r *http.Request) {
	var req replaceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	rows := make([]models.PlotRecord, 0, len(req.Plots))
	for _, p := range req.Plots {
		rec := p.record()
		if rec.Status == "" {
			rec.Status = models.PlotStatusAvailable
		}
		rows = append(rows, rec)
	}

	table, ok := h.loadForWrite(w, r)
	if !ok {
		return
	}
	next, err := h.Store.Replace(r.Context(), table, rows)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger().Info("plots replaced", zap.Int("before", table.Len()), zap.Int("after", next.Len()))
	writeJSON(w, http.StatusOK, tableResp{Total: next.Len()})
}

type geocodeResp struct {
	Found   bool     `json:"found"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// Geocode resolves ?address= for the admin form. A miss is a soft warning, not an error.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	lat, lon, err := geocode.Lookup(r.Context(), h.Geocoder, address)
	if err != nil {
		writeJSON(w, http.StatusOK, geocodeResp{Warning: "Address not found, enter coordinates manually."})
		return
	}
	writeJSON(w, http.StatusOK, geocodeResp{Found: true, Lat: &lat, Lon: &lon})
}

func attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func exportName(ext string) string {
	return fmt.Sprintf("plots_%s%s", time.Now().Format("20060102_150405"), ext)
}

// ExportXLSX downloads the current table as a styled workbook
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	table, ok := h.loadForWrite(w, r)
	if !ok {
		return
	}
	data, err := backing.EncodeXLSX(inventory.ToSheet(table), h.SheetName)
	if err != nil {
		h.logger().Error("xlsx export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate Excel file")
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", exportName(".xlsx"), data)
}

// ExportShapefile downloads the mappable plots as a zipped point shapefile
func (h *Handler) ExportShapefile(w http.ResponseWriter, r *http.Request) {
	table, ok := h.loadForWrite(w, r)
	if !ok {
		return
	}
	data, err := mapview.ShapefileZip(table, "plots")
	if err != nil {
		h.logger().Error("shapefile export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate shapefile")
		return
	}
	attachment(w, "application/zip", exportName(".shp.zip"), data)
}

// ImportPlots reads an uploaded .xlsx, .kml or .kmz file. mode=append (default)
// adds the rows after the existing ones; mode=replace makes them the whole table.
// Imported rows are validated before anything is written; rows already in the
// sheet are carried over as they are.
func (h *Handler) ImportPlots(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}
	if m := r.FormValue("mode"); m != "" {
		mode = strings.ToLower(m)
	}
	if mode == "" {
		mode = "append"
	}
	if mode != "append" && mode != "replace" {
		writeError(w, http.StatusBadRequest, "mode must be append or replace")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	imported, warnings, err := h.decodeImport(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, ok := h.loadForWrite(w, r)
	if !ok {
		return
	}
	var next models.InventoryTable
	if mode == "append" {
		next, err = h.Store.Append(r.Context(), table, imported)
	} else {
		next, err = h.Store.Replace(r.Context(), table, imported)
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger().Info("plots imported",
		zap.String("file", header.Filename),
		zap.String("mode", mode),
		zap.Int("imported", len(imported)),
		zap.Int("total", next.Len()))
	writeJSON(w, http.StatusOK, tableResp{Total: next.Len(), Mode: mode, Imported: len(imported), Warnings: warnings})
}

func (h *Handler) decodeImport(filename string, data []byte) ([]models.PlotRecord, []string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		sheet, err := backing.DecodeXLSX(data, h.SheetName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read workbook: %w", err)
		}
		table, warnings, err := inventory.FromSheet(sheet)
		if err != nil {
			return nil, nil, err
		}
		return table.Records, warnings, nil
	case ".kmz":
		return mapview.ParseKMZ(data)
	case ".kml":
		return mapview.ParseKML(data)
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q, expected .xlsx, .kml or .kmz", filepath.Ext(filename))
	}
}
