package backing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/plotdesk/config"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

func sampleSheet() inventory.Sheet {
	return inventory.Sheet{
		Header: []string{"Plot_No", "Location", "Area_sqft", "Status", "Price_Lakhs", "Lat", "Lon", "Length"},
		Rows: [][]string{
			{"101", "Sector 5", "1200", "Available", "12.5", "26.846708", "80.946159", "40"},
			{"102", "", "", "Sold", "", "", "", ""},
			{"101", "Sector 5 (resale)", "", "Booked", "on request", "", "", ""},
		},
	}
}

func decoded(t *testing.T, s inventory.Sheet) models.InventoryTable {
	t.Helper()
	table, _, err := inventory.FromSheet(s)
	require.NoError(t, err)
	return table
}

func TestXLSX_RoundTrip(t *testing.T) {
	data, err := EncodeXLSX(sampleSheet(), "Plots")
	require.NoError(t, err)

	back, err := DecodeXLSX(data, "plots")
	require.NoError(t, err)
	assert.Equal(t, sampleSheet().Header, back.Header)
	assert.Equal(t, decoded(t, sampleSheet()), decoded(t, back))
}

func TestXLSX_FallsBackToFirstSheet(t *testing.T) {
	data, err := EncodeXLSX(sampleSheet(), "Inventory")
	require.NoError(t, err)

	back, err := DecodeXLSX(data, "Plots")
	require.NoError(t, err)
	assert.Len(t, back.Rows, 3)
}

func TestXLSX_RejectsGarbage(t *testing.T) {
	_, err := DecodeXLSX([]byte("not a workbook"), "Plots")
	assert.Error(t, err)
}

func TestFile_MissingWorkbookIsEmpty(t *testing.T) {
	b := NewFile(filepath.Join(t.TempDir(), "plots.xlsx"), "Plots")
	s, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Header)
	assert.Empty(t, s.Rows)
}

func TestFile_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "plots.xlsx")
	b := NewFile(path, "Plots")

	require.NoError(t, b.Write(context.Background(), sampleSheet()))
	_, err := os.Stat(path)
	require.NoError(t, err)

	back, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, decoded(t, sampleSheet()), decoded(t, back))

	// whole-table overwrite
	require.NoError(t, b.Write(context.Background(), inventory.Sheet{Header: models.CanonicalColumns}))
	back, err = b.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, back.Rows)
}

func TestFile_CorruptWorkbookIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	store := inventory.NewStore(NewFile(path, "Plots"), nil)
	table, err := store.Load(context.Background())
	assert.ErrorIs(t, err, inventory.ErrBackingStoreUnavailable)
	assert.Equal(t, inventory.EmptyTable(), table)
}

func TestGoogleSheet_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("\xef\xbb\xbfPlot_No,Location,Status,Lat,Lon\n101,\"Sector 5, Phase 1\",Available,26.8,80.9\n,,,,\n"))
	}))
	defer srv.Close()

	store := inventory.NewStore(NewGoogleSheet(srv.URL, "", time.Second), nil)
	table, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "Sector 5, Phase 1", table.Records[0].Location)
}

func TestGoogleSheet_UnreachableFallsBackToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := inventory.NewStore(NewGoogleSheet(srv.URL, "", time.Second), nil)
	table, degraded := store.LoadOrEmpty(context.Background())
	assert.True(t, degraded)
	assert.Equal(t, models.CanonicalColumns, table.Columns)
	assert.Empty(t, table.Records)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err := inventory.NewStore(NewGoogleSheet(closed.URL, "", time.Second), nil).Load(context.Background())
	assert.ErrorIs(t, err, inventory.ErrBackingStoreUnavailable)
}

func TestGoogleSheet_Write(t *testing.T) {
	var got sheetPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	b := NewGoogleSheet(srv.URL, srv.URL, time.Second)
	require.NoError(t, b.Write(context.Background(), sampleSheet()))
	assert.Equal(t, sampleSheet().Header, got.Header)
	assert.Equal(t, sampleSheet().Rows, got.Rows)
}

func TestGoogleSheet_ReadOnlyPersistFails(t *testing.T) {
	store := inventory.NewStore(NewGoogleSheet("http://127.0.0.1:1/csv", "", time.Second), nil)
	err := store.Persist(context.Background(), inventory.EmptyTable())
	assert.ErrorIs(t, err, inventory.ErrPersistence)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestCSV_RoundTrip(t *testing.T) {
	data, err := EncodeCSV(sampleSheet())
	require.NoError(t, err)
	back, err := DecodeCSV(data)
	require.NoError(t, err)
	assert.Equal(t, sampleSheet(), back)
}

func TestSQL_WriteThenRead(t *testing.T) {
	db, err := config.OpenDatabase("sqlite", filepath.Join(t.TempDir(), "plots.db"))
	require.NoError(t, err)
	b := NewSQL(db)

	empty, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CanonicalColumns, empty.Header)
	assert.Empty(t, empty.Rows)

	require.NoError(t, b.Write(context.Background(), sampleSheet()))
	back, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, models.CanonicalColumns...), "Length"), back.Header)
	assert.Equal(t, decoded(t, sampleSheet()), decoded(t, back))

	var count int64
	require.NoError(t, db.Model(&models.PlotRow{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	require.NoError(t, b.Write(context.Background(), inventory.Sheet{Header: models.CanonicalColumns}))
	require.NoError(t, db.Model(&models.PlotRow{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{"file", config.Config{Backend: config.BackendFile, SheetPath: filepath.Join(dir, "plots.xlsx")}, "file:" + filepath.Join(dir, "plots.xlsx"), false},
		{"gsheet", config.Config{Backend: config.BackendGSheet, GSheetCSVURL: "http://127.0.0.1:1/export"}, "gsheet", false},
		{"sqlite", config.Config{Backend: config.BackendSQL, DBDriver: "sqlite", DBDSN: filepath.Join(dir, "plots.db")}, "sql:sqlite", false},
		{"gcs without bucket", config.Config{Backend: config.BackendGCS}, "", true},
		{"unknown", config.Config{Backend: "ftp"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, closeFn, err := Open(context.Background(), tt.cfg)
			defer closeFn()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, b.Name())
		})
	}
}
