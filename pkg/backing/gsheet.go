package backing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"p9e.in/plotdesk/pkg/inventory"
)

// ErrReadOnly is returned by Write on a sheet published without a write endpoint
var ErrReadOnly = errors.New("backing sheet is read-only")

// GoogleSheet reads a Google Sheet through its CSV export link
// (https://docs.google.com/spreadsheets/d/<id>/export?format=csv&gid=<gid>).
// Writes go to WriteURL, an Apps Script web app that replaces the sheet with
// the posted header and rows; without it the sheet is read-only.
type GoogleSheet struct {
	client   *resty.Client
	CSVURL   string
	WriteURL string
}

type sheetPayload struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewGoogleSheet builds the HTTP client used for both directions
func NewGoogleSheet(csvURL, writeURL string, timeout time.Duration) *GoogleSheet {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "text/csv, application/json")
	return &GoogleSheet{client: client, CSVURL: csvURL, WriteURL: writeURL}
}

func (b *GoogleSheet) Name() string { return "gsheet" }

func (b *GoogleSheet) Read(ctx context.Context) (inventory.Sheet, error) {
	resp, err := b.client.R().SetContext(ctx).Get(b.CSVURL)
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("fetch sheet: %w", err)
	}
	if resp.IsError() {
		return inventory.Sheet{}, fmt.Errorf("fetch sheet: %s", resp.Status())
	}
	return DecodeCSV(resp.Body())
}

func (b *GoogleSheet) Write(ctx context.Context, s inventory.Sheet) error {
	if b.WriteURL == "" {
		return ErrReadOnly
	}
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sheetPayload{Header: s.Header, Rows: s.Rows}).
		Post(b.WriteURL)
	if err != nil {
		return fmt.Errorf("post sheet: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post sheet: %s", resp.Status())
	}
	return nil
}

// DecodeCSV parses CSV text; the first record is the header. Ragged rows are accepted.
func DecodeCSV(data []byte) (inventory.Sheet, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return inventory.Sheet{}, nil
	}
	return inventory.Sheet{Header: records[0], Rows: records[1:]}, nil
}

// EncodeCSV writes s as CSV with the header first
func EncodeCSV(s inventory.Sheet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(s.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(s.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
