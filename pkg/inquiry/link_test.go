package inquiry

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/plotdesk/models"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		rec  models.PlotRecord
		want string
	}{
		{"number only", models.PlotRecord{PlotNo: 101}, "Hello, Inquiry for Plot #101"},
		{"with location", models.PlotRecord{PlotNo: 101, Location: " Sector 5 "}, "Hello, Inquiry for Plot #101 at Sector 5"},
		{"with price", models.PlotRecord{PlotNo: 7, Location: "Gomti Nagar", PriceLakhs: models.Float(22.5)}, "Hello, Inquiry for Plot #7 at Gomti Nagar (₹ 22.5 Lakhs)"},
		{"price without location", models.PlotRecord{PlotNo: 8, PriceLakhs: models.Float(40)}, "Hello, Inquiry for Plot #8 (₹ 40 Lakhs)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.rec))
		})
	}
}

func TestLink(t *testing.T) {
	rec := models.PlotRecord{PlotNo: 101, Location: "Sector 5 & Park", PriceLakhs: models.Float(12.5)}

	link := Link("+91 98765-43210", rec)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/919876543210", u.Path)
	assert.Equal(t, Message(rec), u.Query().Get("text"))
	assert.NotContains(t, u.RawQuery, " ")
	assert.NotContains(t, u.RawQuery, "#")
}
