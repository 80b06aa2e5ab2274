package inquiry

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"p9e.in/plotdesk/models"
)

const whatsAppBase = "https://wa.me/"

// Message is the pre-filled inquiry text for rec
func Message(rec models.PlotRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello, Inquiry for Plot #%d", rec.PlotNo)
	if loc := strings.TrimSpace(rec.Location); loc != "" {
		b.WriteString(" at " + loc)
	}
	if rec.PriceLakhs != nil {
		b.WriteString(" (₹ " + strconv.FormatFloat(*rec.PriceLakhs, 'f', -1, 64) + " Lakhs)")
	}
	return b.String()
}

// Link is a WhatsApp click-to-chat deep link to phone with the inquiry text.
// Non-digits in phone are dropped ("+91 98765-43210" -> "919876543210").
func Link(phone string, rec models.PlotRecord) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return whatsAppBase + digits + "?text=" + url.QueryEscape(Message(rec))
}
