package geocode

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrGeocodeMiss means coordinates are unknown: no match or the service failed.
// It is never fatal; the admin can type coordinates by hand.
var ErrGeocodeMiss = errors.New("geocode: no result")

// Geocoder resolves a free-text address to a coordinate pair
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, ok bool)
}

// Lookup is Geocode with the miss as an error value
func Lookup(ctx context.Context, g Geocoder, address string) (lat, lon float64, err error) {
	lat, lon, ok := g.Geocode(ctx, address)
	if !ok {
		return 0, 0, ErrGeocodeMiss
	}
	return lat, lon, nil
}

// Nominatim queries an OpenStreetMap Nominatim /search endpoint
type Nominatim struct {
	client *resty.Client
	log    *zap.Logger
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatim points at baseURL; Nominatim's usage policy requires a real User-Agent
func NewNominatim(baseURL, userAgent string, timeout time.Duration, log *zap.Logger) *Nominatim {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return &Nominatim{client: client, log: log}
}

// Geocode returns ok=false on any failure; misses are logged as warnings
func (n *Nominatim) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, false
	}

	var places []nominatimPlace
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&places).
		Get("/search")
	if err != nil {
		n.log.Warn("geocode miss", zap.String("address", address), zap.Error(err))
		return 0, 0, false
	}
	if resp.IsError() {
		n.log.Warn("geocode miss", zap.String("address", address), zap.Int("status", resp.StatusCode()))
		return 0, 0, false
	}
	if len(places) == 0 {
		n.log.Warn("geocode miss", zap.String("address", address), zap.String("reason", "no match"))
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		n.log.Warn("geocode miss", zap.String("address", address), zap.String("reason", "bad coordinates"),
			zap.String("lat", places[0].Lat), zap.String("lon", places[0].Lon))
		return 0, 0, false
	}
	n.log.Debug("geocoded", zap.String("address", address), zap.String("match", places[0].DisplayName))
	return lat, lon, true
}
