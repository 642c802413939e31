package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

const earthRadiusKm = 6371.0088

// LocationUseCase turns user-supplied locations into a delivery-origin
// decision: resolved coordinates plus the nearest fulfillment point.
type LocationUseCase struct {
	geocoder adapter.Geocoder
}

func NewLocationUseCase(geocoder adapter.Geocoder) *LocationUseCase {
	return &LocationUseCase{geocoder: geocoder}
}

// Resolve trusts device coordinates as-is and forwards free text to the
// geocoder. domain.ErrNotFound means the address could not be recognized and
// the caller should re-prompt.
func (uc *LocationUseCase) Resolve(ctx context.Context, input model.LocationInput) (model.Point, error) {
	if input.Point != nil {
		return *input.Point, nil
	}
	address := strings.TrimSpace(input.Text)
	if address == "" {
		return model.Point{}, domain.ErrNotFound
	}
	p, err := uc.geocoder.Geocode(ctx, address)
	if err != nil {
		return model.Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	return p, nil
}

// Nearest selects the candidate with the minimum great-circle distance from
// the point. Ties are broken by input order: the first encountered wins, so
// selection is deterministic for equal distances.
func (uc *LocationUseCase) Nearest(point model.Point, restaurants []model.Restaurant) (model.RestaurantCandidate, error) {
	if len(restaurants) == 0 {
		return model.RestaurantCandidate{}, domain.ErrNotFound
	}
	best := model.RestaurantCandidate{DistanceKm: math.Inf(1)}
	for _, r := range restaurants {
		km := haversineKm(point.Lat, point.Lon, r.Lat, r.Lon)
		if km < best.DistanceKm {
			best = model.RestaurantCandidate{
				Restaurant: r,
				DistanceKm: km,
				DistanceM:  km * 1000,
			}
		}
	}
	return best, nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// RestaurantsFromEntries maps raw flow entries into restaurants. Entries with
// unparsable coordinates are skipped rather than failing the whole lookup.
func RestaurantsFromEntries(entries []adapter.FlowEntry) []model.Restaurant {
	restaurants := make([]model.Restaurant, 0, len(entries))
	for _, e := range entries {
		lon, okLon := entryFloat(e, "longitude")
		lat, okLat := entryFloat(e, "latitude")
		if !okLon || !okLat {
			continue
		}
		courier, _ := entryInt(e, "courier-id")
		restaurants = append(restaurants, model.Restaurant{
			ID:        entryString(e, "id"),
			Address:   entryString(e, "address"),
			Lon:       lon,
			Lat:       lat,
			CourierID: courier,
		})
	}
	return restaurants
}

func entryString(e adapter.FlowEntry, key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

func entryFloat(e adapter.FlowEntry, key string) (float64, bool) {
	switch v := e[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func entryInt(e adapter.FlowEntry, key string) (int64, bool) {
	switch v := e[key].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}
