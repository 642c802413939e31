package model

// Point is a longitude/latitude pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// LocationInput is what the user supplied for delivery: either device
// coordinates (trusted as-is) or a free-text address to geocode.
type LocationInput struct {
	Point *Point
	Text  string
}

// Restaurant is a fulfillment point loaded from the commerce backend.
type Restaurant struct {
	ID        string  `json:"id"`
	Address   string  `json:"address"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	CourierID int64   `json:"courier_id"`
}

// RestaurantCandidate is a restaurant annotated with its distance from the
// customer's point, in both units the presentation tier needs.
type RestaurantCandidate struct {
	Restaurant
	DistanceKm float64 `json:"distance_km"`
	DistanceM  float64 `json:"distance_m"`
}
