package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-pizza-shop/internal/config"
	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

var _ adapter.Geocoder = (*Client)(nil)

// Client resolves addresses through a Yandex-style geocoding API. The most
// relevant match is always the first feature member of the response.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(cfg config.GeocoderConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Geocode(ctx context.Context, address string) (model.Point, error) {
	query := url.Values{
		"geocode": {address},
		"apikey":  {c.apiKey},
		"format":  {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/1.x", nil)
	if err != nil {
		return model.Point{}, err
	}
	req.URL.RawQuery = query.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Point{}, fmt.Errorf("%w: geocode: %v", domain.ErrBackendCall, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return model.Point{}, fmt.Errorf("%w: geocode: status %d", domain.ErrBackendCall, resp.StatusCode)
	}

	var out struct {
		Response struct {
			GeoObjectCollection struct {
				FeatureMember []struct {
					GeoObject struct {
						Point struct {
							Pos string `json:"pos"`
						} `json:"Point"`
					} `json:"GeoObject"`
				} `json:"featureMember"`
			} `json:"GeoObjectCollection"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Point{}, fmt.Errorf("%w: geocode: decode: %v", domain.ErrBackendCall, err)
	}

	members := out.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		// No match is a normal outcome, not a failure.
		return model.Point{}, fmt.Errorf("%w: address %q", domain.ErrNotFound, address)
	}
	return parsePos(members[0].GeoObject.Point.Pos)
}

// parsePos splits a "longitude latitude" pair.
func parsePos(pos string) (model.Point, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return model.Point{}, fmt.Errorf("%w: geocode: malformed point %q", domain.ErrBackendCall, pos)
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("%w: geocode: malformed longitude %q", domain.ErrBackendCall, parts[0])
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("%w: geocode: malformed latitude %q", domain.ErrBackendCall, parts[1])
	}
	return model.Point{Lon: lon, Lat: lat}, nil
}
