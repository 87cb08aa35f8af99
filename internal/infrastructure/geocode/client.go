package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/placeshare/places-api/internal/domain/entity"
)

// ErrZeroResults means the provider recognized the request but found no
// location for the address. Handlers map it to a 422.
var ErrZeroResults = errors.New("no location found for given address")

// Resolver turns a postal address into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, address string) (entity.Coordinates, error)
}

// Client resolves addresses through a Google-style geocoding endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location entity.Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *Client) Resolve(ctx context.Context, address string) (entity.Coordinates, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return entity.Coordinates{}, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return entity.Coordinates{}, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return entity.Coordinates{}, fmt.Errorf("geocode: unexpected status %s", res.Status)
	}

	var body geocodeResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return entity.Coordinates{}, err
	}
	if body.Status == "ZERO_RESULTS" || len(body.Results) == 0 {
		return entity.Coordinates{}, ErrZeroResults
	}
	return body.Results[0].Geometry.Location, nil
}

var _ Resolver = (*Client)(nil)
