package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"route-board-service/internal/domain"
	"route-board-service/internal/platform/obs"
	"route-board-service/internal/ports"
	"strings"
	"time"
)

// ORSDirectionsProvider implements DirectionsService using the
// OpenRouteService directions endpoint (GeoJSON flavour).
//
// Exactly one route is requested per call; waypoints are sent in the given
// order and never optimized. The provider is safe for concurrent use.
type ORSDirectionsProvider struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	profile     string
	maxAttempts int
	backoff     time.Duration
}

type ORSOptions struct {
	APIKey  string
	BaseURL string
	Profile string
	Timeout time.Duration
	// MaxAttempts bounds retries of transient failures; 0 means 4.
	MaxAttempts int
	// Backoff is the first retry delay, doubled per attempt; 0 means 200ms.
	Backoff time.Duration
}

func NewORSDirectionsProvider(opts ORSOptions) (*ORSDirectionsProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	p := &ORSDirectionsProvider{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      opts.APIKey,
		baseURL:     "https://api.openrouteservice.org",
		profile:     "driving-car",
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	if opts.BaseURL != "" {
		p.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Profile != "" {
		p.profile = opts.Profile
	}
	if opts.Timeout > 0 {
		p.session.Timeout = opts.Timeout
	}
	if opts.MaxAttempts > 0 {
		p.maxAttempts = opts.MaxAttempts
	}
	if opts.Backoff > 0 {
		p.backoff = opts.Backoff
	}

	return p, nil
}

type directionsOptions struct {
	AvoidFeatures []string `json:"avoid_features,omitempty"`
}

type directionsRequest struct {
	Coordinates  [][]float64        `json:"coordinates"`
	Instructions bool               `json:"instructions"`
	Options      *directionsOptions `json:"options,omitempty"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Route requests a single path through origin, waypoints and destination.
func (o *ORSDirectionsProvider) Route(
	ctx context.Context,
	req ports.DirectionsRequest,
) (_ ports.DirectionsResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	if req.Alternatives {
		return ports.DirectionsResult{}, errors.New("ors directions: route alternatives are not supported")
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	coords := make([][]float64, 0, 2+len(req.Waypoints))
	coords = append(coords, req.Origin.CoordsToList())
	for _, w := range req.Waypoints {
		coords = append(coords, w.CoordsToList())
	}
	coords = append(coords, req.Destination.CoordsToList())

	bodyObj := directionsRequest{Coordinates: coords}
	var avoid []string
	if req.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	if req.AvoidTolls {
		avoid = append(avoid, "tollways")
	}
	if len(avoid) > 0 {
		bodyObj.Options = &directionsOptions{AvoidFeatures: avoid}
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Features) == 0 {
		return ports.DirectionsResult{}, errors.New("directions response has no route")
	}

	feature := dr.Features[0]
	path := make([]domain.Coordinates, 0, len(feature.Geometry.Coordinates))
	for i, c := range feature.Geometry.Coordinates {
		coord, ok := domain.CoordinatesFromList(c)
		if !ok {
			return ports.DirectionsResult{}, fmt.Errorf("invalid coordinate at index %d", i)
		}
		path = append(path, coord)
	}

	if len(path) < 2 {
		return ports.DirectionsResult{}, fmt.Errorf("directions geometry has %d points", len(path))
	}

	// ORS returns float metrics; round to nearest integer for domain consistency.
	return ports.DirectionsResult{
		Path:            path,
		DistanceMeters:  int(math.Round(feature.Properties.Summary.Distance)),
		DurationSeconds: int(math.Round(feature.Properties.Summary.Duration)),
	}, nil
}
