// Package osm fetches building footprints from the Overpass API.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mlecomte/toitsol/internal/httputil"
	"github.com/mlecomte/toitsol/internal/metrics"
)

const DefaultBaseURL = "https://overpass-api.de/api/interpreter"

// LatLon is a WGS84 vertex as returned by Overpass.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Footprint is one building feature with polygonal geometry. Rings holds
// the outer ring(s) in WGS84; multipolygon relations contribute several.
// Points and open ways (buildings mapped without shape data) never become
// footprints.
type Footprint struct {
	ID    int64
	Kind  string // "way" or "relation"
	Tags  map[string]string
	Rings [][]LatLon
}

// Client queries Overpass for tagged building features around a point.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  httputil.NewClientTimeout(timeout),
	}
}

// queryTimeoutSec is the server-side [timeout:] we ask Overpass for,
// kept within the transport timeout so the server never works past our
// deadline.
func (c *Client) queryTimeoutSec() int {
	sec := int(c.client.Timeout.Seconds())
	if sec < 1 {
		return 1
	}
	return sec
}

// BuildingsNear returns all building footprints within radiusM meters of
// the coordinate. "No results" and transport failures both yield an empty
// slice: with zero candidates downstream selection fails uniformly, which
// keeps the error surface to one path.
func (c *Client) BuildingsNear(ctx context.Context, lat, lon, radiusM float64) []Footprint {
	start := time.Now()
	fps, err := c.fetch(ctx, lat, lon, radiusM)
	metrics.ExternalAPILatency.WithLabelValues("overpass").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("overpass", "error").Inc()
		log.Printf("overpass: fetch buildings: %v", err)
		return nil
	}
	metrics.ExternalAPICallsTotal.WithLabelValues("overpass", "ok").Inc()
	return fps
}

func (c *Client) fetch(ctx context.Context, lat, lon, radiusM float64) ([]Footprint, error) {
	form := url.Values{"data": {c.buildQuery(lat, lon, radiusM)}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var doc overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return parseElements(doc.Elements), nil
}

// buildQuery renders the Overpass QL request for building ways and
// relations around the point.
func (c *Client) buildQuery(lat, lon, radiusM float64) string {
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  way["building"](around:%.0f,%.6f,%.6f);
  relation["building"](around:%.0f,%.6f,%.6f);
);
out geom;`, c.queryTimeoutSec(), radiusM, lat, lon, radiusM, lat, lon)
}

// Overpass JSON structures (out geom form).
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []LatLon          `json:"geometry"`
	Members  []overpassMember  `json:"members"`
}

type overpassMember struct {
	Type     string   `json:"type"`
	Role     string   `json:"role"`
	Geometry []LatLon `json:"geometry"`
}

// parseElements keeps only polygonal geometry: closed ways and the closed
// outer rings of multipolygon relations.
func parseElements(elements []overpassElement) []Footprint {
	var fps []Footprint
	for _, el := range elements {
		switch el.Type {
		case "way":
			ring, ok := closedRing(el.Geometry)
			if !ok {
				continue
			}
			fps = append(fps, Footprint{
				ID:    el.ID,
				Kind:  "way",
				Tags:  el.Tags,
				Rings: [][]LatLon{ring},
			})
		case "relation":
			var rings [][]LatLon
			for _, m := range el.Members {
				if m.Type != "way" || m.Role != "outer" {
					continue
				}
				if ring, ok := closedRing(m.Geometry); ok {
					rings = append(rings, ring)
				}
			}
			if len(rings) == 0 {
				continue
			}
			fps = append(fps, Footprint{
				ID:    el.ID,
				Kind:  "relation",
				Tags:  el.Tags,
				Rings: rings,
			})
		}
	}
	return fps
}

// closedRing reports whether the vertex list describes a closed polygon
// ring and returns it without the repeated closing vertex.
func closedRing(geom []LatLon) ([]LatLon, bool) {
	if len(geom) < 4 {
		return nil, false
	}
	first, last := geom[0], geom[len(geom)-1]
	if first.Lat != last.Lat || first.Lon != last.Lon {
		return nil, false
	}
	return geom[:len(geom)-1], true
}

// Name returns a short human label for the footprint, preferring address
// and name tags when the mapper provided them.
func (f Footprint) Name() string {
	if n, ok := f.Tags["name"]; ok && n != "" {
		return n
	}
	if num, ok := f.Tags["addr:housenumber"]; ok {
		if street, ok := f.Tags["addr:street"]; ok {
			return num + " " + street
		}
	}
	return f.Kind + "/" + strconv.FormatInt(f.ID, 10)
}
