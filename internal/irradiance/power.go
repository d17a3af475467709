// Package irradiance fetches long-term average daily solar irradiance from
// the NASA POWER climate data service.
package irradiance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/mlecomte/toitsol/internal/httputil"
	"github.com/mlecomte/toitsol/internal/metrics"
)

const (
	DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal/daily/point"

	// Parameter is the POWER daily series consumed: all-sky surface
	// shortwave downward irradiance, in kWh/m²/day.
	Parameter = "ALLSKY_SFC_SW_DWN"

	// FallbackDaily is the metropolitan-France average used whenever the
	// live lookup fails (kWh/m²/day). Irradiance is best-effort enrichment,
	// never a hard dependency.
	FallbackDaily = 3.8
)

// Default historical window: a decade keeps single anomalous years from
// skewing the average.
var (
	DefaultStart = time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	DefaultEnd   = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Sample is a daily-average irradiance figure. Fallback marks values that
// came from the regional constant rather than a live lookup; Days is the
// number of daily observations averaged (zero for fallback).
type Sample struct {
	DailyKWhM2 float64
	Fallback   bool
	Days       int
}

// Annual returns the annualized irradiance in kWh/m²/year. Annualization
// happens exactly once, here.
func (s Sample) Annual() float64 {
	return s.DailyKWhM2 * 365
}

// Client queries the POWER daily point endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	start   time.Time
	end     time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  httputil.NewClientTimeout(timeout),
		start:   DefaultStart,
		end:     DefaultEnd,
	}
}

// DailyAverage returns the mean daily irradiance at the coordinate over the
// historical window. It never fails: transport errors, parse errors, and
// series with no physical values all degrade to the regional fallback with
// a logged warning.
func (c *Client) DailyAverage(ctx context.Context, lat, lon float64) Sample {
	start := time.Now()
	sample, err := c.fetch(ctx, lat, lon)
	metrics.ExternalAPILatency.WithLabelValues("power").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("power", "error").Inc()
		metrics.IrradianceFallbacksTotal.Inc()
		log.Printf("irradiance: %v, using fallback %.1f kWh/m²/day", err, FallbackDaily)
		return Sample{DailyKWhM2: FallbackDaily, Fallback: true}
	}
	metrics.ExternalAPICallsTotal.WithLabelValues("power", "ok").Inc()
	return sample
}

type powerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (Sample, error) {
	u := fmt.Sprintf("%s?%s", c.baseURL, url.Values{
		"parameters": {Parameter},
		"community":  {"RE"},
		"latitude":   {fmt.Sprintf("%.6f", lat)},
		"longitude":  {fmt.Sprintf("%.6f", lon)},
		"start":      {c.start.Format("20060102")},
		"end":        {c.end.Format("20060102")},
		"format":     {"JSON"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return Sample{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var doc powerResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Sample{}, fmt.Errorf("decode response: %w", err)
	}

	series, ok := doc.Properties.Parameter[Parameter]
	if !ok {
		return Sample{}, fmt.Errorf("response missing %s series", Parameter)
	}

	// POWER flags missing days with a negative sentinel (-999); anything
	// non-positive is non-physical for daily irradiance.
	sum, n := 0.0, 0
	for _, v := range series {
		if v <= 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Sample{}, fmt.Errorf("series has no physical values")
	}

	return Sample{DailyKWhM2: sum / float64(n), Days: n}, nil
}
