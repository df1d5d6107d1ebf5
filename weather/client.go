// Package weather fetches forecasts and active alerts from the
// National Weather Service API. Lookup failures are reported as
// human-readable messages rather than errors, so callers can hand the
// text straight to whoever asked.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.weather.gov"
	userAgent      = "weather-tool/1.0"
	acceptHeader   = "application/geo+json"

	requestTimeout  = 30 * time.Second
	forecastPeriods = 5
)

// Client queries the NWS API
type Client struct {
	base   string
	client *http.Client
	logger zerolog.Logger
}

// NewClient builds a client against the public NWS endpoint
func NewClient(logger zerolog.Logger) *Client {
	return NewClientWithBase(defaultBaseURL, logger)
}

// NewClientWithBase builds a client against a specific endpoint
func NewClientWithBase(base string, logger zerolog.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: requestTimeout},
		logger: logger.With().Str("component", "weather").Logger(),
	}
}

// get fetches one NWS resource, returning nil on any failure
func (c *Client) get(ctx context.Context, url string) map[string]interface{} {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn().Str("url", url).Err(err).Msg("failed to create NWS request")
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Str("url", url).Err(err).Msg("NWS request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("NWS returned non-OK status")
		return nil
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn().Str("url", url).Err(err).Msg("failed to decode NWS response")
		return nil
	}
	return payload
}

// Alerts returns the active alerts for a two-letter US state code
func (c *Client) Alerts(ctx context.Context, state string) string {
	url := fmt.Sprintf("%s/alerts/active/area/%s", c.base, strings.ToUpper(strings.TrimSpace(state)))

	data := c.get(ctx, url)
	if data == nil {
		return "Unable to fetch alerts or no alerts found."
	}

	features, ok := data["features"].([]interface{})
	if !ok {
		return "Unable to fetch alerts or no alerts found."
	}
	if len(features) == 0 {
		return "No active alerts for this state."
	}

	alerts := make([]string, 0, len(features))
	for _, f := range features {
		feature, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		props, _ := feature["properties"].(map[string]interface{})
		alerts = append(alerts, formatAlert(props))
	}
	return strings.Join(alerts, "\n---\n")
}

// Forecast returns the next few forecast periods for a coordinate. The
// NWS API resolves coordinates to a gridpoint first, then serves the
// forecast from a URL embedded in that response.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64) string {
	pointsURL := fmt.Sprintf("%s/points/%s,%s", c.base, formatCoordinate(latitude), formatCoordinate(longitude))

	points := c.get(ctx, pointsURL)
	if points == nil {
		return "Unable to fetch forecast data for this location."
	}

	props, _ := points["properties"].(map[string]interface{})
	forecastURL, _ := props["forecast"].(string)
	if forecastURL == "" {
		return "Unable to determine forecast URL for this location."
	}

	forecast := c.get(ctx, forecastURL)
	if forecast == nil {
		return "Unable to fetch detailed forecast."
	}

	forecastProps, _ := forecast["properties"].(map[string]interface{})
	rawPeriods, _ := forecastProps["periods"].([]interface{})

	periods := make([]string, 0, forecastPeriods)
	for i, p := range rawPeriods {
		if i >= forecastPeriods {
			break
		}
		period, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		periods = append(periods, formatPeriod(period))
	}

	if len(periods) == 0 {
		return "Unable to fetch detailed forecast."
	}
	return strings.Join(periods, "\n---\n")
}

func formatAlert(props map[string]interface{}) string {
	return fmt.Sprintf("\nEvent: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s\n",
		stringProp(props, "event", "Unknown"),
		stringProp(props, "areaDesc", "Unknown"),
		stringProp(props, "severity", "Unknown"),
		stringProp(props, "description", "No description available"),
		stringProp(props, "instruction", "No specific instructions provided"),
	)
}

func formatPeriod(period map[string]interface{}) string {
	return fmt.Sprintf("\n%s:\nTemperature: %v°%s\nWind: %s %s\nForecast: %s\n",
		stringProp(period, "name", "Unknown"),
		period["temperature"],
		stringProp(period, "temperatureUnit", "F"),
		stringProp(period, "windSpeed", "Unknown"),
		stringProp(period, "windDirection", ""),
		stringProp(period, "detailedForecast", "No forecast available"),
	)
}

// stringProp reads a string field, falling back when the field is
// missing, null or empty
func stringProp(m map[string]interface{}, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
