package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"waypoint/models"
)

// HTTPSource is a JSON-over-HTTP data source. Each domain is served at
// <BaseURL>/<domain>?destination=..&start_date=..&end_date=..
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a source with a client bound to timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// envelope accepts both a bare array and {"data": [...]} bodies.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Domain returns a Provider for one domain of this source.
func (s *HTTPSource) Domain(domain models.Domain) Provider {
	return ProviderFunc(func(ctx context.Context, req models.CollectionRequest) ([]models.Record, error) {
		body, err := s.get(ctx, domain, req)
		if err != nil {
			return nil, err
		}
		var records []models.Record
		if err := json.Unmarshal(body, &records); err == nil {
			return records, nil
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", domain, err)
		}
		if len(env.Data) == 0 {
			return []models.Record{}, nil
		}
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", domain, err)
		}
		return records, nil
	})
}

// Weather implements WeatherProvider.
func (s *HTTPSource) Weather(ctx context.Context, req models.CollectionRequest) (models.Record, error) {
	body, err := s.get(ctx, models.DomainWeather, req)
	if err != nil {
		return nil, err
	}
	var forecast models.Record
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return forecast, nil
}

func (s *HTTPSource) get(ctx context.Context, domain models.Domain, req models.CollectionRequest) ([]byte, error) {
	q := url.Values{}
	q.Set("destination", req.Destination)
	if !req.StartDate.IsZero() {
		q.Set("start_date", req.StartDate.Format(models.DateLayout))
	}
	if !req.EndDate.IsZero() {
		q.Set("end_date", req.EndDate.Format(models.DateLayout))
	}
	endpoint := fmt.Sprintf("%s/%s?%s", s.BaseURL, domain, q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s provider returned status %d", domain, resp.StatusCode)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding response failed: %w", err)
	}
	return raw, nil
}

// NewHTTPRegistry builds a registry from a primary and a scraper base URL.
// An empty URL leaves that tier unconfigured.
func NewHTTPRegistry(primaryURL, scraperURL string, timeout time.Duration) *Registry {
	reg := NewRegistry()
	if primaryURL != "" {
		primary := NewHTTPSource(primaryURL, timeout)
		for _, d := range models.AllDomains {
			if d == models.DomainWeather {
				continue
			}
			reg.Primary[d] = primary.Domain(d)
		}
		reg.Weather = primary
	}
	if scraperURL != "" {
		scraper := NewHTTPSource(scraperURL, timeout)
		for _, d := range models.AllDomains {
			if d == models.DomainWeather {
				continue
			}
			reg.Secondary[d] = scraper.Domain(d)
		}
	}
	return reg
}
