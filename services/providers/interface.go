package providers

import (
	"context"

	"waypoint/models"
)

// Provider returns candidate records for one domain.
type Provider interface {
	Fetch(ctx context.Context, req models.CollectionRequest) ([]models.Record, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req models.CollectionRequest) ([]models.Record, error)

func (f ProviderFunc) Fetch(ctx context.Context, req models.CollectionRequest) ([]models.Record, error) {
	return f(ctx, req)
}

// WeatherProvider returns the forecast for a destination and date range.
type WeatherProvider interface {
	Weather(ctx context.Context, req models.CollectionRequest) (models.Record, error)
}

// WeatherFunc adapts a function to WeatherProvider.
type WeatherFunc func(ctx context.Context, req models.CollectionRequest) (models.Record, error)

func (f WeatherFunc) Weather(ctx context.Context, req models.CollectionRequest) (models.Record, error) {
	return f(ctx, req)
}

// Registry wires a primary structured source and a secondary best-effort
// scraper per domain. Missing entries mean the tier is not configured.
type Registry struct {
	Primary   map[models.Domain]Provider
	Secondary map[models.Domain]Provider
	Weather   WeatherProvider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Primary:   make(map[models.Domain]Provider),
		Secondary: make(map[models.Domain]Provider),
	}
}

// PrimaryFor returns the primary provider of a domain or nil.
func (r *Registry) PrimaryFor(domain models.Domain) Provider {
	if r == nil {
		return nil
	}
	return r.Primary[domain]
}

// SecondaryFor returns the scraper of a domain or nil.
func (r *Registry) SecondaryFor(domain models.Domain) Provider {
	if r == nil {
		return nil
	}
	return r.Secondary[domain]
}
