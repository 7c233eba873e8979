package collector

import (
	"context"
	"fmt"
	"time"

	"waypoint/models"

	"go.uber.org/zap"
)

// ClearDomainCache evicts every cached dataset of the given domains, or of all
// domains when none are given. It returns the number of evicted keys.
func (c *DataCollector) ClearDomainCache(ctx context.Context, domains ...models.Domain) (int, error) {
	if c.Cache == nil {
		return 0, nil
	}
	if len(domains) == 0 {
		domains = models.AllDomains
	}
	total := 0
	for _, domain := range domains {
		n, err := c.Cache.DeleteMatching(ctx, fmt.Sprintf("%s:*", domain))
		if err != nil {
			return total, fmt.Errorf("clear %s cache: %w", domain, err)
		}
		total += n
	}
	c.Logger.Info("domain cache cleared", zap.Any("domains", domains), zap.Int("evicted", total))
	return total, nil
}

// RefreshDestination drops the date-independent datasets of a destination
// and collects them again so the next planning run hits a warm cache.
func (c *DataCollector) RefreshDestination(ctx context.Context, destination string) models.CollectionReport {
	now := time.Now().UTC()
	req := models.CollectionRequest{
		Destination: destination,
		StartDate:   now,
		EndDate:     now.AddDate(0, 0, 1),
	}
	report := make(models.CollectionReport)
	for _, domain := range []models.Domain{models.DomainAttractions, models.DomainRestaurants, models.DomainTransportation} {
		if c.Cache != nil {
			if _, err := c.Cache.Delete(ctx, req.CacheKey(domain)); err != nil {
				c.Logger.Warn("refresh eviction failed", zap.String("domain", string(domain)), zap.Error(err))
			}
		}
		records, source := c.collectRecords(ctx, domain, req)
		report[domain] = models.DomainReport{Source: source, Count: len(records)}
	}
	c.Logger.Info("destination refreshed", zap.String("destination", destination), zap.Any("report", report))
	return report
}
