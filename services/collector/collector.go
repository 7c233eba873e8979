package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"waypoint/models"
	"waypoint/services/cache"
	"waypoint/services/providers"
	"waypoint/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DataCollector gathers the six domain datasets for a trip. Each domain is
// read through the cache, falls back to its providers on a miss, and degrades
// to an empty dataset on failure.
type DataCollector struct {
	Cache     cache.Store
	Providers *providers.Registry
	Logger    *zap.Logger

	// DedupInFlight collapses concurrent misses on the same cache key into a
	// single live fetch.
	DedupInFlight bool

	group singleflight.Group
}

// NewDataCollector wires a collector. A nil logger uses the global one.
func NewDataCollector(store cache.Store, registry *providers.Registry, logger *zap.Logger, dedupInFlight bool) *DataCollector {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &DataCollector{
		Cache:         store,
		Providers:     registry,
		Logger:        logger,
		DedupInFlight: dedupInFlight,
	}
}

type fetchResult struct {
	records []models.Record
	weather models.Record
	source  models.CollectionSource
}

// CollectFlights returns flight candidates for the trip dates.
func (c *DataCollector) CollectFlights(ctx context.Context, req models.CollectionRequest) []models.Record {
	records, _ := c.collectRecords(ctx, models.DomainFlights, req)
	return records
}

// CollectHotels returns lodging candidates for the trip dates.
func (c *DataCollector) CollectHotels(ctx context.Context, req models.CollectionRequest) []models.Record {
	records, _ := c.collectRecords(ctx, models.DomainHotels, req)
	return records
}

// CollectAttractions returns points of interest for the destination.
func (c *DataCollector) CollectAttractions(ctx context.Context, req models.CollectionRequest) []models.Record {
	records, _ := c.collectRecords(ctx, models.DomainAttractions, req)
	return records
}

// CollectRestaurants returns dining candidates for the destination.
func (c *DataCollector) CollectRestaurants(ctx context.Context, req models.CollectionRequest) []models.Record {
	records, _ := c.collectRecords(ctx, models.DomainRestaurants, req)
	return records
}

// CollectTransportation returns local transport options for the destination.
func (c *DataCollector) CollectTransportation(ctx context.Context, req models.CollectionRequest) []models.Record {
	records, _ := c.collectRecords(ctx, models.DomainTransportation, req)
	return records
}

// CollectWeather returns the forecast for the trip dates.
func (c *DataCollector) CollectWeather(ctx context.Context, req models.CollectionRequest) models.Record {
	forecast, _ := c.collectWeather(ctx, req)
	return forecast
}

// CollectAll fans out every domain concurrently and waits for the slowest.
// It never fails: a domain that errors comes back empty.
func (c *DataCollector) CollectAll(ctx context.Context, req models.CollectionRequest) (models.CollectedData, models.CollectionReport) {
	c.Logger.Info("collecting trip data", zap.String("destination", req.Destination))

	data := models.NewCollectedData()
	report := make(models.CollectionReport, len(models.AllDomains))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, domain := range models.AllDomains {
		wg.Add(1)
		go func(domain models.Domain) {
			defer wg.Done()
			if domain == models.DomainWeather {
				forecast, source := c.collectWeather(ctx, req)
				mu.Lock()
				data.Weather = forecast
				report[domain] = models.DomainReport{Source: source, Count: len(forecast)}
				mu.Unlock()
				return
			}
			records, source := c.collectRecords(ctx, domain, req)
			mu.Lock()
			data.SetRecords(domain, records)
			report[domain] = models.DomainReport{Source: source, Count: len(records)}
			mu.Unlock()
		}(domain)
	}
	wg.Wait()

	c.Logger.Info("trip data collected",
		zap.String("destination", req.Destination),
		zap.Any("report", report),
	)
	return data, report
}

// collectRecords runs cache -> primary -> secondary -> cache write for a list
// domain. It never returns nil.
func (c *DataCollector) collectRecords(ctx context.Context, domain models.Domain, req models.CollectionRequest) ([]models.Record, models.CollectionSource) {
	res := c.run(ctx, domain, req, func() (fetchResult, error) {
		return c.fetchRecords(ctx, domain, req)
	})
	if res.records == nil {
		res.records = []models.Record{}
	}
	return res.records, res.source
}

func (c *DataCollector) collectWeather(ctx context.Context, req models.CollectionRequest) (models.Record, models.CollectionSource) {
	res := c.run(ctx, models.DomainWeather, req, func() (fetchResult, error) {
		return c.fetchWeather(ctx, req)
	})
	if res.weather == nil {
		res.weather = models.Record{}
	}
	return res.weather, res.source
}

// run isolates one domain retrieval: errors and panics become an empty
// result tagged failed. Concurrent identical keys share one fetch when
// DedupInFlight is set; every caller gets its own copy.
func (c *DataCollector) run(ctx context.Context, domain models.Domain, req models.CollectionRequest, fetch func() (fetchResult, error)) (res fetchResult) {
	logger := c.Logger.With(zap.String("domain", string(domain)), zap.String("destination", req.Destination))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("domain collection panicked", zap.Any("panic", r))
			res = fetchResult{source: models.SourceFailed}
		}
	}()

	var err error
	if c.DedupInFlight {
		var v interface{}
		v, err, _ = c.group.Do(req.CacheKey(domain), func() (interface{}, error) {
			return fetch()
		})
		if err == nil {
			shared := v.(fetchResult)
			res = fetchResult{
				records: models.CloneRecords(shared.records),
				weather: shared.weather.Clone(),
				source:  shared.source,
			}
		}
	} else {
		res, err = fetch()
	}
	if err != nil {
		logger.Warn("domain collection failed, using empty dataset", zap.Error(err))
		return fetchResult{source: models.SourceFailed}
	}
	return res
}

func (c *DataCollector) fetchRecords(ctx context.Context, domain models.Domain, req models.CollectionRequest) (fetchResult, error) {
	key := req.CacheKey(domain)
	logger := c.Logger.With(zap.String("domain", string(domain)), zap.String("key", key))

	var cached []models.Record
	if c.readCache(ctx, key, &cached, logger) && len(cached) > 0 {
		logger.Debug("serving cached dataset", zap.Int("count", len(cached)))
		return fetchResult{records: cached, source: models.SourceCache}, nil
	}

	var records []models.Record
	if primary := c.Providers.PrimaryFor(domain); primary != nil {
		fetched, err := primary.Fetch(ctx, req)
		if err != nil {
			return fetchResult{}, fmt.Errorf("primary %s provider: %w", domain, err)
		}
		records = append(records, fetched...)
	}

	if threshold := SufficiencyThreshold(domain); threshold > 0 && len(records) < threshold {
		if secondary := c.Providers.SecondaryFor(domain); secondary != nil {
			scraped, err := secondary.Fetch(ctx, req)
			if err != nil {
				return fetchResult{}, fmt.Errorf("secondary %s provider: %w", domain, err)
			}
			records = append(records, scraped...)
		}
	}
	records = dropNil(records)

	c.writeCache(ctx, key, records, TTL(domain), logger)
	logger.Info("collected live dataset", zap.Int("count", len(records)))
	return fetchResult{records: records, source: models.SourceLive}, nil
}

func (c *DataCollector) fetchWeather(ctx context.Context, req models.CollectionRequest) (fetchResult, error) {
	key := req.CacheKey(models.DomainWeather)
	logger := c.Logger.With(zap.String("domain", string(models.DomainWeather)), zap.String("key", key))

	var cached models.Record
	if c.readCache(ctx, key, &cached, logger) && len(cached) > 0 {
		return fetchResult{weather: cached, source: models.SourceCache}, nil
	}

	forecast := models.Record{}
	if c.Providers != nil && c.Providers.Weather != nil {
		fetched, err := c.Providers.Weather.Weather(ctx, req)
		if err != nil {
			return fetchResult{}, fmt.Errorf("weather provider: %w", err)
		}
		if fetched != nil {
			forecast = fetched
		}
	}

	c.writeCache(ctx, key, forecast, TTL(models.DomainWeather), logger)
	return fetchResult{weather: forecast, source: models.SourceLive}, nil
}

// readCache reports a hit. Read errors are logged and treated as a miss so
// the domain still gets a live fetch.
func (c *DataCollector) readCache(ctx context.Context, key string, dest interface{}, logger *zap.Logger) bool {
	if c.Cache == nil {
		return false
	}
	hit, err := c.Cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("cache read failed", zap.Error(err))
		return false
	}
	return hit
}

// writeCache stores a fresh dataset. A failed write is logged and the data is
// still served.
func (c *DataCollector) writeCache(ctx context.Context, key string, value interface{}, ttl time.Duration, logger *zap.Logger) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("cache write failed", zap.Error(err))
	}
}

func dropNil(records []models.Record) []models.Record {
	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
