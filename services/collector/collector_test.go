package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"waypoint/models"
	"waypoint/services/cache"
	"waypoint/services/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRequest() models.CollectionRequest {
	return models.CollectionRequest{
		Destination: "Kyoto",
		StartDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
}

func countingProvider(calls *int32, records []models.Record, err error) providers.Provider {
	return providers.ProviderFunc(func(ctx context.Context, req models.CollectionRequest) ([]models.Record, error) {
		atomic.AddInt32(calls, 1)
		return models.CloneRecords(records), err
	})
}

func named(names ...string) []models.Record {
	out := make([]models.Record, 0, len(names))
	for _, n := range names {
		out = append(out, models.Record{"name": n})
	}
	return out
}

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, errors.New("cache down")
}

func (failingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("cache down")
}

func (failingStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	return 0, errors.New("cache down")
}

func (failingStore) Delete(ctx context.Context, keys ...string) (int, error) {
	return 0, errors.New("cache down")
}

// recordingStore wraps MemoryStore and keeps the TTL of every write.
type recordingStore struct {
	*cache.MemoryStore
	ttls map[string]time.Duration
}

func (s *recordingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.ttls[key] = ttl
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func TestCollectHotels_CacheHitSkipsProviders(t *testing.T) {
	ctx := context.Background()
	req := testRequest()
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(ctx, req.CacheKey(models.DomainHotels), named("Cached Inn"), time.Hour))

	var primaryCalls, secondaryCalls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainHotels] = countingProvider(&primaryCalls, named("Live Inn"), nil)
	reg.Secondary[models.DomainHotels] = countingProvider(&secondaryCalls, named("Scraped Inn"), nil)

	c := NewDataCollector(store, reg, zap.NewNop(), false)
	hotels := c.CollectHotels(ctx, req)

	require.Len(t, hotels, 1)
	assert.Equal(t, "Cached Inn", hotels[0].Name())
	assert.Zero(t, primaryCalls)
	assert.Zero(t, secondaryCalls)
}

func TestCollectAttractions_SecondaryBelowThreshold(t *testing.T) {
	ctx := context.Background()
	var primaryCalls, secondaryCalls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainAttractions] = countingProvider(&primaryCalls, named("A", "B", "C"), nil)
	reg.Secondary[models.DomainAttractions] = countingProvider(&secondaryCalls, named("D", "E"), nil)

	c := NewDataCollector(cache.NewMemoryStore(), reg, zap.NewNop(), false)
	attractions := c.CollectAttractions(ctx, testRequest())

	assert.Len(t, attractions, 5)
	assert.Equal(t, "A", attractions[0].Name())
	assert.Equal(t, "E", attractions[4].Name())
	assert.EqualValues(t, 1, primaryCalls)
	assert.EqualValues(t, 1, secondaryCalls)
}

func TestCollectFlights_SecondarySkippedAtThreshold(t *testing.T) {
	ctx := context.Background()
	var primaryCalls, secondaryCalls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainFlights] = countingProvider(&primaryCalls, named("F1", "F2", "F3", "F4", "F5"), nil)
	reg.Secondary[models.DomainFlights] = countingProvider(&secondaryCalls, named("F6"), nil)

	c := NewDataCollector(cache.NewMemoryStore(), reg, zap.NewNop(), false)
	flights := c.CollectFlights(ctx, testRequest())

	assert.Len(t, flights, 5)
	assert.Zero(t, secondaryCalls)
}

func TestCollect_LiveResultIsCachedWithDomainTTL(t *testing.T) {
	ctx := context.Background()
	req := testRequest()
	store := &recordingStore{MemoryStore: cache.NewMemoryStore(), ttls: map[string]time.Duration{}}

	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainRestaurants] = countingProvider(&calls, named("Noodle Bar"), nil)
	reg.Weather = providers.WeatherFunc(func(ctx context.Context, req models.CollectionRequest) (models.Record, error) {
		return models.Record{"summary": "sunny"}, nil
	})

	c := NewDataCollector(store, reg, zap.NewNop(), false)
	c.CollectRestaurants(ctx, req)
	c.CollectWeather(ctx, req)

	assert.Equal(t, 12*time.Hour, store.ttls[req.CacheKey(models.DomainRestaurants)])
	assert.Equal(t, 30*time.Minute, store.ttls[req.CacheKey(models.DomainWeather)])

	// second call is served from cache
	again := c.CollectRestaurants(ctx, req)
	assert.Len(t, again, 1)
	assert.EqualValues(t, 1, calls)
}

func TestCollect_EmptyCachedDatasetIsAMiss(t *testing.T) {
	ctx := context.Background()
	req := testRequest()
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(ctx, req.CacheKey(models.DomainTransportation), []models.Record{}, time.Hour))

	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainTransportation] = countingProvider(&calls, named("Metro"), nil)

	c := NewDataCollector(store, reg, zap.NewNop(), false)
	got := c.CollectTransportation(ctx, req)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 1, calls)
}

func TestCollectAll_ToleratesFailures(t *testing.T) {
	ctx := context.Background()
	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainFlights] = countingProvider(&calls, nil, errors.New("upstream 500"))
	reg.Primary[models.DomainHotels] = providers.ProviderFunc(func(ctx context.Context, req models.CollectionRequest) ([]models.Record, error) {
		panic("bad payload")
	})
	reg.Primary[models.DomainAttractions] = countingProvider(&calls, named("Temple"), nil)
	reg.Weather = providers.WeatherFunc(func(ctx context.Context, req models.CollectionRequest) (models.Record, error) {
		return nil, errors.New("timeout")
	})

	c := NewDataCollector(cache.NewMemoryStore(), reg, zap.NewNop(), false)
	data, report := c.CollectAll(ctx, testRequest())

	assert.NotNil(t, data.Flights)
	assert.Empty(t, data.Flights)
	assert.Empty(t, data.Hotels)
	assert.NotNil(t, data.Weather)
	assert.Empty(t, data.Weather)
	assert.Len(t, data.Attractions, 1)
	assert.Empty(t, data.Restaurants)
	assert.Empty(t, data.Transportation)

	assert.Equal(t, models.SourceFailed, report[models.DomainFlights].Source)
	assert.Equal(t, models.SourceFailed, report[models.DomainHotels].Source)
	assert.Equal(t, models.SourceFailed, report[models.DomainWeather].Source)
	assert.Equal(t, models.SourceLive, report[models.DomainAttractions].Source)
	assert.Len(t, report, len(models.AllDomains))
}

func TestCollect_CacheErrorsFallThrough(t *testing.T) {
	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainHotels] = countingProvider(&calls, named("Harbor Hotel"), nil)

	c := NewDataCollector(failingStore{}, reg, zap.NewNop(), false)
	hotels := c.CollectHotels(context.Background(), testRequest())
	assert.Len(t, hotels, 1)
}

func TestCollectAll_DedupReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainAttractions] = countingProvider(&calls, named("Castle"), nil)

	c := NewDataCollector(nil, reg, zap.NewNop(), true)
	first := c.CollectAttractions(ctx, testRequest())
	first[0]["name"] = "mutated"
	second := c.CollectAttractions(ctx, testRequest())
	assert.Equal(t, "Castle", second[0].Name())
}

func TestCollectAll_SlowFailingDomainsRunConcurrently(t *testing.T) {
	const delay = 200 * time.Millisecond
	slow := providers.ProviderFunc(func(ctx context.Context, req models.CollectionRequest) ([]models.Record, error) {
		time.Sleep(delay)
		return nil, errors.New("upstream timeout")
	})
	reg := providers.NewRegistry()
	for _, domain := range models.AllDomains {
		if domain != models.DomainWeather {
			reg.Primary[domain] = slow
		}
	}
	reg.Weather = providers.WeatherFunc(func(ctx context.Context, req models.CollectionRequest) (models.Record, error) {
		time.Sleep(delay)
		return nil, errors.New("upstream timeout")
	})

	c := NewDataCollector(nil, reg, zap.NewNop(), false)
	start := time.Now()
	data, report := c.CollectAll(context.Background(), testRequest())
	elapsed := time.Since(start)

	assert.Less(t, int64(elapsed), int64(3*delay), "domains must not wait on each other")
	require.Len(t, report, len(models.AllDomains))
	for _, domain := range models.AllDomains {
		assert.Equal(t, models.SourceFailed, report[domain].Source, domain)
		assert.Zero(t, report[domain].Count, domain)
	}
	assert.NotNil(t, data.Weather)
	assert.Empty(t, data.Weather)
	for _, domain := range models.AllDomains {
		if domain == models.DomainWeather {
			continue
		}
		records := data.Records(domain)
		assert.NotNil(t, records, domain)
		assert.Empty(t, records, domain)
	}
}

func TestCollectAll_ConcurrentMissesShareOneFetch(t *testing.T) {
	const callers = 8
	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainHotels] = providers.ProviderFunc(func(ctx context.Context, req models.CollectionRequest) ([]models.Record, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(150 * time.Millisecond)
		return named("Harbor Hotel"), nil
	})

	// No cache: only the in-flight dedup can stop repeated fetches.
	c := NewDataCollector(nil, reg, zap.NewNop(), true)
	gate := make(chan struct{})
	results := make([][]models.Record, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			data, _ := c.CollectAll(context.Background(), testRequest())
			results[i] = data.Hotels
		}(i)
	}
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i, hotels := range results {
		require.Len(t, hotels, 1, "caller %d", i)
		assert.Equal(t, "Harbor Hotel", hotels[0].Name())
	}
	results[0][0]["name"] = "mutated"
	assert.Equal(t, "Harbor Hotel", results[1][0].Name())
}

func TestClearDomainCache(t *testing.T) {
	ctx := context.Background()
	req := testRequest()
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(ctx, req.CacheKey(models.DomainHotels), named("H"), time.Hour))
	require.NoError(t, store.Set(ctx, req.CacheKey(models.DomainFlights), named("F"), time.Hour))

	c := NewDataCollector(store, providers.NewRegistry(), zap.NewNop(), false)
	n, err := c.ClearDomainCache(ctx, models.DomainHotels)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var out []models.Record
	hit, err := store.Get(ctx, req.CacheKey(models.DomainFlights), &out)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestRefreshDestination(t *testing.T) {
	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainAttractions] = countingProvider(&calls, named("Shrine"), nil)

	c := NewDataCollector(cache.NewMemoryStore(), reg, zap.NewNop(), false)
	report := c.RefreshDestination(context.Background(), "Kyoto")
	assert.Equal(t, 1, report[models.DomainAttractions].Count)
	assert.Equal(t, models.SourceLive, report[models.DomainRestaurants].Source)
	assert.EqualValues(t, 1, calls)
}

func TestRefreshDestination_LiteralKeyEviction(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	stale := models.CollectionRequest{Destination: "Kyoto*"}
	sibling := models.CollectionRequest{Destination: "Kyoto Station"}
	require.NoError(t, store.Set(ctx, stale.CacheKey(models.DomainAttractions), named("Old Shrine"), time.Hour))
	require.NoError(t, store.Set(ctx, sibling.CacheKey(models.DomainAttractions), named("Platform"), time.Hour))

	var calls int32
	reg := providers.NewRegistry()
	reg.Primary[models.DomainAttractions] = countingProvider(&calls, named("New Shrine"), nil)

	c := NewDataCollector(store, reg, zap.NewNop(), false)
	report := c.RefreshDestination(ctx, "Kyoto*")
	assert.Equal(t, models.SourceLive, report[models.DomainAttractions].Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var fresh []models.Record
	hit, err := store.Get(ctx, stale.CacheKey(models.DomainAttractions), &fresh)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "New Shrine", fresh[0].Name())

	var kept []models.Record
	hit, err = store.Get(ctx, sibling.CacheKey(models.DomainAttractions), &kept)
	require.NoError(t, err)
	require.True(t, hit, "a glob-like destination must not evict other destinations")
	assert.Equal(t, "Platform", kept[0].Name())
}
