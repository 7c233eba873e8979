package collector

import (
	"time"

	"waypoint/models"
)

// domainPolicy is the sufficiency threshold and cache TTL of a domain. When
// the primary provider returns fewer than threshold records the secondary
// scraper is queried as well. A zero threshold never queries the scraper.
type domainPolicy struct {
	threshold int
	ttl       time.Duration
}

var policies = map[models.Domain]domainPolicy{
	models.DomainFlights:        {threshold: 5, ttl: time.Hour},
	models.DomainHotels:         {threshold: 10, ttl: 2 * time.Hour},
	models.DomainAttractions:    {threshold: 20, ttl: 24 * time.Hour},
	models.DomainWeather:        {threshold: 0, ttl: 30 * time.Minute},
	models.DomainRestaurants:    {threshold: 15, ttl: 12 * time.Hour},
	models.DomainTransportation: {threshold: 10, ttl: 24 * time.Hour},
}

// TTL returns the cache lifetime of a domain.
func TTL(domain models.Domain) time.Duration {
	return policies[domain].ttl
}

// SufficiencyThreshold returns the minimum primary record count of a domain.
func SufficiencyThreshold(domain models.Domain) int {
	return policies[domain].threshold
}
