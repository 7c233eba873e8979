package models

import (
	"strings"
	"time"
)

// Domain names one of the six collected data categories.
type Domain string

const (
	DomainFlights        Domain = "flights"
	DomainHotels         Domain = "hotels"
	DomainAttractions    Domain = "attractions"
	DomainWeather        Domain = "weather"
	DomainRestaurants    Domain = "restaurants"
	DomainTransportation Domain = "transportation"
)

// AllDomains lists the domains in collection order.
var AllDomains = []Domain{
	DomainFlights,
	DomainHotels,
	DomainAttractions,
	DomainWeather,
	DomainRestaurants,
	DomainTransportation,
}

// DateLayout is the calendar date format used across the pipeline.
const DateLayout = "2006-01-02"

// CollectionRequest is the immutable input of one collection run.
type CollectionRequest struct {
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// CacheKey builds "<domain>:<destination>" and appends the date pair for the
// date-sensitive domains.
func (r CollectionRequest) CacheKey(domain Domain) string {
	parts := []string{string(domain), strings.ToLower(strings.TrimSpace(r.Destination))}
	switch domain {
	case DomainFlights, DomainHotels, DomainWeather:
		parts = append(parts, r.StartDate.Format(DateLayout), r.EndDate.Format(DateLayout))
	}
	return strings.Join(parts, ":")
}

// CollectedData holds every domain dataset of one collection run. Fields are
// never nil once built through NewCollectedData.
type CollectedData struct {
	Flights        []Record `json:"flights"`
	Hotels         []Record `json:"hotels"`
	Attractions    []Record `json:"attractions"`
	Weather        Record   `json:"weather"`
	Restaurants    []Record `json:"restaurants"`
	Transportation []Record `json:"transportation"`
}

// NewCollectedData returns a dataset with every domain empty.
func NewCollectedData() CollectedData {
	return CollectedData{
		Flights:        []Record{},
		Hotels:         []Record{},
		Attractions:    []Record{},
		Weather:        Record{},
		Restaurants:    []Record{},
		Transportation: []Record{},
	}
}

// Records returns the list dataset for a domain. Weather is not a list and
// yields nil.
func (d CollectedData) Records(domain Domain) []Record {
	switch domain {
	case DomainFlights:
		return d.Flights
	case DomainHotels:
		return d.Hotels
	case DomainAttractions:
		return d.Attractions
	case DomainRestaurants:
		return d.Restaurants
	case DomainTransportation:
		return d.Transportation
	}
	return nil
}

// SetRecords replaces the list dataset of a domain.
func (d *CollectedData) SetRecords(domain Domain, records []Record) {
	if records == nil {
		records = []Record{}
	}
	switch domain {
	case DomainFlights:
		d.Flights = records
	case DomainHotels:
		d.Hotels = records
	case DomainAttractions:
		d.Attractions = records
	case DomainRestaurants:
		d.Restaurants = records
	case DomainTransportation:
		d.Transportation = records
	}
}

// CollectionSource tells where a domain dataset came from.
type CollectionSource string

const (
	SourceCache  CollectionSource = "cache"
	SourceLive   CollectionSource = "live"
	SourceFailed CollectionSource = "failed"
)

// DomainReport describes how one domain was collected.
type DomainReport struct {
	Source CollectionSource `json:"source"`
	Count  int              `json:"count"`
}

// CollectionReport is per-domain collection metadata.
type CollectionReport map[Domain]DomainReport
