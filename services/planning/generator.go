package planning

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"waypoint/models"
	"waypoint/utils"

	"go.uber.org/zap"
)

const (
	MealUnitCost           = 50.0
	DailyTransportEstimate = 20.0
	mealsPerDay            = 3
	transportOptions       = 3
	// minKeywordMatches is the smallest filtered attraction set an archetype
	// keeps before falling back to every attraction.
	minKeywordMatches = 3
)

// PlanGenerator derives one itinerary variant per archetype from the same
// collected data. Arbitrary choices draw from an injected random source so a
// fixed seed reproduces a run.
type PlanGenerator struct {
	Archetypes []Archetype
	Logger     *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewPlanGenerator builds a generator. A zero seed seeds from the clock.
func NewPlanGenerator(archetypes []Archetype, seed int64, logger *zap.Logger) *PlanGenerator {
	if len(archetypes) == 0 {
		archetypes = DefaultArchetypes()
	}
	if len(archetypes) > MaxArchetypes {
		archetypes = archetypes[:MaxArchetypes]
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &PlanGenerator{
		Archetypes: archetypes,
		Logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
		now:        time.Now,
	}
}

// GeneratePlans builds a variant per archetype in archetype order. Inputs are
// never modified; every variant owns copies of the records it selected.
func (g *PlanGenerator) GeneratePlans(data models.CollectedData, trip models.TripContext, preferences map[string]interface{}) []models.PlanVariant {
	g.mu.Lock()
	defer g.mu.Unlock()

	days := TripDays(trip)
	g.Logger.Info("generating plan variants",
		zap.String("destination", trip.Destination),
		zap.Int("days", days),
		zap.Int("archetypes", len(g.Archetypes)),
	)

	variants := make([]models.PlanVariant, 0, len(g.Archetypes))
	for i, a := range g.Archetypes {
		variants = append(variants, g.buildVariant(i, a, data, trip, days))
	}
	return variants
}

func (g *PlanGenerator) buildVariant(index int, a Archetype, data models.CollectedData, trip models.TripContext, days int) models.PlanVariant {
	itineraries := g.dailyItineraries(a, data.Attractions, trip.StartDate, days)
	v := models.PlanVariant{
		ID:               fmt.Sprintf("plan_%d", index),
		Type:             a.ID,
		Label:            a.Label,
		Title:            fmt.Sprintf("%s %s itinerary", trip.Destination, a.Label),
		Description:      a.Description,
		Flight:           g.pickOne(data.Flights, a.Flight, models.Record.Price).Clone(),
		Hotel:            g.pickOne(data.Hotels, a.Hotel, models.Record.PricePerNight).Clone(),
		DailyItineraries: itineraries,
		Restaurants:      models.CloneRecords(g.selectRestaurants(data.Restaurants, a.Restaurants, len(itineraries))),
		Transportation:   models.CloneRecords(window(data.Transportation, 0, transportOptions)),
		DurationDays:     days,
		GeneratedAt:      g.now().UTC(),
	}
	if v.Restaurants == nil {
		v.Restaurants = []models.Record{}
	}
	if v.Transportation == nil {
		v.Transportation = []models.Record{}
	}
	v.TotalCost = CalculateCost(v.Flight, v.Hotel, v.DailyItineraries)
	return v
}

// pickOne applies a flight/hotel rule. Ties keep the earliest record.
func (g *PlanGenerator) pickOne(records []models.Record, rule SelectionRule, price func(models.Record) float64) models.Record {
	if len(records) == 0 {
		return nil
	}
	switch rule {
	case RuleCheapest:
		best := records[0]
		for _, r := range records[1:] {
			if price(r) < price(best) {
				best = r
			}
		}
		return best
	case RuleTopRated:
		best := records[0]
		for _, r := range records[1:] {
			if r.Rating() > best.Rating() {
				best = r
			}
		}
		return best
	default:
		return records[g.rng.Intn(len(records))]
	}
}

func (g *PlanGenerator) selectRestaurants(restaurants []models.Record, rule SelectionRule, days int) []models.Record {
	if len(restaurants) == 0 || days <= 0 {
		return nil
	}
	n := days
	if n > len(restaurants) {
		n = len(restaurants)
	}
	switch rule {
	case RuleCheapest:
		sorted := append([]models.Record(nil), restaurants...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].PriceRangeLevel() < sorted[j].PriceRangeLevel()
		})
		return sorted[:n]
	case RuleTopRated:
		sorted := append([]models.Record(nil), restaurants...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Rating() > sorted[j].Rating()
		})
		return sorted[:n]
	default:
		perm := g.rng.Perm(len(restaurants))[:n]
		out := make([]models.Record, n)
		for i, idx := range perm {
			out[i] = restaurants[idx]
		}
		return out
	}
}

// FilterAttractions keeps attractions mentioning any keyword in their name,
// category or description. Fewer than three matches returns the full list.
func FilterAttractions(attractions []models.Record, keywords []string) []models.Record {
	if len(keywords) == 0 {
		return attractions
	}
	var filtered []models.Record
	for _, attr := range attractions {
		if matchesAny(attr.Text(), keywords) {
			filtered = append(filtered, attr)
		}
	}
	if len(filtered) < minKeywordMatches {
		return attractions
	}
	return filtered
}

func (g *PlanGenerator) dailyItineraries(a Archetype, attractions []models.Record, start time.Time, days int) []models.DailyItinerary {
	if days <= 0 {
		return []models.DailyItinerary{}
	}
	buckets := Distribute(FilterAttractions(attractions, a.Keywords), days)
	startDate := FormatStartDate(start)

	out := make([]models.DailyItinerary, days)
	for day := 0; day < days; day++ {
		selected := models.CloneRecords(buckets[day])
		if selected == nil {
			selected = []models.Record{}
		}
		cost := 0.0
		for _, attr := range selected {
			cost += attr.FinitePrice()
		}
		out[day] = models.DailyItinerary{
			Day:            day + 1,
			Date:           CalculateDate(startDate, day),
			Attractions:    selected,
			Meals:          MealSkeleton(),
			Transportation: "metro/bus",
			EstimatedCost:  cost,
		}
	}
	return out
}

// Distribute splits records into days contiguous buckets of near equal size.
// The first len%days buckets get one extra record.
func Distribute(records []models.Record, days int) [][]models.Record {
	if days <= 0 {
		return nil
	}
	buckets := make([][]models.Record, days)
	per, extra := len(records)/days, len(records)%days
	pos := 0
	for day := 0; day < days; day++ {
		n := per
		if day < extra {
			n++
		}
		buckets[day] = records[pos : pos+n]
		pos += n
	}
	return buckets
}

// MealSkeleton is the fixed breakfast/lunch/dinner plan of a day.
func MealSkeleton() []models.Meal {
	return []models.Meal{
		{Type: "breakfast", Time: "08:00", Suggestion: "Hotel breakfast or a local breakfast spot"},
		{Type: "lunch", Time: "12:00", Suggestion: "Local speciality restaurant"},
		{Type: "dinner", Time: "18:00", Suggestion: "Recommended restaurant or street food"},
	}
}

// CalculateCost aggregates the cost lines of a variant. Unpriced records
// count as zero.
func CalculateCost(flight, hotel models.Record, itineraries []models.DailyItinerary) models.CostBreakdown {
	days := float64(len(itineraries))
	var c models.CostBreakdown
	if flight != nil {
		c.Flight = flight.FinitePrice()
	}
	if hotel != nil {
		c.Hotel = models.Finite(hotel.PricePerNight()) * days
	}
	for _, day := range itineraries {
		c.Attractions += day.EstimatedCost
	}
	c.Meals = days * mealsPerDay * MealUnitCost
	c.Transportation = days * DailyTransportEstimate
	c.Sum()
	return c
}

// TripDays is the trip length. Without an explicit duration it counts the
// calendar days between the start and end dates, inclusive.
func TripDays(trip models.TripContext) int {
	if trip.DurationDays > 0 {
		return trip.DurationDays
	}
	if trip.StartDate.IsZero() || trip.EndDate.IsZero() || trip.EndDate.Before(trip.StartDate) {
		return 0
	}
	return int(trip.EndDate.Sub(trip.StartDate).Hours()/24) + 1
}

// GenerateRecommendations returns the standing travel advice of a plan.
func GenerateRecommendations(trip models.TripContext) []models.Recommendation {
	return []models.Recommendation{
		{Type: "weather", Content: "Check the local forecast and plan outdoor activities around it.", Priority: "high"},
		{Type: "booking", Content: "Book tickets for popular attractions in advance to avoid queues.", Priority: "medium"},
		{Type: "safety", Content: "Keep your belongings secure and stay aware of your surroundings.", Priority: "high"},
	}
}
