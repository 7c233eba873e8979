package scorer

import (
	"context"
	"math"
	"strings"

	"waypoint/models"
)

// Scorer rates a generated variant for a trip. Higher is better.
type Scorer interface {
	Score(ctx context.Context, variant models.PlanVariant, trip models.TripContext, preferences map[string]interface{}) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, variant models.PlanVariant, trip models.TripContext, preferences map[string]interface{}) (float64, error)

func (f ScorerFunc) Score(ctx context.Context, variant models.PlanVariant, trip models.TripContext, preferences map[string]interface{}) (float64, error) {
	return f(ctx, variant, trip, preferences)
}

// Weights of the DefaultScorer components. They sum to 100.
const (
	budgetWeight     = 40.0
	ratingWeight     = 30.0
	coverageWeight   = 20.0
	preferenceWeight = 10.0
	maxRating        = 5.0
)

// DefaultScorer combines budget fit, lodging and flight ratings, attraction
// coverage and preference keyword matches into a 0..100 score.
type DefaultScorer struct{}

func (DefaultScorer) Score(ctx context.Context, variant models.PlanVariant, trip models.TripContext, preferences map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	score := budgetFit(variant.TotalCost.Total, trip.Budget)*budgetWeight +
		ratingFit(variant)*ratingWeight +
		coverage(variant)*coverageWeight +
		preferenceFit(variant, preferences)*preferenceWeight
	return math.Round(score*100) / 100, nil
}

// budgetFit is 1 within budget and falls linearly to 0 at twice the budget.
// Without a budget it is neutral.
func budgetFit(total, budget float64) float64 {
	if budget <= 0 {
		return 0.5
	}
	if total <= budget {
		return 1
	}
	return math.Max(0, 1-(total-budget)/budget)
}

func ratingFit(v models.PlanVariant) float64 {
	var sum float64
	var n int
	for _, r := range []models.Record{v.Hotel, v.Flight} {
		if r == nil {
			continue
		}
		if rating, ok := r.Float("rating"); ok {
			sum += math.Min(math.Max(rating, 0), maxRating)
			n++
		}
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n) / maxRating
}

// coverage is the share of days with at least one attraction.
func coverage(v models.PlanVariant) float64 {
	if len(v.DailyItineraries) == 0 {
		return 0
	}
	covered := 0
	for _, day := range v.DailyItineraries {
		if len(day.Attractions) > 0 {
			covered++
		}
	}
	return float64(covered) / float64(len(v.DailyItineraries))
}

func preferenceFit(v models.PlanVariant, preferences map[string]interface{}) float64 {
	keywords := PreferenceKeywords(preferences)
	if len(keywords) == 0 {
		return 0.5
	}
	var text strings.Builder
	text.WriteString(strings.ToLower(v.Type + " " + v.Label + " "))
	for _, day := range v.DailyItineraries {
		for _, attr := range day.Attractions {
			text.WriteString(attr.Text())
			text.WriteByte(' ')
		}
	}
	haystack := text.String()
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// PreferenceKeywords reads interest keywords from the "interests" and
// "activity_preference" preference entries.
func PreferenceKeywords(preferences map[string]interface{}) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, key := range []string{"interests", "activity_preference"} {
		switch t := preferences[key].(type) {
		case string:
			for _, part := range strings.Split(t, ",") {
				add(part)
			}
		case []string:
			for _, s := range t {
				add(s)
			}
		case []interface{}:
			for _, item := range t {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}
	return out
}
