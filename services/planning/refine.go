package planning

import (
	"sort"
	"strings"
	"time"

	"waypoint/models"

	"go.uber.org/zap"
)

const (
	RefineBudget   = "budget_adjustment"
	RefineTiming   = "time_preference"
	RefineActivity = "activity_preference"

	maxBudgetFactor = 5.0
)

// RefinePlan applies the known refinements to a copy of variant, then stamps
// refined_at and records the payload. Unknown keys and unrecognized values
// leave the variant unchanged.
func (g *PlanGenerator) RefinePlan(variant models.PlanVariant, refinements map[string]interface{}) models.PlanVariant {
	refined := copyVariant(variant)

	if v, ok := refinements[RefineBudget]; ok {
		if !adjustBudget(&refined, v) {
			g.Logger.Debug("ignoring budget adjustment", zap.Any("value", v))
		}
	}
	if v, ok := refinements[RefineTiming]; ok {
		if !adjustTiming(&refined, v) {
			g.Logger.Debug("ignoring time preference", zap.Any("value", v))
		}
	}
	if v, ok := refinements[RefineActivity]; ok {
		if !adjustActivities(&refined, v) {
			g.Logger.Debug("ignoring activity preference", zap.Any("value", v))
		}
	}

	now := g.clock().UTC()
	refined.RefinedAt = &now
	refined.Refinements = make(map[string]interface{}, len(refinements))
	for k, v := range refinements {
		refined.Refinements[k] = v
	}
	return refined
}

func (g *PlanGenerator) clock() time.Time {
	if g.now == nil {
		return time.Now()
	}
	return g.now()
}

// adjustBudget scales the attraction and meal spend by a numeric factor.
func adjustBudget(v *models.PlanVariant, raw interface{}) bool {
	factor, ok := models.Record{"f": raw}.Float("f")
	if !ok || factor <= 0 || factor > maxBudgetFactor {
		return false
	}
	for i := range v.DailyItineraries {
		v.DailyItineraries[i].EstimatedCost *= factor
	}
	v.TotalCost.Attractions *= factor
	v.TotalCost.Meals *= factor
	v.TotalCost.Sum()
	return true
}

// adjustTiming moves every meal one hour earlier or later.
func adjustTiming(v *models.PlanVariant, raw interface{}) bool {
	pref, _ := raw.(string)
	var shift int
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "early":
		shift = -1
	case "late":
		shift = 1
	default:
		return false
	}
	for i := range v.DailyItineraries {
		for j := range v.DailyItineraries[i].Meals {
			meal := &v.DailyItineraries[i].Meals[j]
			meal.Time = shiftClock(meal.Time, shift)
		}
	}
	return true
}

func shiftClock(clock string, hours int) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Add(time.Duration(hours) * time.Hour).Format("15:04")
}

// adjustActivities moves attractions matching the keyword to the front of
// each day, keeping relative order otherwise.
func adjustActivities(v *models.PlanVariant, raw interface{}) bool {
	pref, _ := raw.(string)
	keyword := strings.ToLower(strings.TrimSpace(pref))
	if keyword == "" {
		return false
	}
	for i := range v.DailyItineraries {
		attractions := v.DailyItineraries[i].Attractions
		sort.SliceStable(attractions, func(a, b int) bool {
			return matchesAny(attractions[a].Text(), []string{keyword}) &&
				!matchesAny(attractions[b].Text(), []string{keyword})
		})
	}
	return true
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func copyVariant(v models.PlanVariant) models.PlanVariant {
	out := v
	out.Flight = v.Flight.Clone()
	out.Hotel = v.Hotel.Clone()
	out.Restaurants = models.CloneRecords(v.Restaurants)
	out.Transportation = models.CloneRecords(v.Transportation)
	if v.DailyItineraries != nil {
		out.DailyItineraries = make([]models.DailyItinerary, len(v.DailyItineraries))
		for i, day := range v.DailyItineraries {
			day.Attractions = models.CloneRecords(day.Attractions)
			day.Meals = append([]models.Meal(nil), day.Meals...)
			out.DailyItineraries[i] = day
		}
	}
	if v.DailyDetails != nil {
		out.DailyDetails = make(map[string][]models.Record, len(v.DailyDetails))
		for k, entries := range v.DailyDetails {
			out.DailyDetails[k] = models.CloneRecords(entries)
		}
	}
	return out
}
