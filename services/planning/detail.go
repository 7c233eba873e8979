package planning

import (
	"context"

	"waypoint/models"
	"waypoint/services/intelligence"
	"waypoint/utils"

	"go.uber.org/zap"
)

const (
	ModuleAttractions    = "attractions"
	ModuleDining         = "dining"
	ModuleTransportation = "transportation"
	ModuleAccommodation  = "accommodation"
)

// DetailModules lists the per-day detail modules in the order they run.
var DetailModules = []string{ModuleAttractions, ModuleDining, ModuleTransportation, ModuleAccommodation}

// Detailer attaches model-written day-by-day details to the best ranked
// variants. Without a requester every day uses the deterministic fallback.
type Detailer struct {
	Requester   intelligence.Requester
	TopVariants int
	Logger      *zap.Logger
}

func NewDetailer(requester intelligence.Requester, topVariants int, logger *zap.Logger) *Detailer {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Detailer{Requester: requester, TopVariants: topVariants, Logger: logger}
}

// Detail fills DailyDetails on the first TopVariants variants in place.
func (d *Detailer) Detail(ctx context.Context, variants []models.PlanVariant, data models.CollectedData, trip models.TripContext) {
	n := d.TopVariants
	if n > len(variants) {
		n = len(variants)
	}
	for i := 0; i < n; i++ {
		d.detailVariant(ctx, &variants[i], data, trip)
	}
}

func (d *Detailer) detailVariant(ctx context.Context, v *models.PlanVariant, data models.CollectedData, trip models.TripContext) {
	days := len(v.DailyItineraries)
	if days == 0 {
		days = TripDays(trip)
	}
	var perDay *float64
	if trip.Budget > 0 && days > 0 {
		b := trip.Budget / float64(days)
		perDay = &b
	}

	v.DailyDetails = make(map[string][]models.Record, len(DetailModules))
	for _, module := range DetailModules {
		candidates := moduleCandidates(module, v, data)
		entries := GenerateDailyEntries(ctx, DailyOptions{
			Module:       module,
			TotalDays:    days,
			StartDate:    FormatStartDate(trip.StartDate),
			PerDayBudget: perDay,
			BuildPrompts: BuildPromptBuilder(module, trip, v, candidates),
			Requester:    d.Requester,
			Fallback:     fallbackFor(module, candidates),
		}, d.Logger.With(zap.String("variant", v.ID)))
		v.DailyDetails[module] = entries
	}
}

// moduleCandidates prefers what the variant already selected and falls back
// to the full collected dataset.
func moduleCandidates(module string, v *models.PlanVariant, data models.CollectedData) []models.Record {
	switch module {
	case ModuleAttractions:
		var picked []models.Record
		for _, day := range v.DailyItineraries {
			picked = append(picked, day.Attractions...)
		}
		if len(picked) > 0 {
			return picked
		}
		return data.Attractions
	case ModuleDining:
		if len(v.Restaurants) > 0 {
			return v.Restaurants
		}
		return data.Restaurants
	case ModuleTransportation:
		if len(v.Transportation) > 0 {
			return v.Transportation
		}
		return data.Transportation
	case ModuleAccommodation:
		if len(v.Hotel) > 0 {
			return []models.Record{v.Hotel}
		}
		return data.Hotels
	}
	return nil
}

func fallbackFor(module string, candidates []models.Record) FallbackBuilder {
	switch module {
	case ModuleDining:
		return DiningFallback(candidates)
	case ModuleTransportation:
		return TransportationFallback(candidates)
	case ModuleAccommodation:
		return AccommodationFallback(candidates)
	default:
		return AttractionFallback(candidates)
	}
}
