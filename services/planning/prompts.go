package planning

import (
	"encoding/json"
	"fmt"
	"strings"

	"waypoint/models"
)

const (
	dailyMaxTokens   = 1500
	dailyTemperature = 0.7
	// promptSampleSize caps how many candidate records go into a prompt.
	promptSampleSize = 12
)

// promptTemplate describes one detailing module.
type promptTemplate struct {
	role   string
	task   string
	schema string
}

var promptTemplates = map[string]promptTemplate{
	ModuleAttractions: {
		role: "You are a local travel planner who builds realistic sightseeing schedules.",
		task: "Plan the sightseeing for day %d (%s) in %s using only the candidate attractions below.",
		schema: `{"day": int, "date": "YYYY-MM-DD", "schedule": [{"time": "HH:MM-HH:MM", "activity": str, "location": str, "description": str, "cost": number, "tips": str}], "estimated_cost": number, "daily_tips": [str]}`,
	},
	ModuleDining: {
		role: "You are a food guide who recommends where to eat each meal.",
		task: "Plan breakfast, lunch and dinner for day %d (%s) in %s using the candidate restaurants below.",
		schema: `{"day": int, "date": "YYYY-MM-DD", "meals": [{"type": "breakfast|lunch|dinner", "time": "HH:MM-HH:MM", "restaurant_name": str, "cuisine": str, "recommended_dishes": [{"name": str, "price": number}], "estimated_cost": number}], "daily_food_cost": number}`,
	},
	ModuleTransportation: {
		role: "You are a transit expert who plans efficient local routes.",
		task: "Plan local transport for day %d (%s) in %s using the options below.",
		schema: `{"day": int, "date": "YYYY-MM-DD", "primary_routes": [{"type": str, "name": str, "route": str, "duration": number, "price": number}], "backup_routes": [...], "daily_transport_cost": number, "tips": [str]}`,
	},
	ModuleAccommodation: {
		role: "You are a lodging advisor.",
		task: "Recommend where to stay on night %d (%s) in %s from the hotels below.",
		schema: `{"day": int, "date": "YYYY-MM-DD", "hotel": {"name": str, "price_per_night": number, "rating": number}, "daily_cost": number, "accommodation_highlights": [str]}`,
	},
}

// BuildPromptBuilder returns the prompt builder of a detailing module. The
// candidates are embedded as JSON so the model only picks from real data.
func BuildPromptBuilder(module string, trip models.TripContext, variant *models.PlanVariant, candidates []models.Record) PromptBuilder {
	tmpl, ok := promptTemplates[module]
	if !ok {
		tmpl = promptTemplates[ModuleAttractions]
	}
	sample := candidates
	if len(sample) > promptSampleSize {
		sample = sample[:promptSampleSize]
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		payload = []byte("[]")
	}

	return func(day int, date string, perDayBudget *float64) models.PromptRequest {
		var user strings.Builder
		fmt.Fprintf(&user, tmpl.task, day, orDefault(date, "date to be decided"), trip.Destination)
		user.WriteString("\n")
		if variant != nil && variant.Label != "" {
			fmt.Fprintf(&user, "Trip style: %s.\n", variant.Label)
		}
		if perDayBudget != nil {
			fmt.Fprintf(&user, "Budget for the day: %.0f.\n", *perDayBudget)
		}
		fmt.Fprintf(&user, "Candidates: %s\n", payload)
		fmt.Fprintf(&user, "Answer with a single JSON object shaped like: %s", tmpl.schema)

		return models.PromptRequest{
			SystemPrompt: tmpl.role + " Always answer with valid JSON only.",
			UserPrompt:   user.String(),
			MaxTokens:    dailyMaxTokens,
			Temperature:  dailyTemperature,
			LogContext:   fmt.Sprintf("%s day %d", module, day),
		}
	}
}
