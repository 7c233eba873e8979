package models

import "time"

// Meal is one slot of the fixed daily meal skeleton.
type Meal struct {
	Type       string `bson:"type" json:"type"`
	Time       string `bson:"time" json:"time"`
	Suggestion string `bson:"suggestion" json:"suggestion"`
}

// DailyItinerary is one day of a plan variant.
type DailyItinerary struct {
	Day            int      `bson:"day" json:"day"`
	Date           string   `bson:"date" json:"date"`
	Attractions    []Record `bson:"attractions" json:"attractions"`
	Meals          []Meal   `bson:"meals" json:"meals"`
	Transportation string   `bson:"transportation" json:"transportation"`
	EstimatedCost  float64  `bson:"estimatedCost" json:"estimated_cost"`
}

// CostBreakdown is the aggregated cost of a variant.
type CostBreakdown struct {
	Flight         float64 `bson:"flight" json:"flight"`
	Hotel          float64 `bson:"hotel" json:"hotel"`
	Attractions    float64 `bson:"attractions" json:"attractions"`
	Meals          float64 `bson:"meals" json:"meals"`
	Transportation float64 `bson:"transportation" json:"transportation"`
	Total          float64 `bson:"total" json:"total"`
}

// Sum recomputes Total from the component lines.
func (c *CostBreakdown) Sum() {
	c.Total = c.Flight + c.Hotel + c.Attractions + c.Meals + c.Transportation
}

// PlanVariant is one candidate itinerary built for one archetype.
type PlanVariant struct {
	ID               string                 `bson:"id" json:"id"`
	Type             string                 `bson:"type" json:"type"`
	Label            string                 `bson:"label" json:"label"`
	Title            string                 `bson:"title" json:"title"`
	Description      string                 `bson:"description" json:"description"`
	Flight           Record                 `bson:"flight" json:"flight"`
	Hotel            Record                 `bson:"hotel" json:"hotel"`
	DailyItineraries []DailyItinerary       `bson:"dailyItineraries" json:"daily_itineraries"`
	Restaurants      []Record               `bson:"restaurants" json:"restaurants"`
	Transportation   []Record               `bson:"transportation" json:"transportation"`
	TotalCost        CostBreakdown          `bson:"totalCost" json:"total_cost"`
	DurationDays     int                    `bson:"durationDays" json:"duration_days"`
	GeneratedAt      time.Time              `bson:"generatedAt" json:"generated_at"`
	Score            float64                `bson:"score" json:"score"`
	DailyDetails     map[string][]Record    `bson:"dailyDetails,omitempty" json:"daily_details,omitempty"`
	RefinedAt        *time.Time             `bson:"refinedAt,omitempty" json:"refined_at,omitempty"`
	Refinements      map[string]interface{} `bson:"refinements,omitempty" json:"refinements,omitempty"`
}

// Recommendation is an advisory message attached to a plan.
type Recommendation struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
}
