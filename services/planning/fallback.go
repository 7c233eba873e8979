package planning

import (
	"fmt"

	"waypoint/models"
)

const (
	attractionsPerDay = 2
	attractionSlot    = 3 // hours
)

var fallbackMeals = []struct {
	kind string
	hour int
}{
	{"breakfast", 8},
	{"lunch", 12},
	{"dinner", 18},
}

// AttractionFallback schedules two attractions per day, moving through the
// list by day and restarting from the top when it runs out.
func AttractionFallback(attractions []models.Record) FallbackBuilder {
	return func(day int, date string) models.DayEntry {
		var selection []models.Record
		if len(attractions) > 0 {
			selection = window(attractions, (day-1)*attractionsPerDay, attractionsPerDay)
			if len(selection) == 0 {
				selection = window(attractions, 0, attractionsPerDay)
			}
		}
		selection = models.CloneRecords(selection)

		schedule := make([]interface{}, 0, len(selection))
		total := 0.0
		for i, attr := range selection {
			start := 9 + i*attractionSlot
			cost, _ := attr.Float("price")
			cost = models.Finite(cost)
			total += cost
			schedule = append(schedule, models.Record{
				"time":        fmt.Sprintf("%02d:00-%02d:00", start, start+attractionSlot),
				"activity":    "sightseeing",
				"location":    orDefault(attr.Name(), "attraction"),
				"description": orDefault(attr.Str("description"), "Explore a local highlight"),
				"cost":        cost,
				"tips":        "Book ahead where possible to skip the queue.",
			})
		}

		return models.DayEntry{
			"day":            day,
			"date":           date,
			"schedule":       schedule,
			"attractions":    recordsToList(selection),
			"estimated_cost": total,
			"daily_tips": []interface{}{
				"Adjust the route to the weather and crowds",
				"Confirm opening hours and ticketing in advance",
			},
		}
	}
}

// DiningFallback assigns three restaurants per day to breakfast, lunch and
// dinner, wrapping around the list when it is short.
func DiningFallback(restaurants []models.Record) FallbackBuilder {
	return func(day int, date string) models.DayEntry {
		meals := make([]interface{}, 0, len(fallbackMeals))
		highlights := make([]interface{}, 0, len(fallbackMeals))
		total := 0.0
		start := (day - 1) * len(fallbackMeals)

		for i, slot := range fallbackMeals {
			rest := models.Record{}
			if len(restaurants) > 0 {
				rest = restaurants[(start+i)%len(restaurants)].Clone()
			}
			price := 0.0
			if len(rest) > 0 {
				price = rest.FinitePrice()
			}
			name := orDefault(rest.Name(), "local restaurant")
			meals = append(meals, models.Record{
				"type":               slot.kind,
				"time":               fmt.Sprintf("%02d:00-%02d:00", slot.hour, slot.hour+1),
				"restaurant_name":    name,
				"cuisine":            orDefault(rest.Str("cuisine"), "local"),
				"recommended_dishes": recommendedDishes(rest, price),
				"atmosphere":         orDefault(rest.Str("atmosphere"), "comfortable"),
				"estimated_cost":     price,
				"booking_tips":       "Arrive early at peak hours",
				"address":            rest.Str("address"),
			})
			highlights = append(highlights, name)
			total += price
		}

		return models.DayEntry{
			"day":             day,
			"date":            date,
			"meals":           meals,
			"daily_food_cost": total,
			"food_highlights": highlights,
		}
	}
}

func recommendedDishes(rest models.Record, price float64) []interface{} {
	var priceValue interface{} = "see menu"
	if price > 0 {
		priceValue = price
	}
	var dishes []interface{}
	for _, dish := range stringList(rest["specialties"]) {
		if len(dishes) == 2 {
			break
		}
		dishes = append(dishes, models.Record{
			"name":        dish,
			"description": "local speciality",
			"price":       priceValue,
		})
	}
	if len(dishes) == 0 {
		dishes = append(dishes, models.Record{
			"name":        "signature dish",
			"description": "house signature",
			"price":       priceValue,
		})
	}
	return dishes
}

// defaultRoute is used when no transportation data was collected.
var defaultRoute = models.Record{
	"type":     "metro",
	"name":     "Metro Line 1",
	"route":    "city centre to attractions",
	"duration": 30,
	"distance": 10,
	"price":    5,
	"usage_tips": []interface{}{
		"Avoid rush hour",
		"Carry a transit card",
	},
}

// TransportationFallback uses the first two routes every day.
func TransportationFallback(transportation []models.Record) FallbackBuilder {
	return func(day int, date string) models.DayEntry {
		selection := models.CloneRecords(window(transportation, 0, 2))
		if len(selection) == 0 {
			selection = []models.Record{defaultRoute.Clone()}
		}
		total := 0.0
		for _, route := range selection {
			if v, ok := route.Float("price"); ok {
				total += models.Finite(v)
			}
		}
		return models.DayEntry{
			"day":                  day,
			"date":                 date,
			"primary_routes":       recordsToList(selection),
			"backup_routes":        []interface{}{},
			"daily_transport_cost": total,
			"tips":                 []interface{}{"Default transport suggestion"},
		}
	}
}

// AccommodationFallback rotates through the hotels by day.
func AccommodationFallback(hotels []models.Record) FallbackBuilder {
	return func(day int, date string) models.DayEntry {
		hotel := models.Record{
			"name":               "hotel to be confirmed",
			"address":            "",
			"price_per_night":    0,
			"rating":             4.0,
			"amenities":          []interface{}{},
			"location_advantage": "to be confirmed",
		}
		cost := 0.0
		if len(hotels) > 0 {
			hotel = hotels[(day-1)%len(hotels)].Clone()
			cost = hotel.FinitePrice()
		}
		return models.DayEntry{
			"day":                      day,
			"date":                     date,
			"flight":                   models.Record{},
			"hotel":                    hotel,
			"daily_cost":               cost,
			"accommodation_highlights": []interface{}{"Convenient location"},
			"notes":                    []interface{}{"Default accommodation suggestion"},
		}
	}
}

// window returns records[start:start+n] clipped to the slice bounds.
func window(records []models.Record, start, n int) []models.Record {
	if start < 0 || start >= len(records) {
		return nil
	}
	end := start + n
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func recordsToList(records []models.Record) []interface{} {
	out := make([]interface{}, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
