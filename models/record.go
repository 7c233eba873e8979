package models

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a loosely-typed provider record. Upstream providers disagree on
// field names and value types, so heuristics read it through the accessors
// below instead of a fixed schema.
type Record map[string]interface{}

var numberPattern = regexp.MustCompile(`(\d+(\.\d+)?)`)

// priceKeys is the probing order used when looking for a price.
var priceKeys = []string{"price", "average_price", "cost"}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]interface{}:
		return Record(t).Clone()
	case primitive.M:
		return Record(t).Clone()
	case []interface{}:
		return cloneList(t)
	case primitive.A:
		return cloneList(t)
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func cloneList(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, item := range in {
		out[i] = cloneValue(item)
	}
	return out
}

// Str returns the value under key when it is a string, otherwise "".
func (r Record) Str(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Name returns the display name of the record.
func (r Record) Name() string {
	if name := r.Str("name"); name != "" {
		return name
	}
	return r.Str("title")
}

// Float reads key as a number. Numeric strings are accepted.
func (r Record) Float(key string) (float64, bool) {
	return toFloat(r[key])
}

// Rating returns the record rating or 0 when absent.
func (r Record) Rating() float64 {
	if v, ok := r.Float("rating"); ok {
		return v
	}
	return 0
}

// Price extracts a best-effort price. It probes price, average_price and cost
// in that order, then the first number inside price_range. It returns +Inf
// when nothing parses so callers minimizing price skip unpriced records.
func (r Record) Price() float64 {
	for _, key := range priceKeys {
		candidate, ok := r[key]
		if !ok || candidate == nil {
			continue
		}
		if v, ok := numeric(candidate); ok {
			return v
		}
		if v, ok := firstNumber(fmt.Sprint(candidate)); ok {
			return v
		}
	}
	if pr, ok := r["price_range"]; ok && pr != nil {
		if v, ok := firstNumber(fmt.Sprint(pr)); ok {
			return v
		}
	}
	return math.Inf(1)
}

// FinitePrice is Price with non-finite results mapped to 0.
func (r Record) FinitePrice() float64 {
	return finite(r.Price())
}

// PricePerNight reads price_per_night, falling back to Price.
func (r Record) PricePerNight() float64 {
	if v, ok := r.Float("price_per_night"); ok {
		return v
	}
	return r.Price()
}

// PriceRangeLevel is the ordering proxy used to rank restaurants by cost.
// A numeric price_range sorts by its first number; a symbol range such as
// "$$" sorts by its length. Missing ranges sort last.
func (r Record) PriceRangeLevel() float64 {
	raw, ok := r["price_range"]
	if !ok || raw == nil {
		return math.Inf(1)
	}
	s := strings.TrimSpace(fmt.Sprint(raw))
	if v, ok := firstNumber(s); ok {
		return v
	}
	level := 0
	for _, ch := range s {
		switch ch {
		case '$', '¥', '€', '£', '￥':
			level++
		}
	}
	if level == 0 {
		return math.Inf(1)
	}
	return float64(level)
}

// Text joins the searchable text fields in lower case.
func (r Record) Text() string {
	return strings.ToLower(r.Name() + " " + r.Str("category") + " " + r.Str("description"))
}

// Finite maps NaN and infinities to 0.
func Finite(v float64) float64 {
	return finite(v)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	if f, ok := numeric(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	return f, err == nil
}

// CloneRecords deep copies a slice of records.
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
