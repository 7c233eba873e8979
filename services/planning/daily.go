package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"waypoint/models"
	"waypoint/services/intelligence"
	"waypoint/utils"

	"go.uber.org/zap"
)

// PromptBuilder builds the generative request for one day.
type PromptBuilder func(day int, date string, perDayBudget *float64) models.PromptRequest

// FallbackBuilder synthesizes a day entry from already collected data.
type FallbackBuilder func(day int, date string) models.DayEntry

// PostProcessor adjusts an accepted model entry.
type PostProcessor func(entry models.DayEntry, day int, date string) models.DayEntry

// DayEntryExtractor turns a parsed model result into a day entry.
type DayEntryExtractor func(parsed interface{}, day int, date string) (models.DayEntry, bool)

// DailyOptions configures one GenerateDailyEntries run.
type DailyOptions struct {
	Module       string
	TotalDays    int
	StartDate    string
	PerDayBudget *float64

	BuildPrompts PromptBuilder
	Requester    intelligence.Requester
	Fallback     FallbackBuilder
	PostProcess  PostProcessor
	Extractor    DayEntryExtractor
}

// startLayouts are tried in order before falling back to the date prefix.
var startLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// CalculateDate returns start plus offset days as YYYY-MM-DD. An empty or
// unparsable start yields "".
func CalculateDate(start string, offset int) string {
	value := strings.TrimSpace(start)
	if value == "" {
		return ""
	}
	var base time.Time
	parsed := false
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			base, parsed = t, true
			break
		}
	}
	if !parsed {
		prefix := strings.SplitN(value, "T", 2)[0]
		t, err := time.Parse(models.DateLayout, prefix)
		if err != nil {
			return ""
		}
		base = t
	}
	return base.AddDate(0, 0, offset).Format(models.DateLayout)
}

// FormatStartDate renders a plan start date for CalculateDate. The zero time
// renders as "".
func FormatStartDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

// ExtractDayEntry accepts a mapping or the first mapping of a non-empty list.
// Missing day and date fields are filled in; explicit ones are kept.
func ExtractDayEntry(parsed interface{}, day int, date string) (models.DayEntry, bool) {
	entry, ok := asRecord(parsed)
	if !ok {
		if list, isList := parsed.([]interface{}); isList && len(list) > 0 {
			entry, ok = asRecord(list[0])
		} else if recs, isRecs := parsed.([]models.Record); isRecs && len(recs) > 0 {
			entry, ok = recs[0], recs[0] != nil
		}
	}
	if !ok {
		return nil, false
	}
	if _, has := entry["day"]; !has {
		entry["day"] = day
	}
	if _, has := entry["date"]; !has && date != "" {
		entry["date"] = date
	}
	return entry, true
}

func asRecord(v interface{}) (models.Record, bool) {
	switch t := v.(type) {
	case models.Record:
		return t, t != nil
	case map[string]interface{}:
		return models.Record(t), t != nil
	}
	return nil, false
}

// GenerateDailyEntries produces exactly one entry per day in 1..TotalDays,
// in order. Each day asks the model first and falls back to the
// deterministic builder when the call fails or the result is unusable. It
// never fails.
func GenerateDailyEntries(ctx context.Context, opts DailyOptions, logger *zap.Logger) []models.DayEntry {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if opts.TotalDays <= 0 {
		return []models.DayEntry{}
	}
	extract := opts.Extractor
	if extract == nil {
		extract = ExtractDayEntry
	}

	results := make([]models.DayEntry, 0, opts.TotalDays)
	for day := 1; day <= opts.TotalDays; day++ {
		date := CalculateDate(opts.StartDate, day-1)
		entry, err := requestDay(ctx, opts, extract, day, date)
		if err != nil {
			logger.Warn("daily generation degraded to fallback",
				zap.String("module", opts.Module),
				zap.Int("day", day),
				zap.Error(err),
			)
			entry = fallbackDay(opts, day, date)
		}
		results = append(results, entry)
	}
	logger.Info("daily entries generated", zap.String("module", opts.Module), zap.Int("days", len(results)))
	return results
}

// requestDay returns the model entry for one day or the reason it is
// unusable. Panics in builders or the requester count as failures.
func requestDay(ctx context.Context, opts DailyOptions, extract DayEntryExtractor, day int, date string) (entry models.DayEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if opts.Requester == nil || opts.BuildPrompts == nil {
		return nil, fmt.Errorf("no generative requester configured")
	}
	req := opts.BuildPrompts(day, date, opts.PerDayBudget)
	if req.LogContext == "" {
		req.LogContext = fmt.Sprintf("%s day %d", opts.Module, day)
	}
	parsed, err := opts.Requester.Request(ctx, req)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, fmt.Errorf("model returned null")
	}
	entry, ok := extract(parsed, day, date)
	if !ok || entry == nil {
		return nil, fmt.Errorf("model returned an unusable %T", parsed)
	}
	if opts.PostProcess != nil {
		entry = opts.PostProcess(entry, day, date)
	}
	return entry, nil
}

func fallbackDay(opts DailyOptions, day int, date string) models.DayEntry {
	if opts.Fallback == nil {
		return models.DayEntry{"day": day, "date": date}
	}
	return opts.Fallback(day, date)
}

// GetDayEntryFromList returns the first entry whose day equals day.
func GetDayEntryFromList(entries []models.DayEntry, day int) (models.DayEntry, bool) {
	for _, entry := range entries {
		if v, ok := entry.Float("day"); ok && v == float64(day) {
			return entry, true
		}
	}
	return nil, false
}
