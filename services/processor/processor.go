package processor

import (
	"strconv"
	"strings"

	"waypoint/models"
	"waypoint/utils"

	"go.uber.org/zap"
)

// DataProcessor cleans raw collected datasets before plan generation.
type DataProcessor struct {
	Logger *zap.Logger
}

func NewDataProcessor(logger *zap.Logger) *DataProcessor {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &DataProcessor{Logger: logger}
}

// Process returns a cleaned copy of data. Weather is passed through as is;
// every list domain loses nameless records and name duplicates, and numeric
// rating strings become floats. The input is never modified.
func (p *DataProcessor) Process(data models.CollectedData) models.CollectedData {
	out := models.NewCollectedData()
	if data.Weather != nil {
		out.Weather = data.Weather
	}
	for _, domain := range models.AllDomains {
		if domain == models.DomainWeather {
			continue
		}
		raw := data.Records(domain)
		cleaned := CleanRecords(raw)
		if dropped := len(raw) - len(cleaned); dropped > 0 {
			p.Logger.Debug("dropped unusable records",
				zap.String("domain", string(domain)),
				zap.Int("dropped", dropped),
			)
		}
		out.SetRecords(domain, cleaned)
	}
	return out
}

// CleanRecords drops records without a name and keeps the first record of
// every case-folded name.
func CleanRecords(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Name())
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, normalize(r.Clone()))
	}
	return out
}

func normalize(r models.Record) models.Record {
	if s, ok := r["rating"].(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			r["rating"] = f
		}
	}
	return r
}
