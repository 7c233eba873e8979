package planning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"waypoint/models"
	"waypoint/services/intelligence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func simplePrompts(day int, date string, budget *float64) models.PromptRequest {
	return models.PromptRequest{SystemPrompt: "sys", UserPrompt: "day " + date}
}

func failingRequester() intelligence.Requester {
	return intelligence.RequesterFunc(func(ctx context.Context, req models.PromptRequest) (interface{}, error) {
		return nil, errors.New("model unavailable")
	})
}

func sampleAttractions(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{"name": "Spot " + string(rune('A'+i)), "price": float64(10 * (i + 1))}
	}
	return out
}

func TestCalculateDate(t *testing.T) {
	assert.Equal(t, "2025-06-03", CalculateDate("2025-06-01", 2))
	assert.Equal(t, "2025-03-01", CalculateDate("2025-02-28", 1))
	assert.Equal(t, "2025-06-02", CalculateDate("2025-06-01T10:00:00Z", 1))
	assert.Equal(t, "2025-06-01", CalculateDate("2025-06-01T10:00:00", 0))
	assert.Equal(t, "", CalculateDate("", 1))
	assert.Equal(t, "", CalculateDate("next tuesday", 1))
}

func TestExtractDayEntry(t *testing.T) {
	entry, ok := ExtractDayEntry(models.Record{"schedule": []interface{}{}}, 2, "2025-06-02")
	require.True(t, ok)
	assert.Equal(t, 2, entry["day"])
	assert.Equal(t, "2025-06-02", entry["date"])

	entry, ok = ExtractDayEntry([]interface{}{map[string]interface{}{"day": float64(7)}}, 2, "")
	require.True(t, ok)
	assert.Equal(t, float64(7), entry["day"])
	_, hasDate := entry["date"]
	assert.False(t, hasDate)

	_, ok = ExtractDayEntry([]interface{}{}, 1, "")
	assert.False(t, ok)
	_, ok = ExtractDayEntry([]interface{}{"text"}, 1, "")
	assert.False(t, ok)
	_, ok = ExtractDayEntry("plain text", 1, "")
	assert.False(t, ok)
}

func TestGenerateDailyEntries_LengthAndOrder(t *testing.T) {
	for _, days := range []int{-1, 0, 1, 4, 9} {
		entries := GenerateDailyEntries(context.Background(), DailyOptions{
			Module:       "attractions",
			TotalDays:    days,
			StartDate:    "2025-06-01",
			BuildPrompts: simplePrompts,
			Requester:    failingRequester(),
			Fallback:     AttractionFallback(sampleAttractions(5)),
		}, zap.NewNop())

		want := days
		if want < 0 {
			want = 0
		}
		require.Len(t, entries, want)
		for i, e := range entries {
			assert.Equal(t, i+1, e["day"])
		}
	}
}

func TestGenerateDailyEntries_AllFailuresMatchFallback(t *testing.T) {
	fallback := DiningFallback([]models.Record{{"name": "Noodle House", "price": 30}})
	entries := GenerateDailyEntries(context.Background(), DailyOptions{
		Module:       "dining",
		TotalDays:    3,
		StartDate:    "2025-06-01",
		BuildPrompts: simplePrompts,
		Requester:    failingRequester(),
		Fallback:     fallback,
	}, zap.NewNop())

	require.Len(t, entries, 3)
	for i, e := range entries {
		date := CalculateDate("2025-06-01", i)
		assert.Equal(t, fallback(i+1, date), e)
		assert.Equal(t, date, e["date"])
	}
}

func TestGenerateDailyEntries_FailsOnDayTwoOnly(t *testing.T) {
	requester := intelligence.RequesterFunc(func(ctx context.Context, req models.PromptRequest) (interface{}, error) {
		if strings.HasSuffix(req.UserPrompt, "2025-06-02") {
			return nil, errors.New("rate limited")
		}
		return models.Record{"source": "model"}, nil
	})
	fallback := AttractionFallback(sampleAttractions(6))

	entries := GenerateDailyEntries(context.Background(), DailyOptions{
		Module:       "attractions",
		TotalDays:    3,
		StartDate:    "2025-06-01",
		BuildPrompts: simplePrompts,
		Requester:    requester,
		Fallback:     fallback,
	}, zap.NewNop())

	require.Len(t, entries, 3)
	assert.Equal(t, "model", entries[0]["source"])
	assert.Equal(t, "2025-06-01", entries[0]["date"])
	assert.Equal(t, fallback(2, "2025-06-02"), entries[1])
	assert.Equal(t, "2025-06-02", entries[1]["date"])
	assert.Equal(t, "model", entries[2]["source"])
	assert.Equal(t, 3, entries[2]["day"])
}

func TestGenerateDailyEntries_ExplicitDayPreserved(t *testing.T) {
	requester := intelligence.RequesterFunc(func(ctx context.Context, req models.PromptRequest) (interface{}, error) {
		return []interface{}{models.Record{"day": float64(42)}}, nil
	})
	entries := GenerateDailyEntries(context.Background(), DailyOptions{
		Module:       "transportation",
		TotalDays:    2,
		BuildPrompts: simplePrompts,
		Requester:    requester,
		Fallback:     TransportationFallback(nil),
	}, zap.NewNop())

	require.Len(t, entries, 2)
	assert.Equal(t, float64(42), entries[0]["day"])
	_, hasDate := entries[0]["date"]
	assert.False(t, hasDate)
}

func TestGenerateDailyEntries_NullPanicAndPostProcess(t *testing.T) {
	calls := 0
	requester := intelligence.RequesterFunc(func(ctx context.Context, req models.PromptRequest) (interface{}, error) {
		calls++
		switch calls {
		case 1:
			return nil, nil
		case 2:
			panic("decoder blew up")
		}
		return models.Record{}, nil
	})
	fallback := AccommodationFallback(nil)

	entries := GenerateDailyEntries(context.Background(), DailyOptions{
		Module:       "accommodation",
		TotalDays:    3,
		StartDate:    "2025-06-01",
		BuildPrompts: simplePrompts,
		Requester:    requester,
		Fallback:     fallback,
		PostProcess: func(entry models.DayEntry, day int, date string) models.DayEntry {
			entry["post_processed"] = true
			return entry
		},
	}, zap.NewNop())

	require.Len(t, entries, 3)
	assert.Equal(t, fallback(1, "2025-06-01"), entries[0])
	assert.Equal(t, fallback(2, "2025-06-02"), entries[1])
	assert.Equal(t, true, entries[2]["post_processed"])
	assert.Equal(t, 3, entries[2]["day"])
}

func TestGenerateDailyEntries_NoRequester(t *testing.T) {
	fallback := AttractionFallback(nil)
	entries := GenerateDailyEntries(context.Background(), DailyOptions{
		Module:    "attractions",
		TotalDays: 2,
		Fallback:  fallback,
	}, zap.NewNop())
	require.Len(t, entries, 2)
	assert.Equal(t, fallback(2, ""), entries[1])
}

func TestGetDayEntryFromList(t *testing.T) {
	entries := []models.DayEntry{
		{"day": 1, "v": "a"},
		{"day": float64(2), "v": "b"},
		{"day": 2, "v": "c"},
	}
	got, ok := GetDayEntryFromList(entries, 2)
	require.True(t, ok)
	assert.Equal(t, "b", got["v"])

	_, ok = GetDayEntryFromList(entries, 5)
	assert.False(t, ok)
	_, ok = GetDayEntryFromList(nil, 1)
	assert.False(t, ok)
}
