package planning

import (
	"context"
	"strings"
	"sync"
	"testing"

	"waypoint/models"
	"waypoint/services/intelligence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetailer_FallbackWithoutRequester(t *testing.T) {
	data := testData()
	trip := testTrip(2)
	variants := NewPlanGenerator(nil, 5, zap.NewNop()).GeneratePlans(data, trip, nil)

	NewDetailer(nil, 2, zap.NewNop()).Detail(context.Background(), variants, data, trip)

	for i, v := range variants {
		if i >= 2 {
			assert.Nil(t, v.DailyDetails)
			continue
		}
		require.Len(t, v.DailyDetails, len(DetailModules))
		for _, module := range DetailModules {
			entries := v.DailyDetails[module]
			require.Len(t, entries, 2, module)
			day2, ok := GetDayEntryFromList(entries, 2)
			require.True(t, ok)
			assert.Equal(t, "2025-06-02", day2["date"])
		}
		hotel := v.DailyDetails[ModuleAccommodation][0]["hotel"].(models.Record)
		assert.Equal(t, v.Hotel.Name(), hotel.Name())
	}
}

func TestDetailer_UsesModelOutput(t *testing.T) {
	var mu sync.Mutex
	var prompts []models.PromptRequest
	requester := intelligence.RequesterFunc(func(ctx context.Context, req models.PromptRequest) (interface{}, error) {
		mu.Lock()
		prompts = append(prompts, req)
		mu.Unlock()
		return models.Record{"from_model": true}, nil
	})
	data := testData()
	trip := testTrip(1)
	variants := NewPlanGenerator(nil, 5, zap.NewNop()).GeneratePlans(data, trip, nil)

	NewDetailer(requester, 1, zap.NewNop()).Detail(context.Background(), variants, data, trip)

	require.Len(t, prompts, len(DetailModules))
	assert.True(t, strings.Contains(prompts[0].UserPrompt, "Hangzhou"))
	assert.Contains(t, prompts[0].UserPrompt, "Budget for the day: 5000")
	assert.Equal(t, "attractions day 1", prompts[0].LogContext)
	for _, module := range DetailModules {
		assert.Equal(t, true, variants[0].DailyDetails[module][0]["from_model"])
	}
}
