package models

// PromptRequest is one call to the generative model.
type PromptRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float32 `json:"temperature"`
	LogContext   string  `json:"log_context"` // e.g. "attractions day 2"
}

// DayEntry is a model-generated or fallback day plan. Its shape depends on the
// module that produced it; only "day" and "date" are guaranteed.
type DayEntry = Record

// GeneratePlanPayload is the background task payload for a generation run.
type GeneratePlanPayload struct {
	PlanID       string                 `json:"plan_id"`
	Preferences  map[string]interface{} `json:"preferences,omitempty"`
	Requirements map[string]interface{} `json:"requirements,omitempty"`
}

// RefreshPayload is the background task payload for a data refresh.
type RefreshPayload struct {
	Destinations []string `json:"destinations"`
}

// SweepPayload is the background task payload for a cache sweep.
type SweepPayload struct {
	Domains []Domain `json:"domains"`
}
