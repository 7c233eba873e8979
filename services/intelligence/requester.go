package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"waypoint/models"
)

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("generative model returned no content")

// Requester sends a prompt pair to a generative model and returns the parsed
// JSON result. A nil result with a nil error means the model answered null.
type Requester interface {
	Request(ctx context.Context, req models.PromptRequest) (interface{}, error)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, req models.PromptRequest) (interface{}, error)

func (f RequesterFunc) Request(ctx context.Context, req models.PromptRequest) (interface{}, error) {
	return f(ctx, req)
}

// ParseStructured decodes model output into generic JSON values. Markdown
// code fences around the payload are tolerated.
func ParseStructured(text string) (interface{}, error) {
	payload := stripFences(text)
	if payload == "" {
		return nil, ErrEmptyResponse
	}
	var out interface{}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return normalizeJSON(out), nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalizeJSON turns decoded objects into models.Record so callers can use
// the record accessors on nested values.
func normalizeJSON(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		rec := make(models.Record, len(t))
		for k, val := range t {
			rec[k] = normalizeJSON(val)
		}
		return rec
	case []interface{}:
		for i := range t {
			t[i] = normalizeJSON(t[i])
		}
		return t
	}
	return v
}
