package intelligence

import (
	"context"
	"fmt"
	"strings"

	"waypoint/models"
	"waypoint/utils"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-pro"

type GeminiClient struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiClient{client: client, modelName: modelName, logger: utils.GetLogger()}, nil
}

// Request implements Requester. Each call builds its own model handle so
// per-call generation settings never leak between concurrent requests.
func (g *GeminiClient) Request(ctx context.Context, req models.PromptRequest) (interface{}, error) {
	model := g.client.GenerativeModel(g.modelName)
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	model.SetTemperature(req.Temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	g.logger.Debug("gemini response received",
		zap.String("context", req.LogContext),
		zap.Int("chars", sb.Len()),
	)
	return ParseStructured(sb.String())
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}
