package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// GeminiService is the secondary story-text generator, tried when the
// OpenAI provider fails.
type GeminiService struct {
	client *genai.Client
	model  string
}

// Ensure GeminiService implements StoryGenerator at compile time.
var _ StoryGenerator = (*GeminiService)(nil)

// NewGeminiService creates the Gemini story generator. The genai client is
// built once here and reused for every request.
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiService{client: client, model: model}, nil
}

func (s *GeminiService) Name() string { return "gemini" }

// Client exposes the underlying genai client so the Veo motion generator
// can share it instead of building its own.
func (s *GeminiService) Client() *genai.Client {
	return s.client
}

// GenerateStory asks Gemini for a short narration for this week's photos.
func (s *GeminiService) GenerateStory(ctx context.Context, petName string, imageCount int) (string, error) {
	prompt := fmt.Sprintf(
		`%s

Write the narration for a memory video of %s made from %d photos taken this week.`,
		storySystemPrompt, petName, imageCount,
	)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	story := strings.TrimSpace(resp.Text())
	if story == "" {
		return "", fmt.Errorf("gemini returned empty story")
	}

	log.Printf("[Gemini] Story generated (%d chars)", len(story))
	return story, nil
}
