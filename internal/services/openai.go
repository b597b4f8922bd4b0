package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIService is the primary story-text generator.
type OpenAIService struct {
	client *openai.Client
	model  string
}

// Ensure OpenAIService implements StoryGenerator at compile time.
var _ StoryGenerator = (*OpenAIService)(nil)

func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (s *OpenAIService) Name() string { return "openai" }

const storySystemPrompt = `You write short, warm voiceover narrations for a pet's weekly photo memories video. Rules:
- 2-3 short sentences, about 8 seconds of speech total.
- Speak directly to the pet's owner, conversational and affectionate.
- Mention the pet by name.
- No hashtags, no emojis, no quotation marks, nothing that can't be read aloud.`

// GenerateStory asks the model for a short narration for this week's photos.
func (s *OpenAIService) GenerateStory(ctx context.Context, petName string, imageCount int) (string, error) {
	userPrompt := fmt.Sprintf(
		"Write the narration for a memory video of %s made from %d photos taken this week.",
		petName, imageCount,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: storySystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: 1.0,
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	story := strings.TrimSpace(resp.Choices[0].Message.Content)
	if story == "" {
		return "", fmt.Errorf("openai returned empty story")
	}

	log.Printf("[OpenAI] Story generated (%d chars)", len(story))
	return story, nil
}
