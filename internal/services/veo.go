package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// Veo Video Generation Service
// Uses the Google Gen AI SDK to generate short motion clips from still
// photos. The photo is passed as the first frame; the prompt describes the
// motion. Optional — when disabled, every clip gets the Ken Burns effect.
// ---------------------------------------------------------------------------

const (
	defaultVeoModel    = "veo-3.1-generate-preview"
	veoPollInterval    = 10 * time.Second
	veoMaxPollDuration = 5 * time.Minute // Max time to wait for a single clip

	// DefaultMotionPrompt is used when the caller supplies no visualPrompt.
	DefaultMotionPrompt = `Bring this pet photo gently to life. Subtle, natural movement only: a slow blink, breathing, an ear twitch, fur stirring in a light breeze, a slow camera push-in. No style changes, no morphing, no dramatic camera moves. Silent video only.`
)

// VeoService generates video clips via Google's Veo model.
type VeoService struct {
	client *genai.Client
	model  string
}

// Ensure VeoService implements MotionGenerator at compile time.
var _ MotionGenerator = (*VeoService)(nil)

// NewVeoService creates a Veo motion generator reusing an already
// constructed genai client (the same one the Gemini story provider uses).
func NewVeoService(client *genai.Client, model string) *VeoService {
	if model == "" {
		model = defaultVeoModel
	}
	return &VeoService{client: client, model: model}
}

func (s *VeoService) Name() string { return "veo" }

// GenerateMotion generates a clip with the provided photo as the first frame.
//
// The async operation is polled internally with a hard 5-minute cap. Any
// failure here is recoverable — the caller falls back to the programmatic
// effect for this image only.
func (s *VeoService) GenerateMotion(ctx context.Context, prompt string, imageData []byte, imageMimeType string, durationSec int) ([]byte, error) {
	if prompt == "" {
		prompt = DefaultMotionPrompt
	}

	firstFrame := &genai.Image{
		ImageBytes: imageData,
		MIMEType:   imageMimeType,
	}

	// Clip length is not requested here: the model returns its native
	// duration and the caller trims to the per-clip budget during
	// normalization.
	config := &genai.GenerateVideosConfig{
		AspectRatio:      "1:1",
		PersonGeneration: "allow_adult",
		NumberOfVideos:   1,
	}

	log.Printf("[Veo] Starting motion generation (model=%s, duration=%ds, imageSize=%d bytes)",
		s.model, durationSec, len(imageData))

	operation, err := s.client.Models.GenerateVideos(ctx, s.model, prompt, firstFrame, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}

	log.Printf("[Veo] Operation started: %s", operation.Name)

	// Poll until done, cancelled, or timed out
	deadline := time.Now().Add(veoMaxPollDuration)
	pollCount := 0
	for !operation.Done {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("video generation timed out after %v (polled %d times)", veoMaxPollDuration, pollCount)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("video generation cancelled: %w", ctx.Err())
		case <-time.After(veoPollInterval):
		}

		pollCount++
		operation, err = s.client.Operations.GetVideosOperation(ctx, operation, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll operation (attempt %d): %w", pollCount, err)
		}
	}

	if operation.Error != nil && len(operation.Error) > 0 {
		errJSON, _ := json.Marshal(operation.Error)
		return nil, fmt.Errorf("video generation operation failed: %s", string(errJSON))
	}

	if operation.Response == nil {
		return nil, fmt.Errorf("no response in completed operation after %d polls (operation: %s)", pollCount, operation.Name)
	}

	if operation.Response.RAIMediaFilteredCount > 0 {
		reasons := "unknown"
		if len(operation.Response.RAIMediaFilteredReasons) > 0 {
			reasons = strings.Join(operation.Response.RAIMediaFilteredReasons, ", ")
		}
		return nil, fmt.Errorf("video blocked by safety filters: %d video(s) filtered, reasons: %s", operation.Response.RAIMediaFilteredCount, reasons)
	}

	if len(operation.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("no videos in response")
	}

	video := operation.Response.GeneratedVideos[0]
	if video.Video == nil {
		return nil, fmt.Errorf("generated video object is nil")
	}

	downloadURI := genai.NewDownloadURIFromVideo(video.Video)
	videoBytes, err := s.client.Files.Download(ctx, downloadURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated video: %w", err)
	}

	if len(videoBytes) == 0 {
		return nil, fmt.Errorf("downloaded video is empty (0 bytes)")
	}

	log.Printf("[Veo] Motion clip generated (%d bytes, %d polls)", len(videoBytes), pollCount)

	return videoBytes, nil
}
