package services

import "context"

// ---------------------------------------------------------------------------
// TTSService — common interface for text-to-speech providers
// Both ElevenLabs and Cartesia implement this interface so the narration
// stage can walk its fallback chain without knowing the underlying provider.
// ---------------------------------------------------------------------------

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData  []byte
	DurationMs int
	Format     string // "mp3", "wav", etc.
}

// TTSService is the interface that any TTS provider must implement.
type TTSService interface {
	// GenerateSpeech converts text to audio using the provider's default voice.
	GenerateSpeech(ctx context.Context, text string) (*TTSResponse, error)

	// Name identifies the provider in logs.
	Name() string
}

// StoryGenerator produces a short narrative for a set of pet photos.
// Implementations are tried in order; any error moves to the next one.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, petName string, imageCount int) (string, error)
	Name() string
}

// MotionGenerator turns a still image into a short video clip via an
// external provider. Failures fall back to the programmatic effect.
type MotionGenerator interface {
	GenerateMotion(ctx context.Context, prompt string, imageData []byte, imageMimeType string, durationSec int) ([]byte, error)
	Name() string
}
