package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Scratch space for per-request working directories
	WorkRoot string

	// OpenAI (primary story-text generator)
	OpenAIKey   string
	OpenAIModel string

	// Gemini (secondary story-text generator + Veo motion generation)
	GeminiKey   string
	GeminiModel string
	VeoModel    string

	// ElevenLabs (preferred TTS provider)
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Cartesia (fallback TTS provider)
	CartesiaKey     string
	CartesiaURL     string
	CartesiaVoiceID string

	// Redis (optional cache for fetched background music)
	RedisURL string

	// Rendering
	RenderSize  int     // Square output edge in pixels
	RenderFPS   int     // Output frame rate
	ZoomCeiling float64 // Ken Burns terminal zoom factor
	FadeSeconds float64 // Crossfade overlap between clips
	MusicGain   float64 // Background music volume relative to narration

	// External fetch timeout (images, music) in seconds
	FetchTimeoutSeconds int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:             getEnv("API_PORT", "8080"),
		BackendAPIKey:       getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", ""),
		WorkRoot:            getEnv("WORK_ROOT", "/tmp/memoryreel"),
		OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		VeoModel:            getEnv("VEO_MODEL", "veo-3.1-generate-preview"),
		ElevenLabsKey:       getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:   getEnv("ELEVENLABS_VOICE_ID", ""),
		CartesiaKey:         getEnv("CARTESIA_API_KEY", ""),
		CartesiaURL:         getEnv("CARTESIA_API_URL", "https://api.cartesia.ai"),
		CartesiaVoiceID:     getEnv("CARTESIA_VOICE_ID", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RenderSize:          getEnvInt("RENDER_SIZE", 480),
		RenderFPS:           getEnvInt("RENDER_FPS", 24),
		ZoomCeiling:         getEnvFloat("ZOOM_CEILING", 1.12),
		FadeSeconds:         getEnvFloat("FADE_SECONDS", 0.4),
		MusicGain:           getEnvFloat("MUSIC_GAIN", 0.25),
		FetchTimeoutSeconds: getEnvInt("FETCH_TIMEOUT_SECONDS", 30),
	}

	// Every provider is optional: each missing one just shortens a fallback
	// chain. The pipeline degrades to a silent Ken Burns slideshow with
	// nothing configured at all.
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
