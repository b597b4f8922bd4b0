package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petloop/memoryreel/internal/api"
	"github.com/petloop/memoryreel/internal/cache"
	"github.com/petloop/memoryreel/internal/config"
	"github.com/petloop/memoryreel/internal/pipeline"
	"github.com/petloop/memoryreel/internal/services"
)

func main() {
	log.Println("Starting memoryreel API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.WorkRoot, 0o755); err != nil {
		log.Fatalf("Failed to create work root %s: %v", cfg.WorkRoot, err)
	}

	ctx := context.Background()

	ffmpegSvc := services.NewFFmpegService(services.RenderSpec{
		Size: cfg.RenderSize,
		FPS:  cfg.RenderFPS,
		Zoom: cfg.ZoomCeiling,
	})

	// Story-text providers, in fallback order
	var stories []services.StoryGenerator
	if cfg.OpenAIKey != "" {
		stories = append(stories, services.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel))
		log.Printf("Story provider: OpenAI (model: %s)", cfg.OpenAIModel)
	}

	// Gemini serves both story fallback and Veo motion generation
	var geminiSvc *services.GeminiService
	if cfg.GeminiKey != "" {
		geminiSvc, err = services.NewGeminiService(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		stories = append(stories, geminiSvc)
		log.Printf("Story provider: Gemini (model: %s)", cfg.GeminiModel)
	}
	if len(stories) == 0 {
		log.Println("No story provider configured — generated stories fall back to the fixed narration")
	}

	// TTS providers, in fallback order
	var voices []services.TTSService
	if cfg.ElevenLabsKey != "" {
		voices = append(voices, services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID))
		log.Println("TTS provider: ElevenLabs")
	}
	if cfg.CartesiaKey != "" {
		voices = append(voices, services.NewCartesiaService(cfg.CartesiaKey, cfg.CartesiaURL, cfg.CartesiaVoiceID))
		log.Println("TTS provider: Cartesia")
	}
	if len(voices) == 0 {
		log.Println("No TTS provider configured — narration falls back to silence")
	}

	// Motion AI is available only when a Gemini key exists; requests still
	// have to opt in via useMotionAI.
	var motion services.MotionGenerator
	if geminiSvc != nil {
		motion = services.NewVeoService(geminiSvc.Client(), cfg.VeoModel)
		log.Printf("Motion generation available (model: %s)", cfg.VeoModel)
	} else {
		log.Println("Motion generation unavailable — all clips use Ken Burns effects")
	}

	// Optional Redis music cache — a connection failure just disables it
	var musicCache *cache.Cache
	if cfg.RedisURL != "" {
		musicCache, err = cache.New(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: Redis unavailable, music cache disabled: %v", err)
			musicCache = nil
		} else {
			defer musicCache.Close()
			log.Println("Music cache: Redis")
		}
	}

	fetchClient := &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSeconds) * time.Second}

	narrator := pipeline.NewNarrator(stories, voices, ffmpegSvc)
	composer := pipeline.NewComposer(pipeline.ComposerOptions{
		WorkRoot:    cfg.WorkRoot,
		Ingestor:    pipeline.NewIngestor(fetchClient),
		Narrator:    narrator,
		FFmpeg:      ffmpegSvc,
		Motion:      motion,
		Cache:       musicCache,
		FetchClient: fetchClient,
		FadeSeconds: cfg.FadeSeconds,
		MusicGain:   cfg.MusicGain,
	})

	handler := api.NewHandler(composer, narrator)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
