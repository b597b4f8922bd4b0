package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/petloop/memoryreel/internal/models"
	"github.com/petloop/memoryreel/internal/pipeline"
)

// Composer is the pipeline surface the handlers drive. Both methods return
// the working directory owning the output file; handlers remove it after
// streaming.
type Composer interface {
	Compose(ctx context.Context, req *models.ComposeRequest) (string, *pipeline.Workdir, error)
	Slideshow(ctx context.Context, req *models.SlideshowRequest) (string, *pipeline.Workdir, error)
}

// SpeechSynthesizer is the speech half of the narration stage, used by /tts.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type Handler struct {
	composer Composer
	speech   SpeechSynthesizer
}

func NewHandler(composer Composer, speech SpeechSynthesizer) *Handler {
	return &Handler{
		composer: composer,
		speech:   speech,
	}
}

// Compose handles POST /compose — the full five-stage pipeline.
func (h *Handler) Compose(w http.ResponseWriter, r *http.Request) {
	var req models.ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outputPath, wd, err := h.composer.Compose(r.Context(), &req)
	defer wd.Remove()
	if err != nil {
		log.Printf("[API] compose failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	streamFile(w, outputPath, "video/mp4")
}

// TTS handles POST /tts — speech synthesis only, no text generation.
func (h *Handler) TTS(w http.ResponseWriter, r *http.Request) {
	var req models.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := h.speech.Speak(r.Context(), req.Text)
	if err != nil {
		log.Printf("[API] tts failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// PhotoToVideo handles POST /photo-to-video — silent Ken Burns slideshow.
func (h *Handler) PhotoToVideo(w http.ResponseWriter, r *http.Request) {
	var req models.SlideshowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outputPath, wd, err := h.composer.Slideshow(r.Context(), &req)
	defer wd.Remove()
	if err != nil {
		log.Printf("[API] photo-to-video failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	streamFile(w, outputPath, "video/mp4")
}

// Health handles GET /health and GET /.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// streamFile copies a finished artifact to the response. Once streaming has
// begun there is no way to signal an error to the caller, so copy failures
// are only logged.
func streamFile(w http.ResponseWriter, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[API] failed to open output file: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to open output")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Printf("[API] streaming interrupted: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
