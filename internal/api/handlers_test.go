package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petloop/memoryreel/internal/models"
	"github.com/petloop/memoryreel/internal/pipeline"
)

type stubComposer struct {
	root    string
	output  []byte
	err     error
	lastReq *models.ComposeRequest
}

func (s *stubComposer) produce() (string, *pipeline.Workdir, error) {
	wd, err := pipeline.NewWorkdir(s.root)
	if err != nil {
		return "", nil, err
	}
	if s.err != nil {
		return "", wd, s.err
	}
	path := wd.Path("final.mp4")
	if err := os.WriteFile(path, s.output, 0o644); err != nil {
		return "", wd, err
	}
	return path, wd, nil
}

func (s *stubComposer) Compose(ctx context.Context, req *models.ComposeRequest) (string, *pipeline.Workdir, error) {
	s.lastReq = req
	return s.produce()
}

func (s *stubComposer) Slideshow(ctx context.Context, req *models.SlideshowRequest) (string, *pipeline.Workdir, error) {
	return s.produce()
}

type stubSpeech struct {
	audio []byte
	err   error
}

func (s *stubSpeech) Speak(ctx context.Context, text string) ([]byte, error) {
	return s.audio, s.err
}

func newTestRouter(t *testing.T, composer Composer, speech SpeechSynthesizer) http.Handler {
	t.Helper()
	return NewRouter(NewHandler(composer, speech), RouterConfig{})
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestComposeStreamsVideo(t *testing.T) {
	composer := &stubComposer{root: t.TempDir(), output: []byte("mp4-bytes")}
	h := newTestRouter(t, composer, &stubSpeech{})

	rec := post(t, h, "/compose", `{"images":["data:image/png;base64,aGk="],"maxDurationSeconds":10}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp4-bytes", rec.Body.String())
	require.NotNil(t, composer.lastReq)
	assert.Equal(t, 10, composer.lastReq.Duration())
}

func TestComposeRejectsEmptyImages(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{})

	rec := post(t, h, "/compose", `{"images":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestComposeRejectsNonArrayImages(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{})

	rec := post(t, h, "/compose", `{"images":"not-an-array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComposePipelineFailure(t *testing.T) {
	composer := &stubComposer{root: t.TempDir(), err: pipeline.ErrNoValidImages}
	h := newTestRouter(t, composer, &stubSpeech{})

	rec := post(t, h, "/compose", `{"images":["http://example.com/gone.jpg"]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestTTS(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{audio: []byte("mp3-bytes")})

	rec := post(t, h, "/tts", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", rec.Body.String())
}

func TestTTSMissingText(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{})

	rec := post(t, h, "/tts", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTTSSynthesisFailure(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{err: errors.New("no speech provider configured")})

	rec := post(t, h, "/tts", `{"text":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPhotoToVideo(t *testing.T) {
	composer := &stubComposer{root: t.TempDir(), output: []byte("slideshow")}
	h := newTestRouter(t, composer, &stubSpeech{})

	rec := post(t, h, "/photo-to-video", `{"images":["data:image/png;base64,aGk="],"perImageSeconds":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "slideshow", rec.Body.String())
}

func TestPhotoToVideoRejectsEmptyImages(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{})

	rec := post(t, h, "/photo-to-video", `{"images":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, &stubComposer{root: t.TempDir()}, &stubSpeech{})

	for _, path := range []string{"/health", "/"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String(), path)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	handler := NewHandler(&stubComposer{root: t.TempDir()}, &stubSpeech{audio: []byte("x")})
	h := NewRouter(handler, RouterConfig{BackendAPIKey: "secret"})

	// Missing key
	rec := post(t, h, "/tts", `{"text":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key
	req := httptest.NewRequest("POST", "/tts", bytes.NewBufferString(`{"text":"hello"}`))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Correct key
	req = httptest.NewRequest("POST", "/tts", bytes.NewBufferString(`{"text":"hello"}`))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public
	req = httptest.NewRequest("GET", "/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
