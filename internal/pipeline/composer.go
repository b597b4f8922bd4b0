package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/petloop/memoryreel/internal/cache"
	"github.com/petloop/memoryreel/internal/models"
	"github.com/petloop/memoryreel/internal/services"
)

// Renderer is the ffmpeg surface the pipeline drives. FFmpegService is the
// only production implementation.
type Renderer interface {
	RenderKenBurnsClip(ctx context.Context, imagePath, outputPath string, durationSec int) error
	NormalizeClip(ctx context.Context, inputPath, outputPath string, durationSec int) error
	CrossfadeStep(ctx context.Context, accPath, nextPath, outputPath string, accumulatedSec, fadeSec float64) error
	RenderSilence(ctx context.Context, outputPath string, durationSec int) error
	Mux(ctx context.Context, videoPath, narrationPath, musicPath, outputPath string, musicGain float64) error
	GetDuration(ctx context.Context, path string) (float64, error)
}

// Composer runs the one-shot pipeline: ingest → motion → sequence →
// narration → mux. One invocation per request, no state shared between
// invocations beyond the injected clients.
type Composer struct {
	workRoot string
	ingestor *Ingestor
	narrator *Narrator
	ffmpeg   Renderer
	motion   services.MotionGenerator // nil = AI motion disabled process-wide
	cache    *cache.Cache             // nil = no music cache
	client   *http.Client             // music fetch

	fadeSeconds float64
	musicGain   float64
}

type ComposerOptions struct {
	WorkRoot    string
	Ingestor    *Ingestor
	Narrator    *Narrator
	FFmpeg      Renderer
	Motion      services.MotionGenerator
	Cache       *cache.Cache
	FetchClient *http.Client
	FadeSeconds float64
	MusicGain   float64
}

func NewComposer(opts ComposerOptions) *Composer {
	client := opts.FetchClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Composer{
		workRoot:    opts.WorkRoot,
		ingestor:    opts.Ingestor,
		narrator:    opts.Narrator,
		ffmpeg:      opts.FFmpeg,
		motion:      opts.Motion,
		cache:       opts.Cache,
		client:      client,
		fadeSeconds: opts.FadeSeconds,
		musicGain:   opts.MusicGain,
	}
}

// Narrator exposes the narration stage for the /tts endpoint, which uses
// only its speech half.
func (c *Composer) Narrator() *Narrator {
	return c.narrator
}

// Compose runs the full pipeline and returns the path of the final muxed
// video plus the working directory that owns it. The caller must call
// wd.Remove once the file has been streamed — including when err != nil
// and wd is non-nil.
func (c *Composer) Compose(ctx context.Context, req *models.ComposeRequest) (string, *Workdir, error) {
	wd, err := NewWorkdir(c.workRoot)
	if err != nil {
		return "", nil, err
	}

	// Stage 1: ingest
	imagePaths, err := c.ingestor.Ingest(ctx, wd, req.Images)
	if err != nil {
		return "", wd, err
	}

	perClip := models.PerClipSeconds(req.Duration(), len(imagePaths))

	// Stage 2: motion
	clips, err := c.synthesizeClips(ctx, wd, imagePaths, perClip, req.UseMotionAI, motionPrompt(req))
	if err != nil {
		return "", wd, err
	}

	// Stage 3: sequence
	silentVideo, err := c.sequence(ctx, wd, clips, perClip)
	if err != nil {
		return "", wd, err
	}

	// Stage 4: narration — never fails except for a broken ffmpeg install
	literal, useLiteral := req.LiteralStory()
	story := c.narrator.StoryText(ctx, literal, useLiteral, req.Pet(), len(imagePaths))
	silenceSec := models.SilenceSeconds(len(imagePaths), perClip, req.Duration())
	narrationPath, err := c.narrator.Synthesize(ctx, wd, story, silenceSec)
	if err != nil {
		return "", wd, err
	}

	// Music is optional and its fetch failure means "no music", not an error
	musicPath := ""
	if req.MusicURL != nil && *req.MusicURL != "" {
		musicPath, err = c.fetchMusic(ctx, wd, *req.MusicURL)
		if err != nil {
			log.Printf("[Compose] music fetch failed, continuing without music: %v", err)
			musicPath = ""
		}
	}

	// Stage 5: mux
	outputPath := wd.Path("final.mp4")
	if err := c.ffmpeg.Mux(ctx, silentVideo, narrationPath, musicPath, outputPath, c.musicGain); err != nil {
		return "", wd, err
	}

	if dur, derr := c.ffmpeg.GetDuration(ctx, outputPath); derr != nil {
		log.Printf("[Compose] could not probe final duration: %v", derr)
	} else {
		log.Printf("[Compose] final video ready (%.1fs)", dur)
	}

	return outputPath, wd, nil
}

// Slideshow runs only the visual half of the pipeline: ingest, Ken Burns
// motion, crossfade fold. The result is a silent video.
func (c *Composer) Slideshow(ctx context.Context, req *models.SlideshowRequest) (string, *Workdir, error) {
	wd, err := NewWorkdir(c.workRoot)
	if err != nil {
		return "", nil, err
	}

	imagePaths, err := c.ingestor.Ingest(ctx, wd, req.Images)
	if err != nil {
		return "", wd, err
	}

	perClip := req.PerImage()

	clips, err := c.synthesizeClips(ctx, wd, imagePaths, perClip, false, "")
	if err != nil {
		return "", wd, err
	}

	return c.finishSequence(ctx, wd, clips, perClip)
}

func motionPrompt(req *models.ComposeRequest) string {
	if req.VisualPrompt != nil && *req.VisualPrompt != "" {
		return *req.VisualPrompt
	}
	return services.DefaultMotionPrompt
}

// synthesizeClips produces one clip per image, all sharing the request's
// geometry and duration. AI motion failures are isolated per image — each
// one falls back to the Ken Burns effect on its own.
func (c *Composer) synthesizeClips(ctx context.Context, wd *Workdir, imagePaths []string, perClip int, useAI bool, prompt string) ([]string, error) {
	clips := make([]string, 0, len(imagePaths))

	for i, imagePath := range imagePaths {
		clipPath := wd.Path(fmt.Sprintf("clip_%d.mp4", i))

		if useAI && c.motion != nil {
			if err := c.aiClip(ctx, wd, imagePath, clipPath, i, perClip, prompt); err == nil {
				clips = append(clips, clipPath)
				continue
			} else {
				log.Printf("[Compose] AI motion failed for image %d, falling back to Ken Burns: %v", i, err)
			}
		}

		if err := c.ffmpeg.RenderKenBurnsClip(ctx, imagePath, clipPath, perClip); err != nil {
			return nil, fmt.Errorf("ken burns render failed for image %d: %w", i, err)
		}
		clips = append(clips, clipPath)
	}

	return clips, nil
}

// aiClip requests a motion clip from the external generator and normalizes
// it into the request's geometry.
func (c *Composer) aiClip(ctx context.Context, wd *Workdir, imagePath, clipPath string, index, perClip int, prompt string) error {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	videoBytes, err := c.motion.GenerateMotion(ctx, prompt, imageData, mimeForPath(imagePath), perClip)
	if err != nil {
		return err
	}

	rawPath := wd.Path(fmt.Sprintf("motion_raw_%d.mp4", index))
	if err := os.WriteFile(rawPath, videoBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write motion clip: %w", err)
	}

	return c.ffmpeg.NormalizeClip(ctx, rawPath, clipPath, perClip)
}

// sequence left-folds the clips with crossfade transitions. N=1 is a no-op.
// The accumulator's duration is tracked so each step's fade offset lands at
// accumulated − fade, giving a final duration of Σ perClip − (N−1)·fade.
func (c *Composer) sequence(ctx context.Context, wd *Workdir, clips []string, perClip int) (string, error) {
	if len(clips) == 1 {
		return clips[0], nil
	}

	fade := services.ClampFade(c.fadeSeconds, perClip)

	acc := clips[0]
	accDur := float64(perClip)
	for i := 1; i < len(clips); i++ {
		out := wd.Path(fmt.Sprintf("seq_%d.mp4", i))
		if err := c.ffmpeg.CrossfadeStep(ctx, acc, clips[i], out, accDur, fade); err != nil {
			return "", fmt.Errorf("crossfade step %d failed: %w", i, err)
		}
		accDur += float64(perClip) - fade
		acc = out
	}

	log.Printf("[Compose] sequenced %d clips (fade=%.2fs, total=%.1fs)", len(clips), fade, accDur)
	return acc, nil
}

func (c *Composer) finishSequence(ctx context.Context, wd *Workdir, clips []string, perClip int) (string, *Workdir, error) {
	out, err := c.sequence(ctx, wd, clips, perClip)
	if err != nil {
		return "", wd, err
	}
	return out, wd, nil
}

// fetchMusic downloads the background-music track, consulting the optional
// Redis cache first.
func (c *Composer) fetchMusic(ctx context.Context, wd *Workdir, url string) (string, error) {
	path := wd.Path("music" + audioExtension(url))

	if data, ok := c.cache.GetMusic(ctx, url); ok {
		log.Printf("[Compose] music cache hit (%d bytes)", len(data))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write cached music: %w", err)
		}
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("music fetch failed: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("music fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("music fetch failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("music fetch failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write music: %w", err)
	}

	c.cache.PutMusic(ctx, url, data)
	return path, nil
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func audioExtension(url string) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(url, "?", 2)[0]))
	switch ext {
	case ".mp3", ".m4a", ".aac", ".wav", ".ogg":
		return ext
	default:
		return ".mp3"
	}
}
