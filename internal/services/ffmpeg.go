package services

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// FFmpegService
// All video assembly runs through ffmpeg/ffprobe subprocesses: Ken Burns
// motion on stills, crossfade folding, silence tracks, and the final mux.
// ---------------------------------------------------------------------------

// RenderSpec holds the fixed output geometry for every clip in a request.
// Clips entering the crossfade fold must share resolution and frame rate.
type RenderSpec struct {
	Size int // Square edge in pixels
	FPS  int
	Zoom float64 // Terminal Ken Burns zoom factor (start is always 1.0)
}

// FrameInterval is the duration of one output frame in seconds.
func (r RenderSpec) FrameInterval() float64 {
	return 1.0 / float64(r.FPS)
}

type FFmpegService struct {
	spec RenderSpec
}

func NewFFmpegService(spec RenderSpec) *FFmpegService {
	return &FFmpegService{spec: spec}
}

func (s *FFmpegService) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w (output: %s)", args[0], err, tail(string(out), 400))
	}
	return nil
}

// tail returns the last n bytes of s — ffmpeg puts the useful error at the end.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// kenBurnsFilter builds the -vf chain for the programmatic motion effect:
// scale the still to cover the square frame, center-crop, then zoompan with
// a zoom that rises linearly from 1.0 to the configured ceiling across the
// clip's total frame count. Deterministic — same input, same output.
func (s *FFmpegService) kenBurnsFilter(durationSec int) string {
	totalFrames := durationSec * s.spec.FPS
	if totalFrames < s.spec.FPS {
		totalFrames = s.spec.FPS // minimum 1 second
	}

	zExpr := fmt.Sprintf("1.0+%.4f*on/%d", s.spec.Zoom-1.0, totalFrames)

	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		s.spec.Size, s.spec.Size, s.spec.Size, s.spec.Size,
		zExpr, totalFrames, s.spec.Size, s.spec.Size, s.spec.FPS,
	)
}

// RenderKenBurnsClip turns a still image into a silent video clip of the
// given duration with the pan/zoom effect. This is the guaranteed fallback
// path — it only fails on malformed input.
func (s *FFmpegService) RenderKenBurnsClip(ctx context.Context, imagePath, outputPath string, durationSec int) error {
	vf := s.kenBurnsFilter(durationSec)

	log.Printf("[FFmpeg] Ken Burns clip (duration=%ds, filter=%s)", durationSec, vf)

	args := []string{
		"-i", imagePath,
		"-vf", vf,
		"-t", strconv.Itoa(durationSec),
		"-r", strconv.Itoa(s.spec.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	return s.run(ctx, args)
}

// NormalizeClip re-encodes an externally generated video into the request's
// fixed geometry: square crop, configured fps, exact duration. Shorter inputs
// are extended by freezing the last frame (tpad), longer ones are trimmed.
// The source audio track, if any, is dropped.
func (s *FFmpegService) NormalizeClip(ctx context.Context, inputPath, outputPath string, durationSec int) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d,tpad=stop_mode=clone:stop_duration=%d",
		s.spec.Size, s.spec.Size, s.spec.Size, s.spec.Size, s.spec.FPS, durationSec,
	)

	args := []string{
		"-i", inputPath,
		"-vf", vf,
		"-t", strconv.Itoa(durationSec),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	return s.run(ctx, args)
}

// CrossfadeStep blends the tail of the accumulator clip into the head of the
// next clip. accumulatedSec is the current duration of the accumulator; the
// fade starts at accumulatedSec−fadeSec, so the result's duration is
// accumulatedSec + nextClipSec − fadeSec.
func (s *FFmpegService) CrossfadeStep(ctx context.Context, accPath, nextPath, outputPath string, accumulatedSec, fadeSec float64) error {
	offset := accumulatedSec - fadeSec
	if offset < 0 {
		offset = 0
	}

	filter := fmt.Sprintf("[0:v][1:v]xfade=transition=fade:duration=%.3f:offset=%.3f[v]", fadeSec, offset)

	args := []string{
		"-i", accPath,
		"-i", nextPath,
		"-filter_complex", filter,
		"-map", "[v]",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	return s.run(ctx, args)
}

// ClampFade bounds the crossfade overlap so it never consumes a clip:
// at most perClipSec − 0.1s, never negative.
func ClampFade(fadeSec float64, perClipSec int) float64 {
	limit := float64(perClipSec) - 0.1
	if fadeSec > limit {
		fadeSec = limit
	}
	if fadeSec < 0 {
		fadeSec = 0
	}
	return fadeSec
}

// RenderSilence writes a silent stereo MP3 of the given duration. Used as
// the terminal narration fallback when every speech provider fails.
func (s *FFmpegService) RenderSilence(ctx context.Context, outputPath string, durationSec int) error {
	args := []string{
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-t", strconv.Itoa(durationSec),
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-y",
		outputPath,
	}
	return s.run(ctx, args)
}

// Mux merges the silent composed video with the narration track and, when
// musicPath is non-empty, a background music track attenuated to musicGain.
// Video frames are stream-copied; audio is re-encoded to AAC 192k. Output
// duration follows the shortest mapped input.
func (s *FFmpegService) Mux(ctx context.Context, videoPath, narrationPath, musicPath, outputPath string, musicGain float64) error {
	var args []string

	if musicPath == "" {
		args = []string{
			"-i", videoPath,
			"-i", narrationPath,
			"-map", "0:v",
			"-map", "1:a",
			"-c:v", "copy",
			"-c:a", "aac",
			"-b:a", "192k",
			"-shortest",
			"-y",
			outputPath,
		}
	} else {
		// [1:a] narration at full gain, [2:a] music attenuated; mixed track
		// ends with the shorter of the two.
		filter := fmt.Sprintf(
			"[1:a]volume=1.0[narration];[2:a]volume=%.2f[music];[narration][music]amix=inputs=2:duration=shortest[aout]",
			musicGain,
		)
		args = []string{
			"-i", videoPath,
			"-i", narrationPath,
			"-i", musicPath,
			"-filter_complex", filter,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			"-b:a", "192k",
			"-shortest",
			"-y",
			outputPath,
		}
	}

	log.Printf("[FFmpeg] Muxing (music=%v)", musicPath != "")
	return s.run(ctx, args)
}

// GetDuration returns the duration of a media file in seconds using ffprobe.
func (s *FFmpegService) GetDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	durationSec, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return durationSec, nil
}
