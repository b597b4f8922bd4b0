package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/petloop/memoryreel/internal/services"
)

// Narrator owns stage four: turning a request into exactly one playable
// audio track. Both of its fallback chains are strict ordered sequences —
// first success wins — and the terminal fallbacks (fixed sentence, silence
// track) cannot fail, so narration never fails the request.
type Narrator struct {
	stories []services.StoryGenerator // tried in order; may be empty
	voices  []services.TTSService     // tried in order; may be empty
	ffmpeg  Renderer
}

func NewNarrator(stories []services.StoryGenerator, voices []services.TTSService, ffmpeg Renderer) *Narrator {
	return &Narrator{stories: stories, voices: voices, ffmpeg: ffmpeg}
}

// fallbackStory is the hard-coded terminal state of the text chain.
func fallbackStory(petName string) string {
	return fmt.Sprintf("Another week of memories with %s. Every moment together is a gift.", petName)
}

// StoryText resolves the narration text. literal is used verbatim when
// provided; otherwise providers are tried in order, ending at the fixed
// sentence. All outcomes are valid — no error is ever returned upward.
func (n *Narrator) StoryText(ctx context.Context, literal string, useLiteral bool, petName string, imageCount int) string {
	if useLiteral {
		return literal
	}

	for _, gen := range n.stories {
		story, err := gen.GenerateStory(ctx, petName, imageCount)
		if err != nil {
			log.Printf("[Narration] story provider %s failed: %v", gen.Name(), err)
			continue
		}
		return story
	}

	log.Printf("[Narration] all story providers exhausted, using fixed narration")
	return fallbackStory(petName)
}

// Synthesize renders text to a speech file inside wd, walking the TTS
// chain and ending at a silence track of silenceSec seconds. The returned
// path always points at a playable audio file, named after the format the
// winning provider reports.
func (n *Narrator) Synthesize(ctx context.Context, wd *Workdir, text string, silenceSec int) (string, error) {
	if resp, err := n.speak(ctx, text); err == nil {
		path := wd.Path("narration." + resp.Format)
		if werr := os.WriteFile(path, resp.AudioData, 0o644); werr == nil {
			log.Printf("[Narration] speech ready (%d bytes, ~%.1fs estimated)",
				len(resp.AudioData), float64(resp.DurationMs)/1000)
			return path, nil
		} else {
			log.Printf("[Narration] failed to write speech file: %v", werr)
		}
	}

	path := wd.Path("narration.mp3")
	log.Printf("[Narration] falling back to %ds silence track", silenceSec)
	if err := n.ffmpeg.RenderSilence(ctx, path, silenceSec); err != nil {
		return "", fmt.Errorf("silence track generation failed: %w", err)
	}
	return path, nil
}

// Speak walks the speech-provider chain and returns raw audio bytes. Unlike
// Synthesize it has no silence fallback; /tts surfaces the error instead.
func (n *Narrator) Speak(ctx context.Context, text string) ([]byte, error) {
	resp, err := n.speak(ctx, text)
	if err != nil {
		return nil, err
	}
	return resp.AudioData, nil
}

func (n *Narrator) speak(ctx context.Context, text string) (*services.TTSResponse, error) {
	var lastErr error
	for _, tts := range n.voices {
		resp, err := tts.GenerateSpeech(ctx, text)
		if err != nil {
			log.Printf("[Narration] speech provider %s failed: %v", tts.Name(), err)
			lastErr = err
			continue
		}
		return resp, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no speech provider configured")
	}
	return nil, lastErr
}
