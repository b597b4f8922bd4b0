package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petloop/memoryreel/internal/services"
)

type stubStory struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubStory) GenerateStory(ctx context.Context, petName string, imageCount int) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *stubStory) Name() string { return s.name }

type stubTTS struct {
	name  string
	audio []byte
	err   error
	calls int
}

func (s *stubTTS) GenerateSpeech(ctx context.Context, text string) (*services.TTSResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &services.TTSResponse{AudioData: s.audio, Format: "mp3"}, nil
}

func (s *stubTTS) Name() string { return s.name }

func TestStoryTextLiteralWins(t *testing.T) {
	primary := &stubStory{name: "a", text: "generated"}
	n := NewNarrator([]services.StoryGenerator{primary}, nil, nil)

	got := n.StoryText(context.Background(), "my own words", true, "Buddy", 3)
	assert.Equal(t, "my own words", got)
	assert.Zero(t, primary.calls, "providers must not be called for literal stories")
}

func TestStoryTextProviderOrder(t *testing.T) {
	primary := &stubStory{name: "a", err: errors.New("quota")}
	secondary := &stubStory{name: "b", text: "from b"}
	n := NewNarrator([]services.StoryGenerator{primary, secondary}, nil, nil)

	got := n.StoryText(context.Background(), "", false, "Buddy", 3)
	assert.Equal(t, "from b", got)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestStoryTextShortCircuits(t *testing.T) {
	primary := &stubStory{name: "a", text: "from a"}
	secondary := &stubStory{name: "b", text: "from b"}
	n := NewNarrator([]services.StoryGenerator{primary, secondary}, nil, nil)

	got := n.StoryText(context.Background(), "", false, "Buddy", 3)
	assert.Equal(t, "from a", got)
	assert.Zero(t, secondary.calls, "secondary must not run when primary succeeds")
}

func TestStoryTextFixedFallback(t *testing.T) {
	primary := &stubStory{name: "a", err: errors.New("down")}
	secondary := &stubStory{name: "b", err: errors.New("also down")}
	n := NewNarrator([]services.StoryGenerator{primary, secondary}, nil, nil)

	got := n.StoryText(context.Background(), "", false, "Buddy", 3)
	assert.Contains(t, got, "Buddy", "fixed narration mentions the pet by name")
}

func TestStoryTextNoProviders(t *testing.T) {
	n := NewNarrator(nil, nil, nil)
	got := n.StoryText(context.Background(), "", false, "Mittens", 1)
	assert.Contains(t, got, "Mittens")
}

func TestSpeakFallbackChain(t *testing.T) {
	first := &stubTTS{name: "c", err: errors.New("401")}
	second := &stubTTS{name: "d", audio: []byte("mp3-bytes")}
	n := NewNarrator(nil, []services.TTSService{first, second}, nil)

	audio, err := n.Speak(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestSpeakAllProvidersFail(t *testing.T) {
	first := &stubTTS{name: "c", err: errors.New("401")}
	second := &stubTTS{name: "d", err: errors.New("503")}
	n := NewNarrator(nil, []services.TTSService{first, second}, nil)

	_, err := n.Speak(context.Background(), "hello")
	assert.Error(t, err)
}

func TestSpeakNoProviders(t *testing.T) {
	n := NewNarrator(nil, nil, nil)
	_, err := n.Speak(context.Background(), "hello")
	assert.Error(t, err)
}

func TestSynthesizeSilenceFallback(t *testing.T) {
	// Narration never fails the request: with every speech provider down,
	// the output is a silence track of the requested duration.
	first := &stubTTS{name: "a", err: errors.New("quota exceeded")}
	second := &stubTTS{name: "b", err: errors.New("service down")}
	renderer := &stubRenderer{}
	n := NewNarrator(nil, []services.TTSService{first, second}, renderer)
	wd := testWorkdir(t)

	path, err := n.Synthesize(context.Background(), wd, "a lovely week", 7)
	require.NoError(t, err)
	assert.Equal(t, wd.Path("narration.mp3"), path)

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	require.Len(t, renderer.silence, 1)
	assert.Equal(t, 7, renderer.silence[0])
}

func TestSynthesizeWritesSpeechFile(t *testing.T) {
	voice := &stubTTS{name: "c", audio: []byte("speech-bytes")}
	n := NewNarrator(nil, []services.TTSService{voice}, nil)
	wd := testWorkdir(t)

	path, err := n.Synthesize(context.Background(), wd, "a lovely week", 5)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("speech-bytes"), got)
}
