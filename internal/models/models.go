package models

import "fmt"

// Duration bounds for a composed memory video. Requests outside the range
// are clamped, not rejected.
const (
	MinDurationSeconds     = 5
	MaxDurationSeconds     = 60
	DefaultDurationSeconds = 20

	// Slideshow-only endpoint bounds
	MinPerImageSeconds     = 1
	MaxPerImageSeconds     = 15
	DefaultPerImageSeconds = 2
)

// ComposeRequest is the body of POST /compose.
type ComposeRequest struct {
	Images             []string `json:"images"`
	Story              *string  `json:"story,omitempty"`
	MusicURL           *string  `json:"musicUrl,omitempty"`
	PetName            *string  `json:"petName,omitempty"`
	GenerateStory      bool     `json:"generateStory,omitempty"`
	MaxDurationSeconds *int     `json:"maxDurationSeconds,omitempty"`
	UseMotionAI        bool     `json:"useMotionAI,omitempty"`
	VisualPrompt       *string  `json:"visualPrompt,omitempty"`
}

// Validate rejects requests that can never produce a video. Everything else
// is normalized by the accessors below.
func (r *ComposeRequest) Validate() error {
	if len(r.Images) == 0 {
		return fmt.Errorf("images is required and must be a non-empty array")
	}
	return nil
}

// Duration returns the clamped total duration budget in seconds.
func (r *ComposeRequest) Duration() int {
	d := DefaultDurationSeconds
	if r.MaxDurationSeconds != nil {
		d = *r.MaxDurationSeconds
	}
	return ClampDuration(d)
}

// Pet returns the pet name or a friendly default.
func (r *ComposeRequest) Pet() string {
	if r.PetName != nil && *r.PetName != "" {
		return *r.PetName
	}
	return "your pet"
}

// LiteralStory returns the caller-supplied story text when it should be used
// verbatim (present and generation not requested).
func (r *ComposeRequest) LiteralStory() (string, bool) {
	if r.Story != nil && *r.Story != "" && !r.GenerateStory {
		return *r.Story, true
	}
	return "", false
}

// TTSRequest is the body of POST /tts.
type TTSRequest struct {
	Text string `json:"text"`
}

func (r *TTSRequest) Validate() error {
	if r.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

// SlideshowRequest is the body of POST /photo-to-video.
type SlideshowRequest struct {
	Images          []string `json:"images"`
	PerImageSeconds *int     `json:"perImageSeconds,omitempty"`
}

func (r *SlideshowRequest) Validate() error {
	if len(r.Images) == 0 {
		return fmt.Errorf("images is required and must be a non-empty array")
	}
	return nil
}

// PerImage returns the clamped per-image display duration in seconds.
func (r *SlideshowRequest) PerImage() int {
	s := DefaultPerImageSeconds
	if r.PerImageSeconds != nil {
		s = *r.PerImageSeconds
	}
	if s < MinPerImageSeconds {
		s = MinPerImageSeconds
	}
	if s > MaxPerImageSeconds {
		s = MaxPerImageSeconds
	}
	return s
}

// ClampDuration bounds a requested total duration to [5,60] seconds.
func ClampDuration(seconds int) int {
	if seconds < MinDurationSeconds {
		return MinDurationSeconds
	}
	if seconds > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return seconds
}

// PerClipSeconds divides the total duration budget evenly across images,
// floored, with a 1-second minimum per clip.
func PerClipSeconds(totalSeconds, imageCount int) int {
	if imageCount <= 0 {
		return MinPerImageSeconds
	}
	per := totalSeconds / imageCount
	if per < 1 {
		per = 1
	}
	return per
}

// SilenceSeconds is the duration of the silent narration fallback:
// the slideshow's natural length, bounded to [5, maxDuration].
func SilenceSeconds(imageCount, perClipSeconds, maxDurationSeconds int) int {
	d := imageCount * perClipSeconds
	if d < MinDurationSeconds {
		d = MinDurationSeconds
	}
	if d > maxDurationSeconds {
		d = maxDurationSeconds
	}
	return d
}
