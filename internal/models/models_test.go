package models

import "testing"

func TestClampDuration(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 5},
		{4, 5},
		{5, 5},
		{20, 20},
		{60, 60},
		{61, 60},
		{1000, 60},
	}

	for _, c := range cases {
		if got := ClampDuration(c.in); got != c.want {
			t.Errorf("ClampDuration(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPerClipSeconds(t *testing.T) {
	// 10s over 2 images → 5s each
	if got := PerClipSeconds(10, 2); got != 5 {
		t.Errorf("PerClipSeconds(10, 2) = %d, want 5", got)
	}

	// Floored division
	if got := PerClipSeconds(10, 3); got != 3 {
		t.Errorf("PerClipSeconds(10, 3) = %d, want 3", got)
	}

	// Minimum 1 second per clip even with many images
	if got := PerClipSeconds(5, 20); got != 1 {
		t.Errorf("PerClipSeconds(5, 20) = %d, want 1", got)
	}

	if got := PerClipSeconds(10, 0); got != MinPerImageSeconds {
		t.Errorf("PerClipSeconds(10, 0) = %d, want %d", got, MinPerImageSeconds)
	}
}

func TestSilenceSeconds(t *testing.T) {
	// Natural length within bounds
	if got := SilenceSeconds(4, 3, 20); got != 12 {
		t.Errorf("SilenceSeconds(4, 3, 20) = %d, want 12", got)
	}

	// Floor at 5
	if got := SilenceSeconds(2, 1, 20); got != 5 {
		t.Errorf("SilenceSeconds(2, 1, 20) = %d, want 5", got)
	}

	// Capped at the request's duration budget
	if got := SilenceSeconds(10, 5, 30); got != 30 {
		t.Errorf("SilenceSeconds(10, 5, 30) = %d, want 30", got)
	}
}

func TestComposeRequestDefaults(t *testing.T) {
	req := ComposeRequest{Images: []string{"http://example.com/a.jpg"}}

	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if got := req.Duration(); got != DefaultDurationSeconds {
		t.Errorf("Duration() = %d, want %d", got, DefaultDurationSeconds)
	}

	if got := req.Pet(); got != "your pet" {
		t.Errorf("Pet() = %q, want %q", got, "your pet")
	}

	if _, ok := req.LiteralStory(); ok {
		t.Error("LiteralStory() should be false with no story")
	}
}

func TestComposeRequestValidate(t *testing.T) {
	req := ComposeRequest{}
	if err := req.Validate(); err == nil {
		t.Error("expected validation error for empty images")
	}
}

func TestLiteralStory(t *testing.T) {
	story := "Buddy had a great week."

	req := ComposeRequest{Images: []string{"x"}, Story: &story}
	if s, ok := req.LiteralStory(); !ok || s != story {
		t.Errorf("LiteralStory() = (%q, %v), want (%q, true)", s, ok, story)
	}

	// generateStory=true means the literal text is only a hint, not final
	req.GenerateStory = true
	if _, ok := req.LiteralStory(); ok {
		t.Error("LiteralStory() should be false when generateStory is set")
	}
}

func TestSlideshowPerImage(t *testing.T) {
	req := SlideshowRequest{Images: []string{"x"}}
	if got := req.PerImage(); got != DefaultPerImageSeconds {
		t.Errorf("PerImage() = %d, want %d", got, DefaultPerImageSeconds)
	}

	big := 100
	req.PerImageSeconds = &big
	if got := req.PerImage(); got != MaxPerImageSeconds {
		t.Errorf("PerImage() = %d, want %d", got, MaxPerImageSeconds)
	}

	zero := 0
	req.PerImageSeconds = &zero
	if got := req.PerImage(); got != MinPerImageSeconds {
		t.Errorf("PerImage() = %d, want %d", got, MinPerImageSeconds)
	}
}

func TestTTSRequestValidate(t *testing.T) {
	req := TTSRequest{}
	if err := req.Validate(); err == nil {
		t.Error("expected validation error for empty text")
	}

	req.Text = "hello"
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
