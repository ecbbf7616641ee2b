package shared

import "testing"

func TestNormalizeText(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"Simon & Garfunkel", "simon and garfunkel"},
		{"Don't Stop (Remastered)", "don t stop remastered"},
		{"  AC/DC  ", "ac dc"},
		{"Björk", "björk"},
		{"", ""},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Song Title", want: "Song Title"},
		{name: "separators", in: "AC/DC: Live?", want: "AC_DC_ Live_"},
		{name: "trailing dots", in: "Untitled...", want: "Untitled"},
		{name: "collapses spaces", in: "a   b\tc", want: "a b c"},
		{name: "control characters", in: "a\x07b", want: "a_b"},
		{name: "empty uses fallback", in: " .. ", want: "Unknown"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in, "Unknown"); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("caps length", func(t *testing.T) {
		long := ""
		for range 200 {
			long += "x"
		}
		if got := SanitizeFilename(long, "Unknown"); len([]rune(got)) != 120 {
			t.Errorf("expected 120 runes, got %d", len([]rune(got)))
		}
	})
}
