package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Rahim Uddin  ",
			want:  "Rahim Uddin",
		},
		{
			name:  "multiple spaces between words",
			input: "Rahim    Uddin",
			want:  "Rahim Uddin",
		},
		{
			name:  "tabs and newlines",
			input: "Rahim\t\nUddin",
			want:  "Rahim Uddin",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Arena & Co™ ",
			want:  "Arena & Co™",
		},
		{
			name:  "bengali characters",
			input: " রহিম   উদ্দিন ",
			want:  "রহিম উদ্দিন",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Player@Example.COM "); got != "player@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
