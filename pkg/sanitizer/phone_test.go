package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{
			name:  "local mobile number",
			input: "01712345678",
			want:  "+8801712345678",
		},
		{
			name:  "already E.164",
			input: "+8801712345678",
			want:  "+8801712345678",
		},
		{
			name:  "with spaces and dashes",
			input: " 017-1234 5678 ",
			want:  "+8801712345678",
		},
		{
			name:   "explicit region",
			input:  "(212) 555-1234",
			region: "US",
			want:   "+12125551234",
		},
		{
			name:  "foreign number with country code",
			input: "+1 212 555 1234",
			want:  "+12125551234",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "letters",
			input: "call me",
			want:  "",
		},
		{
			name:  "too short",
			input: "0171",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input, tt.region)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("01712345678", "")
	if twice := NormalizePhone(once, ""); twice != once {
		t.Errorf("second pass changed %q to %q", once, twice)
	}
}
