package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "multiple spaces",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\nworld",
			want:  "hello world",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Garage™ ",
			want:  "Café & Garage™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Central Park Garage  ",
			want:  "Central Park Garage",
		},
		{
			name:  "multiple spaces between words",
			input: "Central    Park   Garage",
			want:  "Central Park Garage",
		},
		{
			name:  "preserve case and punctuation",
			input: " Raj's Parking ",
			want:  "Raj's Parking",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "city with space",
			input: "Tel Aviv",
			want:  "tel_aviv",
		},
		{
			name:  "hyphenated tag",
			input: "ev-charging",
			want:  "ev_charging",
		},
		{
			name:  "mixed separators",
			input: "  Covered -- Parking  ",
			want:  "covered_parking",
		},
		{
			name:  "digits preserved",
			input: "Sector 21",
			want:  "sector_21",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only specials",
			input: "-- && --",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKey(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
