package sanitizer

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare domain gets https",
			input: "parkly.example.com",
			want:  "https://parkly.example.com",
		},
		{
			name:  "http upgraded",
			input: "http://parkly.example.com",
			want:  "https://parkly.example.com",
		},
		{
			name:  "www stripped",
			input: "https://www.parkly.example.com/garages",
			want:  "https://parkly.example.com/garages",
		},
		{
			name:  "trailing slash removed",
			input: "https://parkly.example.com/garages/",
			want:  "https://parkly.example.com/garages",
		},
		{
			name:  "utm parameters dropped",
			input: "https://parkly.example.com/g?utm_source=ad&floor=2",
			want:  "https://parkly.example.com/g?floor=2",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "garbage",
			input: "ht!tp://%%%",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURL(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{
			name:  "negative clamped to zero",
			input: -10,
			want:  0,
		},
		{
			name:  "above maximum clamped",
			input: 2000000,
			want:  MaxPricePerHour,
		},
		{
			name:  "rounded to two decimals",
			input: 49.999,
			want:  50,
		},
		{
			name:  "fractional paise rounded",
			input: 33.333,
			want:  33.33,
		},
		{
			name:  "unchanged in range",
			input: 75.5,
			want:  75.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePrice(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
