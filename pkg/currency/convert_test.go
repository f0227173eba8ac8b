package currency

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantCode string
		wantNil  bool
	}{
		{
			name:     "known code",
			code:     "INR",
			wantCode: "INR",
		},
		{
			name:     "lowercase code",
			code:     "usd",
			wantCode: "USD",
		},
		{
			name:     "surrounding whitespace",
			code:     " eur ",
			wantCode: "EUR",
		},
		{
			name:    "unknown code",
			code:    "XXX",
			wantNil: true,
		},
		{
			name:    "empty code",
			code:    "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lookup(tt.code)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Lookup(%q) = %v, want nil", tt.code, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Lookup(%q) = nil, want %q", tt.code, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Lookup(%q).Code = %q, want %q", tt.code, got.Code, tt.wantCode)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "known code kept",
			code: "USD",
			want: "USD",
		},
		{
			name: "lowercase canonicalized",
			code: "inr",
			want: "INR",
		},
		{
			name: "unknown falls back to default",
			code: "DOGE",
			want: DefaultCode,
		},
		{
			name: "empty falls back to default",
			code: "",
			want: DefaultCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.code); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		code   string
		want   int64
	}{
		{
			name:   "rupees to paise",
			amount: 120.50,
			code:   "INR",
			want:   12050,
		},
		{
			name:   "whole amount",
			amount: 300,
			code:   "INR",
			want:   30000,
		},
		{
			name:   "rounding",
			amount: 0.105,
			code:   "USD",
			want:   11,
		},
		{
			name:   "zero decimal currency",
			amount: 500,
			code:   "JPY",
			want:   500,
		},
		{
			name:   "three decimal currency",
			amount: 1.250,
			code:   "KWD",
			want:   1250,
		},
		{
			name:   "unknown currency assumes two decimals",
			amount: 10,
			code:   "XXX",
			want:   1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMinorUnits(tt.amount, tt.code); got != tt.want {
				t.Errorf("ToMinorUnits(%v, %q) = %d, want %d", tt.amount, tt.code, got, tt.want)
			}
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	tests := []struct {
		name  string
		minor int64
		code  string
		want  float64
	}{
		{
			name:  "paise to rupees",
			minor: 12050,
			code:  "INR",
			want:  120.50,
		},
		{
			name:  "yen unchanged",
			minor: 500,
			code:  "JPY",
			want:  500,
		},
		{
			name:  "dinar three decimals",
			minor: 1250,
			code:  "KWD",
			want:  1.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromMinorUnits(tt.minor, tt.code); got != tt.want {
				t.Errorf("FromMinorUnits(%d, %q) = %v, want %v", tt.minor, tt.code, got, tt.want)
			}
		})
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	amounts := []float64{0, 0.01, 1, 49.99, 120.50, 99999.99}

	for _, amount := range amounts {
		minor := ToMinorUnits(amount, "INR")
		back := FromMinorUnits(minor, "INR")
		if back != amount {
			t.Errorf("round trip for %v: got %v via %d", amount, back, minor)
		}
	}
}
