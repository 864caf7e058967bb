package powerline

import "testing"

func TestForTimezone(t *testing.T) {
	tests := []struct {
		timezone string
		want     float64
	}{
		{"Europe/Berlin", 50},
		{"Europe/London", 50},
		{"Asia/Shanghai", 50},
		{"Australia/Sydney", 50},
		{"Asia/Tokyo", 50}, // mixed-grid country, Tokyo side

		{"America/New_York", 60},
		{"America/Mexico_City", 60},
		{"America/Sao_Paulo", 60},
		{"Asia/Seoul", 60},
		{"Asia/Taipei", 60},

		{"UTC", 50},
		{"GMT", 50},
		{"Etc/GMT+5", 50},
	}
	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			if got := ForTimezone(tt.timezone); got != tt.want {
				t.Errorf("ForTimezone(%q) = %g, want %g", tt.timezone, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	if hz := Detect(); hz != 50 && hz != 60 {
		t.Errorf("Detect() = %g, want 50 or 60", hz)
	}
}
