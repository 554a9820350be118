package telemetry_test

import (
	"testing"

	"github.com/kinechobot/kinecho/internal/telemetry"
)

func TestCountText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want telemetry.TextFeatures
	}{
		{"empty", "", telemetry.TextFeatures{}},
		{"single word", "hello", telemetry.TextFeatures{Bytes: 5, Runes: 5, Words: 1, Lines: 1}},
		{"two words", "hello world", telemetry.TextFeatures{Bytes: 11, Runes: 11, Words: 2, Lines: 1}},
		{"multiline", "a\nb\nc", telemetry.TextFeatures{Bytes: 5, Runes: 5, Words: 3, Lines: 3}},
		{"multibyte runes", "héllo", telemetry.TextFeatures{Bytes: 6, Runes: 5, Words: 1, Lines: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := telemetry.CountText(tc.in); got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}
