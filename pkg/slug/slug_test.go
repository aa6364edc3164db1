package slug

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Inception (2010)", "inception_2010"},
		{"Spider-Man: No Way Home (2021)", "spiderman_no_way_home_2021"},
		{"  Amélie  ", "amelie"},
		{"Crème Brûlée", "creme_brulee"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitle_Truncates(t *testing.T) {
	got := Title(strings.Repeat("a", 80))
	if len(got) != MaxLen {
		t.Errorf("expected %d runes, got %d", MaxLen, len(got))
	}
}
