package storage

import "testing"

func TestValidExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"leaf.jpg", true},
		{"leaf.JPG", true},
		{"swarm.jpeg", true},
		{"trap.png", true},
		{"field.gif", true},
		{"report.pdf", false},
		{"script.sh", false},
		{"noextension", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ValidExtension(tc.filename); got != tc.want {
			t.Errorf("ValidExtension(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}
