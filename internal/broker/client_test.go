package broker

import "testing"

func TestSubject(t *testing.T) {
	tests := []struct {
		band string
		want string
	}{
		{"20m", "pskr.filter.v2.20m.spot"},
		{"70cm", "pskr.filter.v2.70cm.spot"},
		{"160m", "pskr.filter.v2.160m.spot"},
	}

	for _, tt := range tests {
		if got := Subject(tt.band); got != tt.want {
			t.Errorf("Subject(%q) = %q, want %q", tt.band, got, tt.want)
		}
	}
}
