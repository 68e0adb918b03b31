package store

import "testing"

func TestCacheKeys(t *testing.T) {
	if got := ProfileKey("abc"); got != "researcher_profile:abc" {
		t.Fatalf("unexpected profile key %q", got)
	}
	if got := StatsKey("abc"); got != "researcher_stats:abc" {
		t.Fatalf("unexpected stats key %q", got)
	}
}

func TestIsLegacyHexID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"507F1F77BCF86CD799439011", true},
		{"507f1f77bcf86cd79943901", false},  // 23 chars
		{"507f1f77bcf86cd7994390111", false}, // 25 chars
		{"507f1f77bcf86cd79943901z", false},  // non-hex
		{"", false},
		{"nanoid-style-identifier!", false},
	}
	for _, tc := range cases {
		if got := IsLegacyHexID(tc.id); got != tc.want {
			t.Fatalf("IsLegacyHexID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}
