package geoip

import "testing"

func TestLookupASNFallsBackOnMissingDatabase(t *testing.T) {
	if got := LookupASN("/nonexistent/asn.mmdb", "8.8.8.8"); got != DefaultProbeASN {
		t.Fatalf("got %q, want %q", got, DefaultProbeASN)
	}
}

func TestLookupCCFallsBackOnMissingDatabase(t *testing.T) {
	if got := LookupCC("/nonexistent/country.mmdb", "8.8.8.8"); got != DefaultProbeCC {
		t.Fatalf("got %q, want %q", got, DefaultProbeCC)
	}
}
