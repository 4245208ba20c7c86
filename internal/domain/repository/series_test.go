package repository

import "testing"

func TestIsValidSeries(t *testing.T) {
	for _, s := range []Series{SeriesPolicy, SeriesInterbank, SeriesDeposit} {
		if !IsValidSeries(s) {
			t.Fatalf("%q must be valid", s)
		}
	}
	if IsValidSeries("libor") {
		t.Fatalf("unknown series accepted")
	}
}

func TestNormalizeSeries(t *testing.T) {
	if got := NormalizeSeries(""); got != SeriesInterbank {
		t.Fatalf("empty normalizes to %q", got)
	}
	if got := NormalizeSeries("policy"); got != SeriesPolicy {
		t.Fatalf("policy normalizes to %q", got)
	}
	if got := NormalizeSeries("eonia"); got != SeriesInterbank {
		t.Fatalf("unknown normalizes to %q", got)
	}
}
