package models

import "testing"

func TestParseScanStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want ScanStatus
	}{
		{"clean", StatusClean},
		{"Clean", StatusClean},
		{" INFECTED ", StatusInfected},
		{"error", StatusError},
		{"", StatusError},
		{"pending", StatusError},
	}

	for _, tt := range tests {
		if got := ParseScanStatus(tt.raw); got != tt.want {
			t.Errorf("ParseScanStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestScanFileResultInfected(t *testing.T) {
	if !(ScanFileResult{Status: "infected"}).Infected() {
		t.Error("Expected infected result to report Infected()")
	}
	if (ScanFileResult{Status: "clean"}).Infected() {
		t.Error("Expected clean result not to report Infected()")
	}
}
