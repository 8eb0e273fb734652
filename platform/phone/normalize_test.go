package phone

import "testing"

func TestNormalize_StripsMobileCountryPrefix(t *testing.T) {
	got := Normalize("5493415551234")
	if got != "3415551234" {
		t.Fatalf("expected 3415551234, got %q", got)
	}
}

func TestNormalize_StripsCountryPrefix(t *testing.T) {
	got := Normalize("543415551234")
	if got != "3415551234" {
		t.Fatalf("expected 3415551234, got %q", got)
	}
}

func TestNormalize_DropsNonDigits(t *testing.T) {
	got := Normalize("+54 9 341 555-1234")
	if got != "3415551234" {
		t.Fatalf("expected 3415551234, got %q", got)
	}
}

func TestNormalize_LeavesLocalNumbersAlone(t *testing.T) {
	got := Normalize("3415551234")
	if got != "3415551234" {
		t.Fatalf("expected 3415551234, got %q", got)
	}
}

func TestWire_NoLeadingPlus(t *testing.T) {
	got := Wire("+5493415551234")
	if len(got) == 0 || got[0] == '+' {
		t.Fatalf("expected no leading plus, got %q", got)
	}
}
