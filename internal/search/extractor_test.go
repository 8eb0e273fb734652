package search

import (
	"math"
	"testing"
)

func TestExtractFullUtterance(t *testing.T) {
	attrs := Extract("camara daua 2mp exterior")

	if attrs.Brand != "dahua" {
		t.Errorf("Brand = %q, want dahua", attrs.Brand)
	}
	if attrs.Type != "camara" {
		t.Errorf("Type = %q, want camara", attrs.Type)
	}
	if attrs.ResolutionMP != 2 {
		t.Errorf("ResolutionMP = %d, want 2", attrs.ResolutionMP)
	}
	if !attrs.HasFeature(FeatureOutdoor) {
		t.Errorf("missing outdoor feature: %v", attrs.Features)
	}
}

func TestDetectBrandExactAlias(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"camara hik de 4mp", "hikvision"},
		{"alarma ayax", "ajax"},
		{"router ubnt", "ubiquiti"},
		{"kit intelbra", "intelbras"},
		{"lampara de escritorio", ""},
	}
	for _, tt := range tests {
		if got := Extract(tt.in).Brand; got != tt.want {
			t.Errorf("Extract(%q).Brand = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectBrandFuzzyFallback(t *testing.T) {
	// Misspellings absent from the alias table must still land on the brand
	// via bigram similarity.
	if got := Extract("camara daua").Brand; got != "dahua" {
		t.Fatalf("Brand = %q, want dahua", got)
	}
}

func TestDetectResolution(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"camara de 2mp", 2},
		{"camara 4 mp", 4},
		{"domo 8 megapixeles", 8},
		{"camara full hd", 2},
		{"camara 4k", 8},
		{"camara sin datos", 0},
	}
	for _, tt := range tests {
		if got := Extract(tt.in).ResolutionMP; got != tt.want {
			t.Errorf("Extract(%q).ResolutionMP = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDetectChannels(t *testing.T) {
	if got := Extract("dvr de 8 canales").Channels; got != 8 {
		t.Errorf("Channels = %d, want 8", got)
	}
	if got := Extract("nvr 16ch").Channels; got != 16 {
		t.Errorf("Channels = %d, want 16", got)
	}
	if got := Extract("camara domo").Channels; got != 0 {
		t.Errorf("Channels = %d, want 0", got)
	}
}

func TestDetectFeatures(t *testing.T) {
	attrs := Extract("camara wifi con microfono para afuera")

	for _, want := range []Feature{FeatureOutdoor, FeatureWifi, FeatureAudio} {
		if !attrs.HasFeature(want) {
			t.Errorf("missing feature %q: %v", want, attrs.Features)
		}
	}
	if attrs.HasFeature(FeatureIndoor) {
		t.Errorf("unexpected indoor feature: %v", attrs.Features)
	}
}

func TestExtractNeverFails(t *testing.T) {
	for _, in := range []string{"", "???", "   ", "9999999999"} {
		attrs := Extract(in)
		if attrs.Brand != "" || attrs.Type != "" || len(attrs.Features) != 0 {
			t.Errorf("Extract(%q) = %+v, want zero attributes", in, attrs)
		}
	}
}

func TestDiceSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"dahua", "dahua", 1},
		{"daua", "dau", 0.8},
		{"a", "ab", 0},
		{"night", "nacht", 0.25},
	}
	for _, tt := range tests {
		got := DiceSimilarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DiceSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
