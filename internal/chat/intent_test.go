package chat

import "testing"

func TestIsConfirmation(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"listo", true},
		{"Dale!", true},
		{"ok", true},
		{"de acuerdo", true},
		{"perfecto, dale", true},
		{"listo, confirmalo", true},
		{"dale que la semana que viene lo vemos con el técnico", false},
		{"necesito una camara", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isConfirmation(tt.in); got != tt.want {
			t.Errorf("isConfirmation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWantsQuotation(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"pasame presupuesto de la camara dahua", true},
		{"me podes cotizar 4 bullet hikvision?", true},
		{"necesito una cotización formal", true},
		{"cuanto sale la camara dahua", false},
		{"hola", false},
	}
	for _, tt := range tests {
		if got := wantsQuotation(tt.in); got != tt.want {
			t.Errorf("wantsQuotation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"presupuesto de 4 camaras dahua", 4},
		{"cotizame 10 bullet de 2mp", 10},
		{"camara dahua de 2mp", 1},
		{"dvr de 8 canales", 1},
		{"disco de 2tb y 3 camaras", 3},
		{"presupuesto de la alarma", 1},
	}
	for _, tt := range tests {
		if got := extractQuantity(tt.in); got != tt.want {
			t.Errorf("extractQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsGreeting(t *testing.T) {
	if !isGreeting("Hola!") || !isGreeting("buenas tardes") {
		t.Error("greeting not detected")
	}
	if isGreeting("hola necesito una camara dahua para el local") {
		t.Error("long message treated as greeting")
	}
}
