package diagram

import "testing"

func TestSymbol(t *testing.T) {
	required := map[int]string{1: "H", 5: "B", 6: "C", 7: "N", 8: "O", 9: "F", 14: "Si", 15: "P", 16: "S", 17: "Cl", 35: "Br", 53: "I"}
	for element, want := range required {
		if got := Symbol(element); got != want {
			t.Errorf("Symbol(%d) = %q, want %q", element, got, want)
		}
	}
	for _, element := range []int{0, -1, 4, 999} {
		if got := Symbol(element); got != UnknownSymbol {
			t.Errorf("Symbol(%d) = %q, want %q", element, got, UnknownSymbol)
		}
	}
}

func TestSynthesizeLabel(t *testing.T) {
	tests := []struct {
		element, hydrogens int
		want               string
	}{
		{8, 0, "O"},
		{8, 1, "OH"},
		{8, 2, "OH2"},
		{7, 3, "NH3"},
		{16, -1, "S"},
		{6, 4, ""},
		{4, 1, "?H"},
	}
	for _, tt := range tests {
		if got := SynthesizeLabel(tt.element, tt.hydrogens); got != tt.want {
			t.Errorf("SynthesizeLabel(%d, %d) = %q, want %q", tt.element, tt.hydrogens, got, tt.want)
		}
	}
}
