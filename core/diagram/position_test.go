package diagram

import "testing"

func TestParsePoint(t *testing.T) {
	tests := []struct {
		input   string
		want    Point
		wantErr bool
	}{
		{"0 0", Point{0, 0}, false},
		{"100 120", Point{100, 120}, false},
		{"114.38 -8.25", Point{114.38, -8.25}, false},
		{"\t.5\n2.", Point{0.5, 2}, false},
		{"1e2 +3", Point{100, 3}, false},
		{"10 20 30", Point{10, 20}, false},
		{"", Point{}, true},
		{"42", Point{}, true},
		{"x y", Point{}, true},
		{"1,2", Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePoint(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePoint(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePoint(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
