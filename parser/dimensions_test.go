package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-artists/models"
)

func ptr(v float64) *float64 { return &v }

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *models.ParsedDimensions
	}{
		{
			name:  "inches word",
			input: "24 x 36 in",
			want:  &models.ParsedDimensions{Length: ptr(24), Width: ptr(36), Unit: models.UnitInches},
		},
		{
			name:  "multiplication sign glued cm",
			input: "30×40cm",
			want:  &models.ParsedDimensions{Length: ptr(30), Width: ptr(40), Unit: models.UnitCentimeters},
		},
		{
			name:  "three axes",
			input: "10 x 8 x 4 cm",
			want:  &models.ParsedDimensions{Length: ptr(10), Width: ptr(8), Height: ptr(4), Unit: models.UnitCentimeters},
		},
		{
			name:  "extra axes ignored",
			input: "48 x 60 x 2 x 5 in",
			want:  &models.ParsedDimensions{Length: ptr(48), Width: ptr(60), Height: ptr(2), Unit: models.UnitInches},
		},
		{
			name:  "inch glyphs with decimals",
			input: `5.5" x 7.25"`,
			want:  &models.ParsedDimensions{Length: ptr(5.5), Width: ptr(7.25), Unit: models.UnitInches},
		},
		{
			name:  "parenthesised axis labels",
			input: `12" (H) by 9" (W)`,
			want:  &models.ParsedDimensions{Length: ptr(12), Width: ptr(9), Unit: models.UnitInches},
		},
		{
			name:  "trailing axis letters",
			input: `12"H x 9"W`,
			want:  &models.ParsedDimensions{Length: ptr(12), Width: ptr(9), Unit: models.UnitInches},
		},
		{
			name:  "millimetres",
			input: "100 x 70 mm",
			want:  &models.ParsedDimensions{Length: ptr(100), Width: ptr(70), Unit: models.UnitMillimeters},
		},
		{
			name:  "spelled out centimeters",
			input: "20 centimeters by 30 centimeters",
			want:  &models.ParsedDimensions{Length: ptr(20), Width: ptr(30), Unit: models.UnitCentimeters},
		},
		{
			name:  "single number defaults to inches",
			input: "18",
			want:  &models.ParsedDimensions{Length: ptr(18), Unit: models.UnitInches},
		},
		{name: "prose", input: "Oil on canvas", want: nil},
		{name: "empty", input: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDimensions(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("ParseDimensions(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDimensions(%q) = nil", tt.input)
			}
			if got.Unit != tt.want.Unit {
				t.Fatalf("unit = %q, want %q", got.Unit, tt.want.Unit)
			}
			assertAxis(t, "length", got.Length, tt.want.Length)
			assertAxis(t, "width", got.Width, tt.want.Width)
			assertAxis(t, "height", got.Height, tt.want.Height)
		})
	}
}

func assertAxis(t *testing.T, axis string, got, want *float64) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Fatalf("%s = %v, want %v", axis, got, want)
	case *got != *want:
		t.Fatalf("%s = %v, want %v", axis, *got, *want)
	}
}
