package elements

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

func TestDefaultTableAbundancesSumToOne(t *testing.T) {
	table := DefaultTable()
	for _, sym := range table.Symbols() {
		isotopes, err := table.Isotopes(sym)
		if err != nil {
			t.Fatalf("Isotopes(%s): %v", sym, err)
		}
		total := 0.0
		for _, iso := range isotopes {
			total += iso.Abundance
		}
		if math.Abs(total-1.0) > 1e-3 {
			t.Errorf("%s abundances sum to %.6f", sym, total)
		}
	}
}

func TestIsotopes(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		symbol    string
		wantCount int
		wantMass  float64
		wantErr   bool
	}{
		{"C", 2, 12.0, false},
		{"C12", 1, 12.0, false},
		{"13C", 1, 13.0033548378, false},
		{"[15N]", 1, 15.0001088982, false},
		{"Sn", 10, 111.904818, false},
		{"Xx", 0, 0, true},
		{"C14", 0, 0, true},
		{"c", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			isotopes, err := table.Isotopes(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Isotopes(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownElement) {
					t.Errorf("expected ErrUnknownElement, got %v", err)
				}
				return
			}
			if len(isotopes) != tt.wantCount {
				t.Fatalf("expected %d isotopes, got %d", tt.wantCount, len(isotopes))
			}
			if isotopes[0].Mass != tt.wantMass {
				t.Errorf("first isotope mass = %v, want %v", isotopes[0].Mass, tt.wantMass)
			}
			if tt.wantCount == 1 && isotopes[0].Abundance != 1 {
				t.Errorf("labelled isotope abundance = %v, want 1", isotopes[0].Abundance)
			}
		})
	}
}

func TestIsotopesReturnsCopy(t *testing.T) {
	table := DefaultTable()
	isotopes, _ := table.Isotopes("C")
	isotopes[0].Abundance = 0

	again, _ := table.Isotopes("C")
	if again[0].Abundance != 0.9893 {
		t.Errorf("table was mutated through Isotopes: %+v", again[0])
	}
}

func TestMonoisotopicMass(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name string
		comp core.Composition
		want float64
	}{
		{"water", core.Composition{"H": 2, "O": 1}, 18.0105646837},
		{"glycine residue", core.Composition{"C": 2, "H": 3, "N": 1, "O": 1}, 57.0214637236},
		{"labelled carbon", core.Composition{"C13": 1}, 13.0033548378},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.MonoisotopicMass(tt.comp)
			if err != nil {
				t.Fatalf("MonoisotopicMass: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("MonoisotopicMass() = %.8f, want %.8f", got, tt.want)
			}
		})
	}

	if _, err := table.MonoisotopicMass(core.Composition{"Xx": 1}); err == nil {
		t.Error("expected error for unknown element")
	}
}

func TestLoadFromCSV(t *testing.T) {
	csv := `element,massNumber,mass,abundance
# synthetic two-isotope element
Zz,10,10.0,0.75
Zz,11,11.0,0.25

C,12,12.0,0.5
C,13,13.0033548378,0.5
`
	table := DefaultTable()
	if err := table.LoadFromCSV(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadFromCSV: %v", err)
	}

	zz, err := table.Isotopes("Zz")
	if err != nil {
		t.Fatalf("Isotopes(Zz): %v", err)
	}
	if len(zz) != 2 || zz[1].Abundance != 0.25 {
		t.Errorf("unexpected Zz isotopes %+v", zz)
	}

	carbon, _ := table.Isotopes("C")
	if carbon[0].Abundance != 0.5 {
		t.Errorf("expected carbon to be replaced, got %+v", carbon)
	}
}

func TestLoadFromCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"too few fields", "h\nC,12,12.0\n"},
		{"bad symbol", "h\nC13,13,13.0,1\n"},
		{"bad mass number", "h\nC,x,12.0,1\n"},
		{"bad mass", "h\nC,12,-1,1\n"},
		{"bad abundance", "h\nC,12,12.0,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTable().LoadFromCSV(strings.NewReader(tt.csv))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "line 2") {
				t.Errorf("expected line number in error, got %v", err)
			}
		})
	}
}
