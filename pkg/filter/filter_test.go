package filter

import (
	"math"
	"testing"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

func envelope() *core.Spectrum {
	return &core.Spectrum{
		Formula: "C50H80N14O15",
		Peaks: []core.Peak{
			{Mass: 1100.0, Intensity: 0.50},
			{Mass: 1101.0, Intensity: 0.30},
			{Mass: 1102.0, Intensity: 0.12},
			{Mass: 1103.0, Intensity: 0.05},
			{Mass: 1104.0, Intensity: 0.02},
			{Mass: 1105.0, Intensity: 0.01},
		},
	}
}

func masses(spec *core.Spectrum) []float64 {
	var out []float64
	for _, p := range spec.Peaks {
		out = append(out, p.Mass)
	}
	return out
}

func sameMasses(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []float64
	}{
		{
			name:   "no filters",
			config: Config{},
			want:   []float64{1100, 1101, 1102, 1103, 1104, 1105},
		},
		{
			name:   "top 3",
			config: Config{TopN: 3},
			want:   []float64{1100, 1101, 1102},
		},
		{
			name:   "10 percent of base peak",
			config: Config{IntensityCutoff: 10},
			want:   []float64{1100, 1101, 1102},
		},
		{
			name:   "mass window",
			config: Config{MinMass: 1101, MaxMass: 1103},
			want:   []float64{1101, 1102, 1103},
		},
		{
			name:   "open upper bound",
			config: Config{MinMass: 1104},
			want:   []float64{1104, 1105},
		},
		{
			name:   "cutoff relative to windowed base peak",
			config: Config{MinMass: 1102, IntensityCutoff: 25},
			want:   []float64{1102, 1103},
		},
		{
			name:   "combined",
			config: Config{TopN: 2, IntensityCutoff: 1},
			want:   []float64{1100, 1101},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := envelope()
			if err := tt.config.Apply(spec); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got := masses(spec); !sameMasses(got, tt.want) {
				t.Errorf("Apply() masses = %v, want %v", got, tt.want)
			}
			if !spec.ArePeaksSorted() {
				t.Error("Apply() left peaks unsorted")
			}
		})
	}
}

func TestApplyRenormalize(t *testing.T) {
	spec := envelope()
	config := Config{TopN: 2, Renormalize: true}
	if err := config.Apply(spec); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if total := spec.TotalIntensity(); math.Abs(total-1.0) > 1e-12 {
		t.Errorf("TotalIntensity() = %v, want 1", total)
	}
	if got := spec.Peaks[0].Intensity; math.Abs(got-0.625) > 1e-12 {
		t.Errorf("first intensity = %v, want 0.625", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"zero", Config{}, false},
		{"negative top-n", Config{TopN: -1}, true},
		{"cutoff above 100", Config{IntensityCutoff: 150}, true},
		{"negative mass", Config{MinMass: -5}, true},
		{"inverted window", Config{MinMass: 500, MaxMass: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if applyErr := tt.config.Apply(envelope()); applyErr == nil {
					t.Error("Apply() should reject an invalid config")
				}
			}
		})
	}
}

func TestRemoveZeroIntensityPeaks(t *testing.T) {
	spec := &core.Spectrum{
		Peaks: []core.Peak{
			{Mass: 10, Intensity: 0},
			{Mass: 11, Intensity: 0.4},
			{Mass: 12, Intensity: -1},
			{Mass: 13, Intensity: 0.6},
		},
	}

	RemoveZeroIntensityPeaks(spec)

	if got := masses(spec); !sameMasses(got, []float64{11, 13}) {
		t.Errorf("RemoveZeroIntensityPeaks() masses = %v", got)
	}
}
