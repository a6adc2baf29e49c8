// Package core provides the spectrum model and validation logic for
// theoretical isotope distributions.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Normalization selects how peak intensities are scaled.
type Normalization int

const (
	// NormalizeSum scales intensities so that they sum to 1.
	NormalizeSum Normalization = iota
	// NormalizeBasePeak scales intensities so that the largest equals 1.
	NormalizeBasePeak
)

func (n Normalization) String() string {
	switch n {
	case NormalizeSum:
		return "sum"
	case NormalizeBasePeak:
		return "basepeak"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// ParseNormalization parses "sum" or "basepeak" (case-insensitive; "base-peak"
// and "base_peak" are accepted too).
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", ""), "_", "") {
	case "sum", "":
		return NormalizeSum, nil
	case "basepeak", "max":
		return NormalizeBasePeak, nil
	}
	return 0, fmt.Errorf("invalid normalization '%s', must be sum or basepeak", s)
}

// Spectrum is a theoretical isotope distribution with its metadata.
type Spectrum struct {
	ID               string         // Caller-supplied identifier
	Formula          string         // Hill formula of the molecule
	Sequence         string         // Peptide sequence, when computed from one
	Modifications    []Modification // Peptide modifications
	Charge           int            // 0 for neutral masses, otherwise peaks are m/z
	MonoisotopicMass float64        // Neutral monoisotopic mass
	Resolution       float64        // Effective merge resolution in daltons
	Normalization    Normalization
	Peaks            []Peak
}

// Peak represents a single mass, intensity pair.
type Peak struct {
	Mass      float64 // Neutral mass, or m/z when the spectrum is charged
	Intensity float64
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum is well formed. An empty peak list is
// valid: every isotopologue may have been pruned.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Charge < 0 {
		errs = append(errs, "charge must not be negative")
	}
	if s.Normalization != NormalizeSum && s.Normalization != NormalizeBasePeak {
		errs = append(errs, fmt.Sprintf("unknown normalization %d", int(s.Normalization)))
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.Mass) || math.IsInf(peak.Mass, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid mass", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.Mass <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d mass must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by mass")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by mass in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	for i := 1; i < len(s.Peaks); i++ {
		if s.Peaks[i].Mass < s.Peaks[i-1].Mass {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by mass in ascending order.
func (s *Spectrum) SortPeaks() {
	sort.Slice(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].Mass < s.Peaks[j].Mass
	})
}

// TotalIntensity returns the sum of all peak intensities.
func (s *Spectrum) TotalIntensity() float64 {
	total := 0.0
	for _, p := range s.Peaks {
		total += p.Intensity
	}
	return total
}

// BasePeak returns the most intense peak. The lowest mass wins ties.
func (s *Spectrum) BasePeak() (Peak, bool) {
	if len(s.Peaks) == 0 {
		return Peak{}, false
	}
	best := s.Peaks[0]
	for _, p := range s.Peaks[1:] {
		if p.Intensity > best.Intensity {
			best = p
		}
	}
	return best, true
}

// Normalize rescales intensities in place using the given mode.
func (s *Spectrum) Normalize(mode Normalization) {
	var divisor float64
	switch mode {
	case NormalizeBasePeak:
		if bp, ok := s.BasePeak(); ok {
			divisor = bp.Intensity
		}
	default:
		divisor = s.TotalIntensity()
	}
	s.Normalization = mode
	if divisor <= 0 {
		return
	}
	for i := range s.Peaks {
		s.Peaks[i].Intensity /= divisor
	}
}

// Charged returns a copy of a neutral spectrum with masses converted to m/z
// for the given positive charge (protonation).
func (s *Spectrum) Charged(charge int) (*Spectrum, error) {
	if s.Charge != 0 {
		return nil, fmt.Errorf("spectrum %s is already charged (%d)", s.Name(), s.Charge)
	}
	if charge <= 0 {
		return nil, fmt.Errorf("charge must be positive, got %d", charge)
	}

	out := *s
	out.Charge = charge
	out.Peaks = make([]Peak, len(s.Peaks))
	z := float64(charge)
	for i, p := range s.Peaks {
		out.Peaks[i] = Peak{
			Mass:      (p.Mass + z*ProtonMass) / z,
			Intensity: p.Intensity,
		}
	}
	return &out, nil
}

// Name returns the spectrum name: the ID if set, otherwise
// "Sequence/Charge" for peptides or the formula.
func (s *Spectrum) Name() string {
	switch {
	case s.ID != "":
		return s.ID
	case s.Sequence != "":
		return fmt.Sprintf("%s/%d", s.Sequence, s.Charge)
	default:
		return s.Formula
	}
}

// ModString returns modifications in the 1-based "name@pos;name@pos" form
// accepted by ModDatabase.ParseModString.
func (s *Spectrum) ModString() string {
	if len(s.Modifications) == 0 {
		return ""
	}

	var parts []string
	for _, mod := range s.Modifications {
		pos := mod.Position
		if pos >= 0 {
			pos++
		}
		parts = append(parts, fmt.Sprintf("%s@%d", mod.Name, pos))
	}
	return strings.Join(parts, ";")
}
