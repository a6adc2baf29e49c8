package isotope

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnsupportedSize is wrapped by *UnsupportedSizeError.
	ErrUnsupportedSize = errors.New("composition too complex for fine-grained calculation")

	// ErrInvalidComposition is returned for compositions with negative counts.
	ErrInvalidComposition = errors.New("invalid composition")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UnsupportedSizeError reports the element whose enumeration would exceed
// the combination ceiling.
type UnsupportedSizeError struct {
	Element         string
	Atoms           int
	Isotopes        int
	LogCombinations float64 // Natural log of the estimated combination count; 0 when rejected for isotope count
}

func (e *UnsupportedSizeError) Error() string {
	if e.LogCombinations > 0 {
		return fmt.Sprintf("element %s (%d atoms): ~%.3g isotope combinations exceeds limit of %.0g: %v",
			e.Element, e.Atoms, math.Exp(e.LogCombinations), maxCombinations, ErrUnsupportedSize)
	}
	return fmt.Sprintf("element %s: %d isotopes exceeds limit of %d: %v",
		e.Element, e.Isotopes, maxIsotopes, ErrUnsupportedSize)
}

func (e *UnsupportedSizeError) Unwrap() error {
	return ErrUnsupportedSize
}
