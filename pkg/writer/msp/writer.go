// Package msp writes computed isotope envelopes as NIST MSP text records
package msp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

// Writer streams spectra in MSP format
type Writer struct {
	w     *bufio.Writer
	count int
}

// NewWriter creates a new MSP writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteSpectrum appends one record. Records are separated by a blank line.
func (w *Writer) WriteSpectrum(spec *core.Spectrum) error {
	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}

	fmt.Fprintf(w.w, "Name: %s\n", spec.Name())
	if spec.Formula != "" {
		fmt.Fprintf(w.w, "Formula: %s\n", spec.Formula)
	}
	fmt.Fprintf(w.w, "MW: %.6f\n", spec.MonoisotopicMass)
	if spec.Charge > 0 {
		z := float64(spec.Charge)
		fmt.Fprintf(w.w, "PrecursorMZ: %.6f\n", (spec.MonoisotopicMass+z*core.ProtonMass)/z)
		fmt.Fprintf(w.w, "Charge: %d\n", spec.Charge)
	}

	comment := fmt.Sprintf("Resolution=%g Normalization=%s", spec.Resolution, spec.Normalization)
	if spec.Sequence != "" {
		comment += " Sequence=" + spec.Sequence
	}
	if mods := spec.ModString(); mods != "" {
		comment += " Mods=" + mods
	}
	fmt.Fprintf(w.w, "Comment: %s\n", comment)

	fmt.Fprintf(w.w, "Num peaks: %d\n", len(spec.Peaks))
	for _, p := range spec.Peaks {
		fmt.Fprintf(w.w, "%.6f\t%.6g\n", p.Mass, p.Intensity)
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write spectrum %s: %w", spec.Name(), err)
	}

	w.count++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() int {
	return w.count
}

// Flush writes buffered records to the underlying writer
func (w *Writer) Flush() error {
	return w.w.Flush()
}
