package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/isotope"
	"github.com/ChrisMcGann/IsoDist/pkg/server"
	"github.com/ChrisMcGann/IsoDist/pkg/writer/msp"
)

var (
	// Flags for compute command
	computeSequence string
	computeMods     string
	computeCharge   int
	computeFormat   string
	computeFlags    calcFlags
)

func init() {
	computeCmd.Flags().StringVar(&computeSequence, "sequence", "", "Peptide sequence instead of a formula")
	computeCmd.Flags().StringVar(&computeMods, "mods", "", "Peptide modifications as name@pos;name@pos (1-based, -1 = N-term)")
	computeCmd.Flags().IntVarP(&computeCharge, "charge", "z", 0, "Charge state for m/z output (0 = neutral masses)")
	computeCmd.Flags().StringVarP(&computeFormat, "format", "F", "table", "Output format: table, msp, json")
	computeFlags.register(computeCmd)
}

var computeCmd = &cobra.Command{
	Use:   "compute [formula]",
	Short: "Compute the isotope distribution of one molecule",
	Long: `Compute the fine-grained isotope distribution of a formula or peptide.

Examples:
  # Glycine residue at the default 0.01 Da resolution
  isodist compute C2H3NO

  # Fine structure at 0.1 mDa, base peak normalized
  isodist compute C2H3NO --fine-res 0.0001 --normalization basepeak

  # Doubly charged TMT-labelled peptide as MSP
  isodist compute --sequence PEPTIDEK --mods "TMT6plex@-1;TMT6plex@8" -z 2 -F msp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompute,
}

func runCompute(cmd *cobra.Command, args []string) error {
	var formula string
	if len(args) == 1 {
		formula = args[0]
	}

	comp, mods, err := resolveComposition(formula, computeSequence, computeMods)
	if err != nil {
		return err
	}
	if computeCharge < 0 {
		return fmt.Errorf("charge must not be negative, got %d", computeCharge)
	}

	cfg, filters, err := computeFlags.build()
	if err != nil {
		return err
	}

	calc := isotope.NewCalculator(table, logger)
	spec, err := calc.ComputeDistribution(cmd.Context(), comp, cfg)
	if err != nil {
		var sizeErr *isotope.UnsupportedSizeError
		if errors.As(err, &sizeErr) {
			return fmt.Errorf("%w (try a coarser --fine-res)", err)
		}
		return err
	}

	spec.Sequence = computeSequence
	spec.Modifications = mods
	if computeCharge > 0 {
		if spec, err = spec.Charged(computeCharge); err != nil {
			return err
		}
	}
	if filters != nil {
		if err := filters.Apply(spec); err != nil {
			return err
		}
	}

	logger.Debug("computed",
		zap.String("formula", spec.Formula),
		zap.Int("peaks", len(spec.Peaks)),
		zap.Float64("resolution", spec.Resolution),
	)

	return writeSpectrum(cmd.OutOrStdout(), spec, computeFormat)
}

// resolveComposition turns either a formula or a peptide sequence with
// modifications into an elemental composition.
func resolveComposition(formula, sequence, mods string) (core.Composition, []core.Modification, error) {
	switch {
	case formula != "" && sequence != "":
		return nil, nil, errors.New("give either a formula or --sequence, not both")
	case formula != "":
		if mods != "" {
			return nil, nil, errors.New("--mods requires --sequence")
		}
		comp, err := core.ParseFormula(formula)
		return comp, nil, err
	case sequence != "":
		parsed, err := modDB.ParseModString(mods, sequence)
		if err != nil {
			return nil, nil, err
		}
		comp, err := core.PeptideComposition(sequence, parsed)
		return comp, parsed, err
	}
	return nil, nil, errors.New("a formula or --sequence is required")
}

// writeSpectrum renders spec to w as a table, an MSP record or JSON.
func writeSpectrum(w io.Writer, spec *core.Spectrum, format string) error {
	switch strings.ToLower(format) {
	case "table":
		return writeTable(w, spec)
	case "msp":
		mw := msp.NewWriter(w)
		if err := mw.WriteSpectrum(spec); err != nil {
			return err
		}
		return mw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewDistributionResponse(spec))
	}
	return fmt.Errorf("invalid format '%s', must be table, msp, or json", format)
}

func writeTable(w io.Writer, spec *core.Spectrum) error {
	fmt.Fprintf(w, "Formula: %s\n", spec.Formula)
	if spec.Sequence != "" {
		fmt.Fprintf(w, "Sequence: %s\n", spec.Sequence)
	}
	fmt.Fprintf(w, "Monoisotopic mass: %.6f\n", spec.MonoisotopicMass)
	fmt.Fprintf(w, "Resolution: %g Da\n", spec.Resolution)
	fmt.Fprintf(w, "Normalization: %s\n\n", spec.Normalization)

	massHeader := "Mass"
	if spec.Charge > 0 {
		massHeader = fmt.Sprintf("m/z (%d+)", spec.Charge)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tIntensity\t\n", massHeader)
	for _, p := range spec.Peaks {
		fmt.Fprintf(tw, "%.6f\t%.6g\t\n", p.Mass, p.Intensity)
	}
	return tw.Flush()
}
