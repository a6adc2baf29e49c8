package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var elementsCmd = &cobra.Command{
	Use:   "elements [symbol...]",
	Short: "List isotopes of the element table",
	Long: `Print isotope masses and natural abundances for the given elements, or for
every element in the table. Reflects --isotopes overrides.`,
	RunE: runElements,
}

func runElements(cmd *cobra.Command, args []string) error {
	symbols := args
	if len(symbols) == 0 {
		symbols = table.Symbols()
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Element\tIsotope\tMass\tAbundance")
	for _, sym := range symbols {
		isotopes, err := table.Isotopes(sym)
		if err != nil {
			return err
		}
		for _, iso := range isotopes {
			fmt.Fprintf(tw, "%s\t%d%s\t%.10f\t%.6g\n", sym, iso.MassNumber, sym, iso.Mass, iso.Abundance)
		}
	}
	return tw.Flush()
}
