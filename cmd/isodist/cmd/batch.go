package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/batch"
	"github.com/ChrisMcGann/IsoDist/pkg/isotope"
	"github.com/ChrisMcGann/IsoDist/pkg/reader/targets"
	"github.com/ChrisMcGann/IsoDist/pkg/writer/msp"
	"github.com/ChrisMcGann/IsoDist/pkg/writer/sqlite"
)

var (
	// Flags for batch command
	inputFile   string
	outputFile  string
	outFormat   string
	threads     int
	description string
	batchFlags  calcFlags
)

func init() {
	batchCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Target list CSV (required)")
	batchCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file (required)")
	batchCmd.Flags().StringVarP(&outFormat, "to", "t", "", "Output format: sqlite, msp (auto-detect if not specified)")
	batchCmd.Flags().IntVar(&threads, "threads", runtime.NumCPU(), "Number of worker threads")
	batchCmd.Flags().StringVar(&description, "description", "", "Description stored in the SQLite header")
	batchFlags.register(batchCmd)

	batchCmd.MarkFlagRequired("in")
	batchCmd.MarkFlagRequired("out")
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compute distributions for a target list",
	Long: `Compute isotope distributions for every row of a CSV target list and write
them to a SQLite database or an MSP library.

The target list has a header row with name, formula, sequence, mods and
charge columns. Rows that fail are logged and skipped.

Examples:
  # Compute to SQLite with 8 workers
  isodist batch --in targets.csv --out envelopes.db --threads 8

  # Top 5 peaks above 1% as MSP
  isodist batch --in targets.csv --out envelopes.msp --top-n 5 --cutoff 1`,
	RunE: runBatch,
}

// detectFormat picks the output format from --to or the file extension.
func detectFormat(format, path string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			return "sqlite", nil
		case ".msp":
			return "msp", nil
		default:
			return "", fmt.Errorf("cannot auto-detect format from extension '%s', please specify --to", filepath.Ext(path))
		}
	}

	format = strings.ToLower(format)
	if format != "sqlite" && format != "msp" {
		return "", fmt.Errorf("invalid output format '%s', must be sqlite or msp", format)
	}
	return format, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := detectFormat(outFormat, outputFile)
	if err != nil {
		return err
	}

	cfg, filters, err := batchFlags.build()
	if err != nil {
		return err
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	logger.Info("computing target list",
		zap.String("in", inputFile),
		zap.String("out", outputFile),
		zap.String("format", format),
		zap.Int("threads", threads),
		zap.Float64("fine_resolution", cfg.FineResolution),
	)

	runner := batch.NewRunner(isotope.NewCalculator(table, logger), batch.Options{
		Config:  cfg,
		Filter:  filters,
		ModDB:   modDB,
		Threads: threads,
		Logger:  logger,
	})
	reader := targets.NewReader(inFile)

	var stats batch.Stats
	switch format {
	case "sqlite":
		stats, err = batchToSQLite(cmd, runner, reader)
	case "msp":
		stats, err = batchToMSP(cmd, runner, reader)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBatch complete!\n")
	fmt.Fprintf(out, "Written: %d spectra\n", stats.Written)
	if stats.Skipped > 0 {
		fmt.Fprintf(out, "Skipped: %d targets (see log)\n", stats.Skipped)
	}
	fmt.Fprintf(out, "Output: %s\n", outputFile)
	return nil
}

func batchToSQLite(cmd *cobra.Command, runner *batch.Runner, reader *targets.Reader) (batch.Stats, error) {
	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return batch.Stats{}, fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	if description != "" {
		writer.SetDescription(description)
	}

	stats, err := runner.Run(cmd.Context(), reader, writer)
	if err != nil {
		return stats, err
	}

	if err := writer.Finalize(); err != nil {
		return stats, fmt.Errorf("failed to finalize database: %w", err)
	}
	return stats, nil
}

func batchToMSP(cmd *cobra.Command, runner *batch.Runner, reader *targets.Reader) (batch.Stats, error) {
	f, err := os.Create(outputFile)
	if err != nil {
		return batch.Stats{}, fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := msp.NewWriter(f)
	stats, err := runner.Run(cmd.Context(), reader, writer)
	if err != nil {
		return stats, err
	}

	if err := writer.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush output: %w", err)
	}
	return stats, f.Close()
}
