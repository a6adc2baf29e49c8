// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/elements"
	"github.com/ChrisMcGann/IsoDist/pkg/observability"
)

// customModsFile is loaded from the working directory when --mod-table is not set.
const customModsFile = "unimod_custom.csv"

var (
	// Global flags
	logLevel    string
	devLogs     bool
	isotopesCSV string
	modsCSV     string

	// Set up by PersistentPreRunE
	logger *zap.Logger
	table  *elements.Table
	modDB  *core.ModDatabase
)

var rootCmd = &cobra.Command{
	Use:   "isodist",
	Short: "IsoDist - fine-grained isotope distribution calculator",
	Long: `IsoDist computes theoretical isotope distributions of molecules and peptides,
resolving the fine structure of each nominal mass down to 0.1 mDa.

Supports:
- Chemical formulas with groups and explicit isotope labels
- Peptide sequences with named or formula modifications
- Charged envelopes (m/z) and peak filtering
- Batch target lists to SQLite or MSP, and an HTTP API`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			observability.SyncLogger(logger)
		}
	},
}

// Execute runs the root command with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "Human-readable console logs instead of JSON")
	rootCmd.PersistentFlags().StringVar(&isotopesCSV, "isotopes", "", "CSV of isotope masses and abundances overriding the built-in table")
	rootCmd.PersistentFlags().StringVar(&modsCSV, "mod-table", "", "CSV of custom modifications (default: "+customModsFile+" if present)")

	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(elementsCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	logger, err = observability.NewLogger(logLevel, devLogs)
	if err != nil {
		return err
	}

	table, err = loadTable(isotopesCSV)
	if err != nil {
		return err
	}

	modDB, err = loadModDatabase(modsCSV)
	return err
}

// loadTable returns the built-in isotope table, with elements from path
// replacing the built-in entries.
func loadTable(path string) (*elements.Table, error) {
	t := elements.DefaultTable()
	if path == "" {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open isotope table: %w", err)
	}
	defer f.Close()

	if err := t.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load isotope table %s: %w", path, err)
	}
	logger.Info("loaded isotope table", zap.String("path", path))
	return t, nil
}

// loadModDatabase returns the built-in modifications plus the ones in path.
// Without a path, customModsFile is tried and a broken file only warns.
func loadModDatabase(path string) (*core.ModDatabase, error) {
	db := core.DefaultModDatabase()

	explicit := path != ""
	if !explicit {
		if _, err := os.Stat(customModsFile); err != nil {
			return db, nil
		}
		path = customModsFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open modifications: %w", err)
	}
	defer f.Close()

	if err := db.LoadFromCSV(f); err != nil {
		if !explicit {
			logger.Warn("failed to load custom modifications", zap.String("path", path), zap.Error(err))
			return db, nil
		}
		return nil, fmt.Errorf("failed to load modifications %s: %w", path, err)
	}

	logger.Info("loaded modifications", zap.String("path", path), zap.Int("total", db.Len()))
	return db, nil
}
