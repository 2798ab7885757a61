package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/triallog/triallog/internal/config"
	"github.com/triallog/triallog/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <dataset.json>",
	Short: "Bulk-load a check-in dataset",
	Long:  "Load a JSON dataset of pre-extracted check-ins into the store, preserving each entry's original timestamp. Pass - to read from stdin.",
	Args:  cobra.ExactArgs(1),
	Run:   runImport,
}

func runImport(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	in := os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open dataset", err)
		}
		defer f.Close()
		in = f
	}

	db, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer db.Close()

	res, err := importer.Load(cmd.Context(), db, in, slog.Default())
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf("imported %d entries for patient %s (%s)\n",
		res.Imported, res.Trial.PatientID, res.Trial.TrialName)
}
