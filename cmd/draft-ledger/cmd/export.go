package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/export"
)

var (
	exportDir   string
	exportActor string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write approved drafts to the journal files",
	Long: `Export every approved draft as a plain-text journal entry under the
configured ledger directory (one file per accounting month) and mark it
exported.

Example:
  draft-ledger export
  draft-ledger export --dir ~/accounting/ledger`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "journal output directory (default from LEDGER_EXPORT_DIR)")
	exportCmd.Flags().StringVar(&exportActor, "actor", "export", "actor recorded in the audit log")
}

func runExport(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	dir := exportDir
	if dir == "" {
		dir = cfg.Export.Dir
	}

	svc, err := buildServices(cfg)
	exitOnError(err, "failed to initialize services")
	defer svc.Close()

	exporter := export.NewService(svc.lifecycle, export.NewLedger(dir))
	exported, err := exporter.Run(exportActor)
	exitOnError(err, "export failed")

	fmt.Printf("Exported %d drafts to %s\n", exported, dir)
}
