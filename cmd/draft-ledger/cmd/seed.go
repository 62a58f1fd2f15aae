package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/learning"
)

var (
	seedFile  string
	seedActor string
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load dictionary entries from a YAML seed file",
	Long: `Load initial vendor/service dictionary entries from a YAML file.

Entries whose vendor/service pair already exists are skipped, so seeding
can be re-run safely.

Example:
  draft-ledger seed --file dictionary.yaml`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file (required)")
	seedCmd.Flags().StringVar(&seedActor, "actor", "seed", "actor recorded in the audit log")

	seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	file, err := learning.LoadSeedFile(seedFile)
	exitOnError(err, "failed to load seed file")

	svc, err := buildServices(cfg)
	exitOnError(err, "failed to initialize services")
	defer svc.Close()

	created, err := svc.learning.Seed(file, seedActor)
	exitOnError(err, "failed to seed dictionary")

	slog.Info("Seed complete", "entries", len(file.Entries), "created", created)
	fmt.Printf("Seeded %d of %d entries (%d already existed)\n",
		created, len(file.Entries), len(file.Entries)-created)
}
