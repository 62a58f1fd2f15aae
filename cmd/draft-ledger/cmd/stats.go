package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show draft and dictionary statistics",
	Long: `Print draft counts per lifecycle status and the most used
dictionary entries.

Example:
  draft-ledger stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	svc, err := buildServices(cfg)
	exitOnError(err, "failed to initialize services")
	defer svc.Close()

	drafts, err := svc.drafts.GetAll(nil)
	exitOnError(err, "failed to read drafts")

	counts := make(map[model.DraftStatus]int)
	for _, d := range drafts {
		counts[d.Status]++
	}

	fmt.Println("Drafts:")
	for _, status := range []model.DraftStatus{
		model.StatusPending, model.StatusReviewed, model.StatusApproved, model.StatusExported,
	} {
		fmt.Printf("  %-10s %d\n", status, counts[status])
	}
	fmt.Printf("  %-10s %d\n", "total", len(drafts))

	entries, err := svc.dictionary.GetAll(nil)
	exitOnError(err, "failed to read dictionary")

	sort.Slice(entries, func(i, j int) bool { return entries[i].UseCount > entries[j].UseCount })

	fmt.Printf("\nDictionary: %d entries\n", len(entries))
	top := entries
	if len(top) > 10 {
		top = top[:10]
	}
	for _, e := range top {
		fmt.Printf("  %-30s %-20s used %d\n", e.VendorName, e.ServiceName, e.UseCount)
	}
}
