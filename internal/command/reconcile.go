package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FrostIris6/pub-ledger/internal/application/service"
)

// force skips the modification-time guard and merges unconditionally.
var force bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Import new orders from the legacy source database",
	Long: `Reconcile checks the legacy source file for updates and merges its
orders into the canonical store, remapping legacy product keys to stable
internal ids. The merge is idempotent: an unchanged source is never
imported twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		ctx := context.Background()

		var report *service.MergeReport
		if force {
			report, err = a.merge.Merge(ctx)
		} else {
			report, err = a.merge.AutoMerge(ctx)
		}
		if report != nil {
			for _, skipped := range report.Skipped {
				fmt.Printf("Skipped order %d: %v\n", skipped.Index, skipped.Err)
			}
		}
		if err != nil {
			return err
		}

		if report == nil {
			fmt.Println("Nothing to merge.")
			return nil
		}
		fmt.Printf("Merged %d orders.\n", report.Merged)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&force, "force", false, "merge even when the source is unchanged")
	rootCmd.AddCommand(reconcileCmd)
}
