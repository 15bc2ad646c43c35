package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FrostIris6/pub-ledger/internal/export"
)

// exportPath overrides the configured report destination.
var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export settled orders to an XLSX report",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		orders, err := a.orders.ListHistory(context.Background())
		if err != nil {
			return err
		}

		path := exportPath
		if path == "" {
			path = a.cfg.Storage.ExportPath
		}
		if err := export.WriteHistory(orders, path); err != nil {
			return err
		}
		fmt.Printf("Exported %d orders to %s\n", len(orders), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "report file path (default from config)")
	rootCmd.AddCommand(exportCmd)
}
