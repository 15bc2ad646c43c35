package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
)

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List orders with unpaid items",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		orders, err := a.orders.ListActive(context.Background())
		if err != nil {
			return err
		}
		printOrders(orders)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List fully settled orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		orders, err := a.orders.ListHistory(context.Background())
		if err != nil {
			return err
		}
		printOrders(orders)
		return nil
	},
}

func printOrders(orders []entity.Order) {
	if len(orders) == 0 {
		fmt.Println("No orders.")
		return
	}
	for i := range orders {
		o := &orders[i]
		unpaid := len(o.UnpaidProductIDs())
		fmt.Printf("%s  table %-4s  %s  %d items (%d unpaid)\n",
			o.TransactionID, o.TableID, o.TransactionTime, len(o.Breakdown), unpaid)
	}
}

func init() {
	rootCmd.AddCommand(activeCmd)
	rootCmd.AddCommand(historyCmd)
}
