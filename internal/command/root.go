package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FrostIris6/pub-ledger/internal/application/service"
	"github.com/FrostIris6/pub-ledger/internal/config"
	"github.com/FrostIris6/pub-ledger/internal/domain/repository"
	"github.com/FrostIris6/pub-ledger/internal/infrastructure/database"
	infraRepo "github.com/FrostIris6/pub-ledger/internal/infrastructure/repository"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "publedger",
	Short: "Order and payment ledger for the bar terminal",
	Long: `publedger maintains the canonical order store of the bar terminal:
it imports orders from the legacy source database, validates the store
shape, lists active and settled tickets and exports sales history.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired services the commands run against.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	orders   *service.OrderService
	payments *service.PaymentService
	merge    *service.MergeService
}

// buildApp wires configuration, logging, repositories and services.
func buildApp() (*app, error) {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  logger.LogLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	var (
		orderRepo  repository.OrderRepository
		targetPath string
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := infraRepo.AutoMigrate(db); err != nil {
			return nil, err
		}
		orderRepo = infraRepo.NewGormOrderRepository(db)
	case "file", "":
		orderRepo = infraRepo.NewFileOrderRepository(cfg.Storage.OrdersPath, log)
		targetPath = cfg.Storage.OrdersPath
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	paymentRepo := infraRepo.NewFilePaymentRepository(cfg.Storage.PaymentsPath, log)
	productIDs := infraRepo.NewFileProductIDMap(cfg.Storage.ProductMapPath, log)

	return &app{
		cfg:      cfg,
		log:      log,
		orders:   service.NewOrderService(orderRepo, log),
		payments: service.NewPaymentService(orderRepo, paymentRepo, nil, log),
		merge: service.NewMergeService(
			orderRepo, productIDs, cfg.Storage.LegacySourcePath, targetPath, log),
	}, nil
}
