package main

import (
	"context"
	"log"

	"github.com/ruslanbay/milk-indent/internal/database"
	router "github.com/ruslanbay/milk-indent/internal/http"
	"github.com/ruslanbay/milk-indent/internal/logger"
	"github.com/ruslanbay/milk-indent/internal/services"
	"github.com/ruslanbay/milk-indent/internal/utils"
)

func main() {
	ctx := context.Background()
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	db, err := database.New(ctx, config.dsn)

	if err != nil {
		log.Fatalf("Database wasn't initialized due to %s", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Migrations weren't run due to %s", err)
	}

	log.Printf("Running server on %s\n", config.endpoint)

	ledgerService := services.NewCreditLedgerService(config.ledgerEndpoint)
	pricingService := services.NewPricingService(db)

	jobQueueService := services.NewJobQueueService(ctx, 100, 2)
	reconcileService := services.NewReconcileService(db, ledgerService, jobQueueService)

	if err := reconcileService.StartReconciliation(ctx); err != nil {
		log.Fatalf("Starting ledger reconciliation was failed due to %s", err)
	}

	utils.HandleTerminationProcess(func() {
		jobQueueService.Shutdown()
	})

	router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewAuthService(db),
		services.NewJWTService(config.authSecretKey),
		services.NewOrderService(db, ledgerService, pricingService),
		ledgerService,
		pricingService,
	).Run()
}
