package main

import (
	"log"

	"go.uber.org/zap"

	"gramchain/config"
	"gramchain/internal/api"
	"gramchain/internal/attest"
	"gramchain/internal/ledger"
	"gramchain/internal/repository"
	"gramchain/internal/service"
	"gramchain/internal/store"
	"gramchain/pkg/db"
	"gramchain/pkg/logger"
	"gramchain/pkg/mq"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	// 2. Init DB (users and audit trail)
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init the Badger-backed record store
	badgerDB, err := store.Open(cfg.Ledger.Path, zlog)
	if err != nil {
		zlog.Fatal("Ledger store initialization failed", zap.Error(err))
	}
	defer badgerDB.Close()
	recordStore := store.NewBadgerStore(badgerDB, zlog)

	// 4. Init RabbitMQ publisher for ledger events
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	// 5. Init the ledger
	led, err := ledger.NewLedger(recordStore, publisher, zlog)
	if err != nil {
		zlog.Fatal("Ledger initialization failed", zap.Error(err))
	}

	// 6. Init repositories and services
	userRepo := repository.NewUserRepository(dbConn)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)

	// 7. Init attestation clients
	wallet := attest.NewRPCWalletClient(cfg.Wallet.RPCURL)
	pinner := attest.NewPinClient(cfg.Pinning.APIURL, cfg.Pinning.GatewayURL, cfg.Pinning.APIKey)

	// 8. Init handlers
	authHandler := api.NewAuthHandler(authService, zlog)
	userHandler := api.NewUserHandler(userRepo, zlog)
	ledgerHandler := api.NewLedgerHandler(led, zlog)
	projectHandler := api.NewProjectHandler(led, wallet, pinner, pinner, zlog)

	// 9. Init router
	router := api.NewRouter(authHandler, userHandler, ledgerHandler, projectHandler, dbConn, cfg.JWT.Secret)

	// 10. Run server
	if err := router.Run(cfg.Server.Port); err != nil {
		zlog.Fatal("server start failed", zap.Error(err))
	}
}
