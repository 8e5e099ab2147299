package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	"gramchain/config"
	"gramchain/internal/mqhandler"
	"gramchain/internal/repository"
	"gramchain/pkg/db"
	"gramchain/pkg/logger"
	"gramchain/pkg/mq"
	"gramchain/pkg/redis"
	"gramchain/pkg/util"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	// 2. Init DB for the audit trail
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init redis-backed deduper
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	deduper := util.NewDeduperWithLogger(rdb, 24*time.Hour, zlog)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// 4. Publisher doubles as the DLQ sink for undecodable events
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	// 5. Init the audit handler
	auditRepo := repository.NewAuditRepository(dbConn, zlog)
	handler := mqhandler.NewAuditHandler(auditRepo, deduper, retryCounter, publisher, zlog)

	// 6. Consume every ledger event
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "ledger.audit", "ledger.#", zlog)
	if err != nil {
		log.Fatalf("failed to init consumer: %v", err)
	}
	defer consumer.Close()
	consumer.SetHandler(handler.HandleEvent)

	if err := consumer.StartConsuming(); err != nil {
		zlog.Fatal("consumer start failed", zap.Error(err))
	}
}
