package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/auth"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/config"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/handler"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/idempotency"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/logger"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/notify"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/query"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/queue/sqs"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/realtime"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/repository/clickhouse"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize ClickHouse client
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func(chClient *clickhouse.Client) {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(chClient)

	// Initialize repository and schema
	repo := clickhouse.NewRepository(chClient, log)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Initialize idempotency checker (optional)
	var idem idempotency.Checker
	if cfg.Valkey.Enabled && cfg.Valkey.Host != "" {
		valkey, err := idempotency.NewValkey(ctx, cfg.Valkey, log)
		if err != nil {
			log.Fatal("Failed to create Valkey client", zap.Error(err))
		}
		defer func() {
			if err := valkey.Close(); err != nil {
				log.Error("Failed to close Valkey client", zap.Error(err))
			}
		}()
		idem = valkey
	}

	// Initialize realtime broker and websocket gateway. The broker is
	// constructed once here and handed to every connection handler.
	dir := clickhouse.NewDirectory(chClient, log)
	broker := realtime.NewBroker(dir, log)
	gateway := realtime.NewGateway(broker, auth.NewJWTVerifier(cfg.Auth.JWTSecret), log)

	// Relay events stored by the consumer binary into this process's broker
	// (optional)
	if cfg.Valkey.Host != "" {
		relay := notify.NewSubscriber(cfg.Valkey, broker, log)
		go relay.Run(ctx)
	}

	// Initialize SQS client for the async collector path
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize query router and event service
	router := query.NewRouter(repo, log)
	eventService := service.NewEventService(repo, router, idem, broker, log)

	// Initialize handler
	h := handler.NewHandler(eventService, sqsClient, gateway, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
