package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"marketplace_chat_service/internal/chat/app"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/internal/chat/router"
	"marketplace_chat_service/pkg/config"
	"marketplace_chat_service/pkg/database"
	"marketplace_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL, the storage collaborator
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    connStr,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	// Redis backbone is optional; without it the node fans out alone
	var backbone *repository.RedisPubSub
	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
		}
		backbone = repository.NewRedisPubSub(redisClient)
	}

	// Kafka notification topic is optional as well
	var notifier repository.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
		}
		defer writer.Close()
		notifier = repository.NewKafkaEventPublisher(writer)
	}

	convRepo := repository.NewConversationRepository(pool)
	msgRepo := repository.NewMessageRepository(pool)

	registry := app.NewConnRegistry(cfg.Conversation.IdleTimeout)
	hub := app.NewHub(convRepo, backbone)
	sendUC := app.NewSendMessageUseCase(convRepo, msgRepo, hub, notifier, cfg.Conversation.MaxContentLength)
	readUC := app.NewReadReceiptUseCase(convRepo, msgRepo, hub)
	typing := app.NewTypingCoordinator(hub, cfg.Conversation.TypingTTL)
	unreadUC := app.NewUnreadUseCase(msgRepo)
	historyUC := app.NewGetMessageUseCase(convRepo, msgRepo)

	go registry.Run(ctx)
	go typing.Run(ctx)
	if err := hub.RunBackbone(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("backbone subscribe err : %v", err))
	}

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	wsHandler := app.NewChatWebsocketHandler(registry, hub, sendUC, readUC, typing, unreadUC, cfg.Conversation.OutboxSize)
	apiHandler := app.NewChatHTTPHandler(sendUC, readUC, unreadUC, historyUC)
	router.RegisterRoutes(r, wsHandler, apiHandler)

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
