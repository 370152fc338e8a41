package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"investchat/internal/api"
	"investchat/internal/config"
	"investchat/internal/faq"
	"investchat/internal/logger"
	"investchat/internal/redis"
	"investchat/internal/service/ai"
	"investchat/internal/service/chat"
	"investchat/internal/service/contract"
	"investchat/internal/service/history"
	"investchat/internal/session"
	"investchat/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load(os.Getenv("INVESTCHAT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			log.Fatalf("missing API key: %v", err)
		}
		log.Fatalf("invalid config: %v", err)
	}

	zlog := logger.New(cfg.BasicConfig.LogFile, cfg.BasicConfig.Production)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder, closeStore, err := openRecorder(cfg, zlog)
	if err != nil {
		zlog.Fatal("open message store", zap.Error(err))
	}
	defer closeStore()

	faqStore := faq.NewStore(cfg.BasicConfig.FaqPath, zlog)
	zlog.Info("faq loaded", zap.String("path", cfg.BasicConfig.FaqPath), zap.Int("entries", faqStore.Current().Len()))
	if cfg.BasicConfig.WatchFaq {
		go func() {
			if err := faqStore.Watch(ctx); err != nil {
				zlog.Error("faq watcher stopped", zap.Error(err))
			}
		}()
	}

	completer, err := ai.NewCompleter(ctx, cfg.Assistant.Provider, cfg.Provider())
	if err != nil {
		zlog.Fatal("init completion provider", zap.Error(err))
	}
	provider, modelName := completer.Provider()
	zlog.Info("completion provider ready", zap.String("provider", provider), zap.String("model", modelName))

	contracts, err := contract.NewGenerator()
	if err != nil {
		zlog.Fatal("init contract generator", zap.Error(err))
	}

	chatService := chat.NewService(chat.Options{
		SystemPrompt:     cfg.Assistant.SystemPrompt,
		ContractTriggers: cfg.Assistant.ContractTrigger,
		ContractPrompt:   cfg.Assistant.ContractPrompt,
	}, faqStore, completer, recorder, zlog)
	sessions := session.NewStore(chatService, time.Duration(cfg.BasicConfig.SessionTTL)*time.Minute, zlog)

	handlers := api.NewHandler(chatService, sessions, contracts, api.Options{
		CompletionTimeout: time.Duration(cfg.BasicConfig.CompletionTimeout) * time.Second,
		SecureCookies:     cfg.BasicConfig.Production,
	}, zlog)

	if cfg.BasicConfig.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(zlog))
	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.BasicConfig.ServerAddress,
		Handler: router,
	}
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown", zap.Error(err))
	}
}

// openRecorder selects the durable message sink named by the store setting.
func openRecorder(cfg *config.Config, zlog *zap.Logger) (history.Recorder, func(), error) {
	store := strings.ToLower(cfg.BasicConfig.Store)
	switch store {
	case "redis":
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		zlog.Info("message store ready", zap.String("store", store))
		return history.NewRedisRecorder(rdb), func() { rdb.Close() }, nil
	default:
		if store == "sqlite" {
			store = "sqlite3"
		}
		db, err := storage.Open(store, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(db, store); err != nil {
			db.Close()
			return nil, nil, err
		}
		zlog.Info("message store ready", zap.String("store", store))
		return history.NewSQLRecorder(db), func() { db.Close() }, nil
	}
}
