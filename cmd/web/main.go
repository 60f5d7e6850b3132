package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"techticks-chat/internal/app"
	"techticks-chat/internal/config"
	apihttp "techticks-chat/internal/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("build app", zap.Error(err))
	}
	defer a.Close()

	go a.Catalog.Load(ctx)

	sessionHandler := apihttp.NewSessionHandler(logger, a.Session, a.Conversation, a.API)
	chatHandler := apihttp.NewChatHandler(logger, a.Conversation)
	catalogHandler := apihttp.NewCatalogHandler(logger, a.Catalog)
	router := apihttp.NewRouter(logger, a.Session, sessionHandler, chatHandler, catalogHandler)

	server := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		// Las respuestas del chat pueden tardar hasta el timeout del backend.
		WriteTimeout: cfg.ChatAPITimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting gateway",
			zap.String("addr", cfg.WebAddr),
			zap.String("chat_api", cfg.ChatAPIBaseURL),
			zap.String("storage", cfg.StorageBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
