package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	gormio "gorm.io/gorm"

	"activity_tracker/internal/account"
	"activity_tracker/internal/httpapi"
	"activity_tracker/pkg/github"
	trackergorm "activity_tracker/pkg/gorm"
)

func main() {
	godotenv.Load()

	logger, err := buildLogger()
	if err != nil {
		fmt.Printf("Error when building logger: %v", err)
		return
	}
	defer logger.Sync()

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "activity_tracker_server"
	}
	logger = logger.With(zap.String("service", serviceName))
	zap.ReplaceGlobals(logger)
	zap.L().Info("logger initialized")

	cfg, err := loadConfig()
	if err != nil {
		zap.L().Fatal("invalid config", zap.Error(err))
	}

	db, err := gormio.Open(postgres.Open(cfg.dbDSN), &gormio.Config{})
	if err != nil {
		zap.L().Fatal("db connection failed", zap.Error(err))
	}
	if err := trackergorm.Migrate(db); err != nil {
		zap.L().Fatal("db migration failed", zap.Error(err))
	}

	accountRepo := trackergorm.NewGormAccountRepo(db)
	channelRepo := trackergorm.NewGormChannelRepo(db)

	ghClient, err := github.NewClient(cfg.githubToken, cfg.requestTimeout)
	if err != nil {
		zap.L().Fatal("github client init failed", zap.Error(err))
	}

	service := account.NewService(accountRepo, channelRepo, ghClient)
	handler := httpapi.NewHandler(service)

	server := &http.Server{
		Addr:    cfg.httpAddr,
		Handler: handler.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	zap.L().Info("admin api listening", zap.String("addr", cfg.httpAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server stopped with error", zap.Error(err))
		}
	}
}

type appConfig struct {
	dbDSN           string
	githubToken     string
	httpAddr        string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
}

func loadConfig() (appConfig, error) {
	dbDSN := os.Getenv("DB_DSN")
	if dbDSN == "" {
		return appConfig{}, fmt.Errorf("DB_DSN is required")
	}
	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" {
		return appConfig{}, fmt.Errorf("GITHUB_TOKEN is required")
	}

	return appConfig{
		dbDSN:           dbDSN,
		githubToken:     githubToken,
		httpAddr:        getEnvString("HTTP_ADDR", ":8080"),
		requestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 10)) * time.Second,
		shutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
	}, nil
}

func buildLogger() (*zap.Logger, error) {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))

	var cfg zap.Config
	if env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func parseLogLevel(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnvString(key string, def string) string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	return raw
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
