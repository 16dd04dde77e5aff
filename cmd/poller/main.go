package main

import (
	"context"
	"fmt"
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

	"activity_tracker/internal/engine"
	"activity_tracker/internal/tasks"
	"activity_tracker/pkg/github"
	trackergorm "activity_tracker/pkg/gorm"
	"activity_tracker/pkg/kafka"
	"activity_tracker/pkg/scheduler"
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
		serviceName = "activity_poller"
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

	deliverer, err := kafka.NewKafkaDeliverer(kafka.DelivererConfig{
		Addr:         cfg.kafkaBrokers,
		Topic:        cfg.kafkaTopic,
		MaxAttempts:  cfg.kafkaMaxAttempts,
		BatchSize:    cfg.kafkaBatchSize,
		BatchTimeout: cfg.kafkaBatchTimeout,
		WriteTimeout: cfg.kafkaWriteTimeout,
	})
	if err != nil {
		zap.L().Fatal("kafka deliverer init failed", zap.Error(err))
	}
	defer deliverer.Close()

	syncEngine := engine.NewSyncEngine(ghClient, cfg.fetchConcurrency)
	sweep := tasks.GetSyncAccountsFunc(tasks.SweepConfig{
		GuildID:         cfg.guildID,
		FallbackChannel: cfg.fallbackChannel,
	}, accountRepo, channelRepo, syncEngine, deliverer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sched scheduler.Scheduler
	sched.Run(ctx, cfg.pollInterval, sweep)
}

type appConfig struct {
	dbDSN             string
	githubToken       string
	guildID           string
	fallbackChannel   string
	kafkaBrokers      []string
	kafkaTopic        string
	kafkaMaxAttempts  int
	kafkaBatchSize    int
	kafkaBatchTimeout time.Duration
	kafkaWriteTimeout time.Duration
	pollInterval      time.Duration
	fetchConcurrency  int
	requestTimeout    time.Duration
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
	guildID := os.Getenv("GUILD_ID")
	if guildID == "" {
		return appConfig{}, fmt.Errorf("GUILD_ID is required")
	}

	brokersRaw := os.Getenv("KAFKA_BROKERS")
	if brokersRaw == "" {
		return appConfig{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	brokers := splitAndTrim(brokersRaw)
	if len(brokers) == 0 {
		return appConfig{}, fmt.Errorf("KAFKA_BROKERS is empty")
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		return appConfig{}, fmt.Errorf("KAFKA_TOPIC is required")
	}

	return appConfig{
		dbDSN:             dbDSN,
		githubToken:       githubToken,
		guildID:           guildID,
		fallbackChannel:   getEnvString("FALLBACK_CHANNEL", tasks.FallbackChannel),
		kafkaBrokers:      brokers,
		kafkaTopic:        topic,
		kafkaMaxAttempts:  getEnvInt("KAFKA_MAX_ATTEMPTS", 3),
		kafkaBatchSize:    getEnvInt("KAFKA_BATCH_SIZE", 100),
		kafkaBatchTimeout: time.Duration(getEnvInt("KAFKA_BATCH_TIMEOUT_MS", 1000)) * time.Millisecond,
		kafkaWriteTimeout: time.Duration(getEnvInt("KAFKA_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		pollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_SEC", 60)) * time.Second,
		fetchConcurrency:  getEnvInt("FETCH_CONCURRENCY", 4),
		requestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 10)) * time.Second,
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

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
