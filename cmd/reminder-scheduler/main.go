// cmd/reminder-scheduler/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vcard-reminder/internal/audit"
	"vcard-reminder/internal/common/config"
	"vcard-reminder/internal/common/database"
	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/common/observability"
	"vcard-reminder/internal/dispatch"
	"vcard-reminder/internal/gateway"
	"vcard-reminder/internal/report"
	"vcard-reminder/internal/repository"
	"vcard-reminder/internal/scheduler"
	"vcard-reminder/internal/templates"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting reminder scheduler...")

	obs := observability.New("reminder-scheduler")
	defer obs.Shutdown()

	ctx := context.Background()

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		zapLog.Fatal("invalid timezone", zap.String("timezone", cfg.Scheduler.Timezone), zap.Error(err))
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch audit trail (optional) ---
	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Database.Elasticsearch.Enabled() {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		recorder = audit.NewESRecorder(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Message Gateway ---
	var gw gateway.Gateway
	switch cfg.Gateway.Provider {
	case config.GatewayProviderSNS:
		gw, err = gateway.NewSNSClient(ctx, cfg.Gateway.SNS.Region, cfg.Gateway.SNS.SenderID, log)
		if err != nil {
			zapLog.Fatal("SNS client failed", zap.Error(err))
		}
	default:
		gw = gateway.NewWhatsAppClient(
			cfg.Gateway.WhatsApp.APIURL,
			cfg.Gateway.WhatsApp.APIToken,
			time.Duration(cfg.Gateway.WhatsApp.Timeout)*time.Millisecond,
			log,
		)
	}
	zapLog.Info("Message gateway initialized", zap.String("provider", gw.Name()))

	// --- Init Exhaustion Reporter ---
	var reporter report.Reporter = report.NopReporter{}
	if cfg.Report.Email.Enabled {
		reporter, err = report.NewEmailReporter(ctx, cfg.Report.Email.Region, cfg.Report.Email.FromEmail, cfg.Report.Email.ToEmail, log)
		if err != nil {
			zapLog.Fatal("email reporter failed", zap.Error(err))
		}
	}

	// --- Wire the dispatch pipeline ---
	cards := repository.NewCardRepository(pg.DB, log)
	staff := repository.NewStaffRepository(
		pg.DB,
		rdb.Client,
		time.Duration(cfg.Database.Redis.StaffCacheTTL)*time.Second,
		log,
	)
	formatter := templates.NewFormatter(templates.NewRegistry())
	resolver := dispatch.NewResolver(cards, staff, location, cfg.Scheduler.DefaultPhoneNumber, log)
	engine := dispatch.NewEngine(
		resolver,
		cards,
		gw,
		formatter,
		recorder,
		obs,
		time.Duration(cfg.Scheduler.MessageDelay)*time.Millisecond,
		log,
	)

	sched := scheduler.New(cfg.Scheduler, location, resolver, engine, reporter, log)
	if err := sched.Start(ctx); err != nil {
		zapLog.Fatal("scheduler start failed", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"message": "Server is running",
			})
		})
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping scheduler...")
	sched.Stop()

	zapLog.Info("Reminder scheduler stopped gracefully")
}
