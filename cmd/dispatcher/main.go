// cmd/dispatcher/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"notification-dispatcher/internal/audit"
	"notification-dispatcher/internal/common/auth"
	awsclients "notification-dispatcher/internal/common/aws"
	"notification-dispatcher/internal/common/camunda"
	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/database"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/observability"
	"notification-dispatcher/internal/dedup"
	"notification-dispatcher/internal/dispatch"
	"notification-dispatcher/internal/gateway"
	"notification-dispatcher/internal/mailer"
	"notification-dispatcher/internal/models"
	"notification-dispatcher/internal/resolver"

	de "notification-dispatcher/internal/workers/notification/dispatch-event"
	sae "notification-dispatcher/internal/workers/notification/send-account-email"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification dispatcher...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("notification-dispatcher")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

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
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional history index) ---
	var historyIndexer *audit.Indexer
	if cfg.Database.Elasticsearch.Enabled {
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
		historyIndexer = audit.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS clients ---
	sesClient, err := awsclients.NewSESClient(ctx, cfg.Mail.AWSRegion)
	if err != nil {
		zapLog.Fatal("SES client initialization failed", zap.Error(err))
	}

	var snsClient *awsclients.SNSClient
	if cfg.Alerts.Enabled {
		snsClient, err = awsclients.NewSNSClient(ctx, cfg.Alerts.AWSRegion)
		if err != nil {
			zapLog.Fatal("SNS client initialization failed", zap.Error(err))
		}
	}

	// --- Build template catalog, fail fast on gaps ---
	var logo *models.Attachment
	if cfg.Mail.LogoPath != "" {
		data, err := os.ReadFile(cfg.Mail.LogoPath)
		if err != nil {
			zapLog.Warn("logo not readable, mails go out without it", zap.Error(err))
		} else {
			logo = &models.Attachment{
				Filename:    "logo.png",
				ContentType: "image/png",
				Content:     data,
			}
		}
	}

	catalog := mailer.NewCatalog(logo)
	required := append(resolver.RequiredTemplates(),
		"email-confirmation", "reset-password", "send-new-password")
	if err := catalog.Validate(required); err != nil {
		zapLog.Fatal("template catalog incomplete", zap.Error(err))
	}
	zapLog.Info("Template catalog validated", zap.Int("templates", len(required)))

	// --- Wire the dispatch pipeline ---
	var tokenProvider auth.TokenProvider
	if cfg.Gateway.Auth.TokenURL != "" {
		tokenProvider = auth.NewClientCredentialsProvider(
			cfg.Gateway.Auth.TokenURL,
			cfg.Gateway.Auth.ClientID,
			cfg.Gateway.Auth.ClientSecret,
		)
	}

	directory := gateway.NewClient(
		cfg.Gateway.GraphQLURL,
		time.Duration(cfg.Gateway.Timeout)*time.Millisecond,
		tokenProvider,
		log,
	)

	notifier := mailer.NewSESNotifier(sesClient, catalog, log)
	filter := dispatch.NewDomainFilter(cfg.Mail.BlockedDomains)
	executor := dispatch.NewExecutor(notifier, filter, log)

	eventResolver := resolver.New(directory, resolver.Links{BaseURL: cfg.Links.SiteBaseURL}, log)
	dedupStore := dedup.NewStore(redis.Client, time.Duration(cfg.Dedup.TTLHours)*time.Hour)
	auditStore := audit.NewStore(pg.DB)

	// --- Register workers ---
	var workers []*camunda.CamundaWorker

	if cfg.Workers[de.TaskType].Enabled {
		var alertPublisher de.SNSService
		if snsClient != nil {
			alertPublisher = snsClient
		}

		var history de.HistoryIndexer
		if historyIndexer != nil {
			history = historyIndexer
		}

		handler, err := de.NewHandler(
			&de.Config{
				Timeout:       time.Duration(cfg.Workers[de.TaskType].Timeout) * time.Millisecond,
				AlertsEnabled: cfg.Alerts.Enabled,
				AlertTopicARN: cfg.Alerts.TopicARN,
			},
			eventResolver, executor, dedupStore, auditStore, history, alertPublisher, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create dispatch-event handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebeClient, de.TaskType, workerOptions(cfg.Workers[de.TaskType]), handler, zapLog))
	}

	if cfg.Workers[sae.TaskType].Enabled {
		handler := sae.NewHandler(
			&sae.Config{
				Timeout:         time.Duration(cfg.Workers[sae.TaskType].Timeout) * time.Millisecond,
				ConfirmationURL: joinURL(cfg.Links.SiteBaseURL, cfg.Mail.ConfirmationPath),
				ResetURL:        joinURL(cfg.Links.SiteBaseURL, cfg.Mail.ResetPasswordPath),
			},
			executor, log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, sae.TaskType, workerOptions(cfg.Workers[sae.TaskType]), handler, zapLog))
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
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
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not_ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Stop()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Notification dispatcher stopped gracefully")
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

func workerOptions(wcfg config.WorkerConfig) camunda.WorkerOptions {
	return camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
	}
}
