package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/activity"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/auth"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/careers"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/catalog"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/config"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/handlers"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/leads"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/middleware"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/patterns"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/payment"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const serviceName = "site-service"

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openGateway(cfg)
	if err != nil {
		log.Fatal("Failed to open gateway: ", err)
	}
	defer closeBackend()

	gw := gateway.NewResilient(backend, gateway.ResilienceOptions{
		Service:      serviceName,
		Timeout:      cfg.Gateway.Timeout,
		BulkheadSize: cfg.Gateway.BulkheadSize,
		BulkheadWait: cfg.Gateway.BulkheadWait,
		Breaker: patterns.BreakerSettings{
			MaxRequests:  cfg.Gateway.Breaker.MaxRequests,
			Interval:     cfg.Gateway.Breaker.Interval,
			Timeout:      cfg.Gateway.Breaker.Timeout,
			MinRequests:  cfg.Gateway.Breaker.MinRequests,
			FailureRatio: cfg.Gateway.Breaker.FailureRatio,
		},
	})

	transactions := store.NewTransactions(gw)
	leadStore := store.NewLeads(gw)
	formations := store.NewFormations(gw)
	activityLog := activity.New(gw)

	source, err := openCatalog(ctx, cfg, formations)
	if err != nil {
		log.Fatal("Failed to load formations: ", err)
	}

	locker, closeLocker := openLocker(ctx, cfg)
	defer closeLocker()

	sessions, err := auth.NewSessions(cfg.Admin.Password, cfg.Admin.PasswordHash, cfg.Admin.SessionSecret, cfg.Admin.SessionTTL)
	if err != nil {
		log.Fatal("Failed to configure admin sessions: ", err)
	}
	if !cfg.AdminEnabled() {
		log.Warn("No admin password configured, dashboard API is locked")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	go limiter.RunCleanup(ctx, time.Minute)

	h := handlers.New(handlers.Deps{
		ServiceName: serviceName,
		Payments: payment.NewService(transactions, source, activityLog, payment.NewWaveProvider(cfg.Payment.Merchant), locker, payment.Options{
			StrictBookkeeping: cfg.Payment.StrictBookkeeping,
		}),
		Leads:          leads.NewService(leadStore, transactions, activityLog),
		Careers:        careers.NewService(store.NewJobs(gw), activityLog),
		Catalog:        source,
		Transactions:   transactions,
		LeadStore:      leadStore,
		Activity:       activityLog,
		Sessions:       sessions,
		RateLimiter:    limiter,
		SecureCookie:   cfg.Admin.SecureCookie,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		GatewayState:   gw.State,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Server.Port,
			"backend": cfg.Gateway.Backend,
		}).Info("Site Service starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func openGateway(cfg *config.Config) (gateway.Gateway, func(), error) {
	switch cfg.Gateway.Backend {
	case config.BackendREST:
		return gateway.NewREST(cfg.Gateway.URL, cfg.Gateway.ServiceKey, cfg.Gateway.Timeout), func() {}, nil
	case config.BackendPostgres:
		sqlGateway, err := gateway.OpenPostgres(cfg.Gateway.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sqlGateway, func() {
			if err := sqlGateway.Close(); err != nil {
				log.WithError(err).Warn("Failed to close database")
			}
		}, nil
	case config.BackendMemory:
		log.Warn("Using in-memory gateway, data is lost on restart")
		return gateway.NewMemory(store.Tables...), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown gateway backend %q", cfg.Gateway.Backend)
}

func openCatalog(ctx context.Context, cfg *config.Config, formations *store.Formations) (catalog.Source, error) {
	if cfg.Catalog.File == "" {
		return catalog.NewTable(formations), nil
	}

	file, err := catalog.LoadFile(cfg.Catalog.File)
	if err != nil {
		return nil, err
	}
	if !cfg.Catalog.Seed {
		return file, nil
	}

	if err := catalog.Seed(ctx, formations, file); err != nil {
		return nil, err
	}
	log.WithField("count", len(file.All())).Info("Formations seeded")
	return catalog.NewTable(formations), nil
}

func openLocker(ctx context.Context, cfg *config.Config) (payment.Locker, func()) {
	if cfg.Redis.Addr == "" {
		return payment.NewKeyedMutex(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, verification locks stay in-process")
		_ = client.Close()
		return payment.NewKeyedMutex(), func() {}
	}

	log.WithField("addr", cfg.Redis.Addr).Info("Redis connected")
	return payment.NewRedisLocker(client, serviceName+":", cfg.Redis.LockTTL), func() {
		_ = client.Close()
	}
}
