package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/riskengine/pkg/assessment"
	"github.com/synaptica-ai/riskengine/pkg/common/config"
	"github.com/synaptica-ai/riskengine/pkg/common/database"
	"github.com/synaptica-ai/riskengine/pkg/common/kafka"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/gateway/middleware"
	"github.com/synaptica-ai/riskengine/pkg/observability/metrics"
	"github.com/synaptica-ai/riskengine/pkg/profile"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
	"github.com/synaptica-ai/riskengine/pkg/serving"
	"gorm.io/gorm"
)

func main() {
	logger.Init("assessment-service")
	cfg := config.Load()

	var db *gorm.DB
	if cfg.PersistAssessments || cfg.ProfileSource == config.ProfileSourcePostgres {
		var err error
		db, err = database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to database")
		}
		defer database.ClosePostgres()
	}

	var profiles resolver.ProfileLookup
	if cfg.ProfileSource != config.ProfileSourceNone {
		src, err := profile.FromConfig(cfg, db, database.GetRedis(cfg))
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to configure profile source")
		}
		defer database.CloseRedis()
		profiles = src
	}

	components, err := assessment.LoadComponents(cfg, profiles)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load assessment components")
	}

	var history assessment.History
	if cfg.PersistAssessments {
		repo := serving.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate assessment tables")
		}
		history = repo
	}

	var events assessment.EventPublisher
	if cfg.PublishAssessments {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AssessmentResultTopic)
		defer producer.Close()
		events = producer
	}

	service := assessment.NewService(components.Extractor, components.Resolver, components.Registry, history, events)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/ready", readyCheck(db)).Methods("GET")
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods("GET")
	assessment.NewHTTPHandler(service).Register(router.PathPrefix("/api/v1").Subrouter())

	// mux does not run Use middleware for unmatched methods, so wrap the router itself.
	var handler http.Handler = router
	handler = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(handler)
	handler = middleware.BodyLimit(cfg.MaxRequestBody)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":           cfg.ServerHost,
			"port":           cfg.ServerPort,
			"profile_source": cfg.ProfileSource,
		}).Info("Assessment Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Assessment Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Assessment Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readyCheck reports ready once artifacts are loaded, which main guarantees,
// and the database (when used) answers a ping.
func readyCheck(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(r.Context())
			}
			if err != nil {
				logger.Log.WithError(err).Warn("Readiness check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
