package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/synaptica-ai/riskengine/pkg/assessment"
	"github.com/synaptica-ai/riskengine/pkg/common/config"
	"github.com/synaptica-ai/riskengine/pkg/common/database"
	"github.com/synaptica-ai/riskengine/pkg/common/kafka"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/profile"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
	"github.com/synaptica-ai/riskengine/pkg/serving"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		logger.Log.WithError(err).Error("Assessment Worker stopped; uncommitted requests will be redelivered")
		os.Exit(1)
	}
}

func run() error {
	logger.Init("assessment-worker")
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

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AssessmentResultTopic)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.AssessmentRequestTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	service := assessment.NewService(components.Extractor, components.Resolver, components.Registry, history, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down Assessment Worker...")
		cancel()
	}()

	logger.Log.WithFields(map[string]interface{}{
		"topic":    cfg.AssessmentRequestTopic,
		"group_id": cfg.KafkaGroupID,
	}).Info("Assessment Worker started")

	if err := consumer.Consume(ctx, service.HandleEvent); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Log.Info("Assessment Worker stopped")
	return nil
}
