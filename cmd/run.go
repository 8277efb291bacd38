package cmd

import (
	"context"
	"fmt"
	"time"

	"scoreboard/config"
	"scoreboard/database"
	"scoreboard/events"
	"scoreboard/infrastructure"
	"scoreboard/models"
	"scoreboard/observability"
	"scoreboard/repository"
	"scoreboard/service"

	log "github.com/sirupsen/logrus"
)

// Options selects what a scoring run does besides scoring new games
type Options struct {
	Rebuild bool     // wipe all derived statistics and rescore every game
	Rescore []string // players whose statistics are reset before scoring
}

// Run wires the scorer and performs one scoring run
func Run(ctx context.Context, opts Options) error {
	cfg := config.Get()
	setupLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting scoreboard scoring run...")

	// Load game tables
	log.WithField("file", cfg.TablesFile).Info("Loading game tables...")
	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return fmt.Errorf("failed to load game tables: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("Closing database connection...")
		db.Close()
	}()
	log.Info("Database connection established successfully")

	// Initialize event bus and metrics
	eventBus := events.NewBus()
	defer eventBus.Close()
	metrics := observability.NewRunMetrics()
	eventBus.SubscribeAll(metrics.HandleEvent)

	scoringOpts := service.OptionsFromConfig(cfg)
	scoringOpts.OnEvict = metrics.ObserveEviction

	store := repository.NewStore(db)
	scoring := service.NewScoringService(store, tables, scoringOpts, eventBus)
	runID := scoring.Summary().RunID

	// Forward events to NATS when configured
	if cfg.NATSServers != "" {
		natsClient, err := connectNATS(ctx, cfg.NATSServers)
		if err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing NATS connection")
			}
		}()

		publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), runID)
		eventBus.SubscribeAll(publisher.HandleEvent)
		log.Info("Event forwarding to NATS enabled")
	}

	for _, name := range opts.Rescore {
		log.WithField("player", name).Info("Resetting player for rescore...")
		if err := scoring.RescorePlayer(ctx, name); err != nil {
			return fmt.Errorf("failed to reset player %s: %w", name, err)
		}
	}

	summary, err := scoring.ScoreGames(ctx, opts.Rebuild)

	// Drain the handler queues before reporting
	eventBus.Close()

	// The run context may already be cancelled, so the audit record gets its own
	auditCtx, cancelAudit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelAudit()
	if auditErr := repository.NewScoringRunRepository(db).Create(auditCtx, models.NewScoringRun(summary, opts.Rebuild, err)); auditErr != nil {
		log.WithError(auditErr).Warn("Failed to record scoring run")
	}

	if err != nil {
		return fmt.Errorf("scoring run %s failed: %w", runID, err)
	}

	metrics.RecordRun(summary)
	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, runID); err != nil {
			log.WithError(err).Warn("Failed to push run metrics")
		}
	}

	log.WithFields(log.Fields{
		"run_id":      runID,
		"scored":      summary.Scored,
		"blacklisted": summary.Blacklisted,
		"invalid":     summary.Invalid,
	}).Info("Scoring run completed")
	return nil
}

func connectNATS(ctx context.Context, servers string) (*infrastructure.NATSClient, error) {
	log.WithField("servers", servers).Info("Connecting to NATS...")
	client := infrastructure.NewNATSClient(servers)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subjects := infrastructure.NewEventSubjectMapper().GetAllSubjects()
	if err := client.EnsureStream(infrastructure.StreamName, subjects); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return client, nil
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
