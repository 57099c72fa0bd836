package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vytor/linguaflash/internal/config"
	"github.com/vytor/linguaflash/internal/curriculum"
	"github.com/vytor/linguaflash/internal/db"
	"github.com/vytor/linguaflash/internal/engine"
	"github.com/vytor/linguaflash/internal/logger"
	"github.com/vytor/linguaflash/internal/repository/sqlite"
	"github.com/vytor/linguaflash/internal/services"
	"github.com/vytor/linguaflash/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:           "linguaflash",
	Short:         "Language-learning progress engine",
	Long:          "LinguaFlash schedules vocabulary reviews, gates lessons, tracks daily challenges and awards achievements.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DB_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(learnerCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reevaluateCmd)
	rootCmd.AddCommand(languagesCmd)
}

// app is the wired dependency graph shared by every subcommand.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	db       *db.DB
	pool     *worker.Pool
	learners services.LearnerService
}

// loadConfig applies flag overrides on top of config.Load and validates.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithOutput(cmd.ErrOrStderr()),
	)
	logger.SetDefault(log)
	log.Debug("addr=%s db_path=%s worker_shards=%d worker_queue_size=%d curriculum_path=%q",
		cfg.Addr, cfg.DBPath, cfg.WorkerShards, cfg.WorkerQueueSize, cfg.CurriculumPath)

	cur, err := curriculum.LoadFile(cfg.CurriculumPath)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(cfg.WorkerShards, cfg.WorkerQueueSize)
	pool.Start(ctx)

	learners := services.NewLearnerService(
		sqlite.NewLearnerRepository(database.DB),
		engine.New(),
		cur,
		pool,
		cfg.ReevaluateConcurrency,
	)
	return &app{cfg: cfg, log: log, db: database, pool: pool, learners: learners}, nil
}

func (a *app) Close() {
	a.pool.Stop()
	a.log.Debug("closing database connection")
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database: %v", err)
	}
}
