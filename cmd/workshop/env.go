package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"workshop/internal/logging"
	"workshop/pkg/config"
	"workshop/pkg/history"
	"workshop/pkg/materialize"
)

// environment is the resolved configuration shared by every command.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
}

// loadEnvironment layers flags over the config file and WORKSHOP_* variables.
func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if blueprintsDir != "" {
		cfg.BlueprintsDir = blueprintsDir
	}
	if piecesDir != "" {
		cfg.PiecesDir = piecesDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &environment{cfg: cfg, logger: logger}, nil
}

func (e *environment) close() {
	_ = e.logger.Sync()
}

func (e *environment) openHistory() (*history.DB, error) {
	db, err := history.Open(e.cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// recordRun stores the outcome of a create run. History is best effort and
// never changes the command's result.
func (e *environment) recordRun(run history.Run, res *materialize.Result, runErr error, dryRun bool) {
	if !e.cfg.History.Enabled {
		return
	}

	run.Duration = time.Since(run.StartedAt)
	run.DryRun = dryRun
	run.Status = runStatus(res, runErr)
	if res != nil {
		run.Target = res.Target
		run.Options = res.Included
		run.Files = len(res.Files)
		run.Skipped = len(res.Skipped)
		run.Failures = len(res.Failures)
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	db, err := e.openHistory()
	if err != nil {
		e.logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer db.Close()

	if err := db.Save(run); err != nil {
		e.logger.Warn("failed to record run", zap.String("run", run.ID), zap.Error(err))
	}
}

func runStatus(res *materialize.Result, err error) history.Status {
	switch {
	case errors.Is(err, context.Canceled):
		return history.StatusInterrupted
	case errors.Is(err, materialize.ErrCancelled):
		return history.StatusCancelled
	case err != nil:
		return history.StatusFailed
	case res != nil && len(res.Skipped)+len(res.Failures) > 0:
		return history.StatusPartial
	default:
		return history.StatusCompleted
	}
}
