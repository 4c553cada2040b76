// Package app assembles services from configuration for the entrypoints.
package app

import (
	"fmt"

	"github.com/xaenox/time-bot/internal/classifier"
	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/eventlog"
	"github.com/xaenox/time-bot/internal/pipeline"
	"github.com/xaenox/time-bot/internal/storage"
	"github.com/xaenox/time-bot/pkg/config"
	"go.uber.org/zap"
)

// Clock returns the configured bot clock, falling back to UTC for unknown zones.
func Clock(cfg *config.Config, logger *zap.Logger) *clock.Zone {
	loc, ok := clock.LoadLocation(cfg.Timezone)
	if !ok {
		logger.Warn("Unknown timezone, using UTC", zap.String("timezone", cfg.Timezone))
	}
	return clock.NewZone(loc)
}

// NewPipeline wires the classifier, vault store and event log into a pipeline.
func NewPipeline(cfg *config.Config, clk clock.Clock, logger *zap.Logger) (*pipeline.Pipeline, error) {
	vault, err := storage.NewFileStore(cfg.Vault.Dir)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	events, err := eventlog.Open(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	clf := classifier.NewGPTClassifier(classifier.Config{
		APIKey:   cfg.OpenAI.APIKey,
		BaseURL:  cfg.OpenAI.BaseURL,
		Model:    cfg.OpenAI.Model,
		Timeout:  cfg.OpenAI.Timeout,
		Timezone: cfg.Timezone,
	}, logger)

	return pipeline.New(pipeline.Config{
		VaultDir:     cfg.Vault.Dir,
		TasksDir:     cfg.Vault.TasksDir,
		TaskTimezone: cfg.TaskTimezone,
	}, clf, vault, events, clk, logger), nil
}
