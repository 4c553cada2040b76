package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/xaenox/time-bot/internal/app"
	"github.com/xaenox/time-bot/internal/bot"
	"github.com/xaenox/time-bot/internal/conversation"
	"github.com/xaenox/time-bot/internal/food"
	"github.com/xaenox/time-bot/internal/reminder"
	"github.com/xaenox/time-bot/internal/storage"
	"github.com/xaenox/time-bot/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file (default ./config.yaml when present)")
	pflag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}
	if err := cfg.ValidateBot(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	clk := app.Clock(cfg, logger)

	// Note pipeline
	notes, err := app.NewPipeline(cfg, clk, logger)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline", zap.Error(err))
	}

	// Food tracker
	foodFiles, err := storage.NewFileStore(cfg.Food.Dir)
	if err != nil {
		logger.Fatal("Failed to initialize food tracker storage", zap.Error(err))
	}
	conditions := food.NewConditionService(foodFiles)
	events := food.NewEventService(foodFiles, food.NewFoodsService(foodFiles), conditions, clk, logger)
	reminders := reminder.NewRegistry(foodFiles, cfg.Reminder.File, clk.Location())

	var composition food.CompositionExtractor
	if c := food.NewLLMComposition(food.CompositionConfig{
		APIKey:  cfg.Food.APIKey,
		BaseURL: cfg.Food.BaseURL,
		Model:   cfg.Food.Model,
		Timeout: cfg.Food.Timeout,
	}, logger); c != nil {
		composition = c
	} else {
		logger.Info("Composition extraction disabled")
	}

	var photos food.PhotoIntake
	if p := food.NewHTTPPhotoIntake(food.PhotoIntakeConfig{
		URL:     cfg.PhotoIntake.URL,
		Token:   cfg.PhotoIntake.Token,
		Timeout: cfg.PhotoIntake.Timeout,
	}); p != nil {
		photos = p
	} else {
		logger.Info("Photo intake disabled")
	}

	sessions := storage.NewMemoryStorage[conversation.Session]()
	machine := conversation.NewMachine(conversation.Deps{
		Sessions:    sessions,
		Events:      events,
		Conditions:  conditions,
		Reminders:   reminders,
		Composition: composition,
		Photos:      photos,
		Clock:       clk,
		Logger:      logger,
	})

	// Initialize bot
	api, err := bot.NewAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}
	b := bot.New(bot.Deps{
		API:      api,
		Pipeline: notes,
		Machine:  machine,
		Sessions: sessions,
		Clock:    clk,
		VaultDir: cfg.Vault.Dir,
		TasksDir: cfg.Vault.TasksDir,
		Logger:   logger,
	})
	scheduler := reminder.NewScheduler(reminders, b, clk, cfg.Reminder.PollInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })

	logger.Info("Time bot running",
		zap.String("vault", cfg.Vault.Dir),
		zap.String("food_dir", cfg.Food.Dir),
		zap.String("timezone", clk.Location().String()))
	if err := g.Wait(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
