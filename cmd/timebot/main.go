package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"github.com/xaenox/time-bot/internal/app"
	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/pipeline"
	"github.com/xaenox/time-bot/internal/stats"
	"github.com/xaenox/time-bot/pkg/config"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := rootCmd()
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(statsCmd())
	root.AddCommand(tasksCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func rootCmd() *cobra.Command {
	var (
		dryRun    bool
		outputDir string
		date      string
	)

	cmd := &cobra.Command{
		Use:   "timebot [text]",
		Args:  cobra.ArbitraryArgs,
		Short: "Turn a message into a time log or task note",
		Long:  "Classifies the text, extracts an entry and writes a markdown note into the vault. Reads stdin when no text is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			opts := pipeline.Options{DryRun: dryRun}
			if outputDir != "" {
				abs, err := filepath.Abs(outputDir)
				if err != nil {
					return err
				}
				opts.OutputDir = abs
				if cfg.Vault.Dir == "" {
					cfg.Vault.Dir = abs
				}
			}
			if date != "" {
				d, err := civil.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				opts.Today = &d
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			p, err := app.NewPipeline(cfg, app.Clock(cfg, logger), logger)
			if err != nil {
				return err
			}
			res, err := p.Process(context.Background(), text, opts)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the note without writing it")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write notes here instead of the vault")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD for relative dates")

	return cmd
}

func printResult(w io.Writer, res pipeline.Result) {
	var (
		markdown, path string
		saved          bool
	)
	switch r := res.(type) {
	case pipeline.TimeLogResult:
		markdown, path, saved = r.Markdown, r.Note.FilePath, r.Saved
	case pipeline.TaskResult:
		markdown, path, saved = r.Markdown, r.Note.FilePath, r.Saved
	}

	if !saved {
		fmt.Fprintf(w, "[dry-run] %s would be written to %s\n\n%s", res.Kind(), path, markdown)
		return
	}
	fmt.Fprintf(w, "Saved %s note: %s\n", res.Kind(), path)
}

func statsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show minutes per maintag for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			day := clock.Today(app.Clock(cfg, logger))
			if date != "" {
				if day, err = civil.ParseDate(date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			s, err := stats.ReadDailyStats(cfg.Vault.Dir, day)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Format())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day YYYY-MM-DD (default today)")
	return cmd
}

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List open tasks by due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			tasks, err := stats.ReadTasks(cfg.Vault.TasksDir)
			if err != nil {
				return err
			}
			overview := stats.BuildOverview(tasks, clock.Today(app.Clock(cfg, logger)))
			fmt.Fprintln(cmd.OutOrStdout(), overview.Format())
			return nil
		},
	}
}
