package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/transcribe-api/internal/config"
	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/platform/migrations"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	challengeCount int
	challengeSeed  uint64
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "transcribe-api",
		Short:         "Transcription study server",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServeCmd,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML config file (default: ./config.yaml if present)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newChallengeCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version]",
		Short: "Manage the schema of the SQL persistence backends",
		Args:  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{
			migrations.CommandUp,
			migrations.CommandDown,
			migrations.CommandStatus,
			migrations.CommandVersion,
		},
		RunE: runMigrateCmd,
	}
}

func newChallengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Print generated challenges as JSON lines",
		Args:  cobra.NoArgs,
		RunE:  runChallengeCmd,
	}
	cmd.Flags().IntVar(&challengeCount, "count", 1, "number of challenges to generate")
	cmd.Flags().Uint64Var(&challengeSeed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

// loadConfigAndLogger loads the configuration and installs the JSON logger
// as the slog default.
func loadConfigAndLogger() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"backend", cfg.Persistence.Backend,
		"sync_persistence", cfg.Persistence.Sync)
	return cfg, log, nil
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func runMigrateCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	return runMigrations(cmd.Context(), cfg, args[0], log)
}

func runChallengeCmd(cmd *cobra.Command, _ []string) error {
	if challengeCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", challengeCount)
	}
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return writeChallenges(cmd.OutOrStdout(), cfg.Study, challengeCount, challengeSeed)
}

// writeChallenges prints count generated challenges, one JSON object per
// line.
func writeChallenges(w io.Writer, studyCfg config.StudyConfig, count int, seed uint64) error {
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	gen := domain.NewGenerator(rng, domain.BitSchedule{
		Base: studyCfg.BitsBase,
		Max:  studyCfg.BitsMax,
		Step: studyCfg.BitsStep,
	})

	enc := json.NewEncoder(w)
	for i := 0; i < count; i++ {
		if err := enc.Encode(gen.Next()); err != nil {
			return fmt.Errorf("failed to write challenge: %w", err)
		}
	}
	return nil
}
