package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/homesweep/internal/config"
	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/progress"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "homesweep",
	Short: "Find and reclaim disk space in your home directory",
	Long: `homesweep scans well-known cache, download and build-artifact locations under
your home directory and reports what can be reclaimed. Nothing is removed
until you apply a plan, and applied paths go to a trash directory by default.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

// app is what every command needs: config, logger and engine
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *engine.Engine
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if verbose {
		log.SetLevel(logger.LevelDebug)
	}

	eng, err := engine.New(cfg,
		engine.WithLogger(log),
		engine.WithProgress(progress.NewReporter()),
	)
	if err != nil {
		log.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, engine: eng}, nil
}

func (a *app) Close() {
	a.log.Close()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
