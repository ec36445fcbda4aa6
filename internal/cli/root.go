// Package cli implements the seal-preview command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/seal-preview/internal/config"
	"github.com/Sternrassler/seal-preview/pkg/client"
	"github.com/Sternrassler/seal-preview/pkg/logging"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	noColor    bool

	// cfg is loaded by the root PersistentPreRunE before any command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "seal-preview",
	Short:         "Fetch Seal contract previews and their annotation metadata",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `seal-preview talks to the Seal API: it logs in, fetches the rendered
preview of a contract together with its paged metadata, and normalizes the
metadata into annotations keyed by category and offset.

Configuration is read from ~/.seal/seal.yaml (or --config) with SEAL_*
environment overrides.`,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.seal/seal.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
}

func setup(cmd *cobra.Command, _ []string) error {
	if noColor {
		color.NoColor = true
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	cfg = loaded

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	logCfg.Pretty = cfg.Log.Pretty
	logCfg.File = cfg.Log.File
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	return nil
}

// Execute is called by main.go.
func Execute() {
	err := rootCmd.Execute()
	logging.Close()
	if err != nil {
		printErr(os.Stderr, "", err.Error())
		os.Exit(1)
	}
}

// configFile returns the path the current config was loaded from.
func configFile() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// newClient builds a Seal client from the loaded config.
func newClient() (*client.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("no session token\nRun 'seal-preview login' or set %s.", config.EnvToken)
	}

	ccfg := client.DefaultConfig(cfg.URL, cfg.Token)
	ccfg.UserAgent = cfg.UserAgent
	ccfg.Timeout = cfg.Timeout
	ccfg.PageLimit = cfg.PageLimit
	ccfg.CollisionPolicy = cfg.Policy()
	return client.New(ccfg)
}

// newRedis connects to the snapshot store and verifies the connection.
func newRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cannot connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}
