package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yaakapp/yaaksync/internal/config"
	"github.com/yaakapp/yaaksync/internal/db"
	"github.com/yaakapp/yaaksync/internal/logging"
	"github.com/yaakapp/yaaksync/internal/store"
	"github.com/yaakapp/yaaksync/internal/version"
)

var (
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
)

// cli carries state shared by subcommands of one root command.
type cli struct {
	v       *viper.Viper
	closers []io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "yaaksync",
		Short:         "Mirror Yaak workspaces to a directory of YAML files",
		Version:       version.Detailed(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "yaaksync config file")
	rootCmd.PersistentFlags().StringP("datadir", "d", config.DefaultDataDir, "yaaksync data directory")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newSyncCmd(c),
		newLinkCmd(c),
		newStatusCmd(c),
		newWorkspaceCmd(c),
		newConfigPathCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), red("error:"), err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, YAAKSYNC_* environment variables and
// flags, in increasing order of precedence.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := c.v
	configPath := resolveConfigPath(cmd)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", configPath, err)
		}
	}

	v.BindPFlag("data_dir", cmd.Flags().Lookup("datadir"))
	v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))

	v.SetEnvPrefix("YAAKSYNC")
	v.AutomaticEnv()

	cfg := &config.Config{
		Path:           configPath,
		DataDir:        v.GetString("data_dir"),
		DatabaseDriver: v.GetString("database_driver"),
		DatabaseDSN:    v.GetString("database_dsn"),
		LogLevel:       v.GetString("log_level"),
		LogFile:        v.GetString("log_file"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads config, installs logging and opens the store. Call close when done.
func (c *cli) open(cmd *cobra.Command) (*config.Config, *store.Store, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:   cfg.SlogLevel(),
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	c.closers = append(c.closers, logCloser)

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	c.closers = append(c.closers, st)

	slog.Debug("config", "path", cfg.Path, "datadir", cfg.DataDir, "driver", cfg.DatabaseDriver)
	return cfg, st, nil
}

func (c *cli) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i].Close()
	}
	c.closers = nil
}
