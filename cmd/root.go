package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/jon4hz/accountd/internal/config"
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
	EnvFile    string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.accountd, /etc/accountd)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.EnvFile, "env-file", ".env", "File with environment variables to load before reading the config")
}

var rootCmd = &cobra.Command{
	Use:   "accountd",
	Short: "accountd serves user accounts and their settings over HTTP",
	Long:  `accountd is a small HTTP API to manage user accounts, passwords, profile pictures and notification, theme and privacy settings.`,
	Example: `accountd serve --config config.yml
  accountd serve -c /path/to/config.yml --log-level debug
  accountd seed --password secret`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile()
		loadEnvFile(rootCmdPersistentFlags.EnvFile)
	},
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	// Create a multi-writer that writes to both console and file
	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

// loadEnvFile loads variables from path without overriding the ones already set.
// A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no env file found", "file", path)
			return
		}
		log.Warn("failed to load env file", "file", path, "error", err)
		return
	}
	log.Debug("loaded env file", "file", path)
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootCmdPersistentFlags.ConfigFile)
}

func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd)
}
