// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gamesniff/internal/config"
	"gamesniff/internal/logging"
	"gamesniff/internal/output"
	"gamesniff/internal/session"
	"gamesniff/internal/tui"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

// rootCmd runs the terminal UI when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gamesniff",
	Short: "gamesniff - simulated game packet feed",
	Long: `gamesniff shows a live feed of simulated game network packets.

Nothing is captured from a network interface: every packet, including the
hex bytes in the detail view, is generated. Importing a capture file only
simulates processing it.

Without a subcommand the terminal UI starts. Use "serve" to host the feed
for a browser and "export" to write generated packets to disk.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults and GAMESNIFF_* environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	return cfg, nil
}

// newSession builds a session that mirrors every record to the log and,
// when enabled, to Kafka.
func newSession(cfg *config.Config, logger logrus.FieldLogger) (*session.Session, error) {
	sinks := []output.RecordConsumer{output.NewLogOutput(logger)}
	if cfg.Kafka.Enabled {
		kafka, err := output.NewKafkaOutput(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, kafka)
	}

	return session.New(cfg.Session(),
		session.WithLogger(logger),
		session.WithSinks(sinks...),
	), nil
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	if cfg.Log.File.Path == "" {
		cfg.Log.File.Path = filepath.Join(os.TempDir(), "gamesniff.log")
	}
	logger, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}

	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	model := tui.NewModel(sess, cfg.Export.Dir, tui.WithLogger(logger))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	printError(os.Stderr, msg, err)
	os.Exit(1)
}

func printError(w io.Writer, msg string, err error) {
	if err != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
}
