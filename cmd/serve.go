package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gamesniff/internal/logging"
	"gamesniff/internal/web"
)

var serveListen string

// serveCmd hosts the feed for a browser.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the packet feed to a browser",
	Long: `Run the web host for one capture session.

The page at / shows the feed, the filter and the detail panel. The state is
pushed over the /ws/feed websocket and actions go through /api/*.
Stop with Ctrl+C.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runServe(ctx); err != nil {
			exitWithError("serve failed", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "",
		"listen address (overrides web.listen)")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Web.Listen = serveListen
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := web.NewServer(cfg.Web.Listen, sess,
		web.WithRefreshInterval(cfg.Web.RefreshInterval),
		web.WithLogger(logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("web server stopped with error: %w", err)
	}
	return nil
}
