package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/easybook-chat/internal/config"
	"github.com/rickgao/easybook-chat/internal/connection"
	"github.com/rickgao/easybook-chat/internal/metrics"
	"github.com/rickgao/easybook-chat/internal/session"
	"github.com/rickgao/easybook-chat/internal/storage"
	"github.com/rickgao/easybook-chat/internal/version"
)

type options struct {
	configPath string
	url        string
	logLevel   string
	markup     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "easybook-chat",
		Short:        "Terminal client for the EasyBook AI assistant",
		Long:         "Chats with the EasyBook movie assistant over WebSocket and keeps chat history between runs.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&opts.url, "url", "", "chat WebSocket URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().BoolVar(&opts.markup, "markup", false, "print formatted HTML instead of plain text")

	root.AddCommand(historyCmd(opts), versionCmd())
	return root
}

func historyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved chat sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log.Level, cmd.ErrOrStderr())

			store, closeStore, err := storage.Open(cmd.Context(), cfg.Storage, logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer closeStore()

			history := session.NewHistory(store, cfg.Storage.Key, logger)
			history.Load(cmd.Context())

			out := cmd.OutOrStdout()
			if history.Len() == 0 {
				fmt.Fprintln(out, "No saved chats.")
				return nil
			}
			for _, line := range sessionList(history.Sessions(), history.CurrentIndex()) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// loadConfig reads the config file (if any), applies defaults and flag overrides, and validates.
func loadConfig(opts *options) (*config.Config, error) {
	return config.LoadAndValidate(opts.configPath,
		config.WithChatURL(opts.url),
		config.WithLogLevel(opts.logLevel),
	)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func runChat(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// Logs go to stderr so they do not interleave with the conversation
	logger := newLogger(cfg.Log.Level, os.Stderr)
	slog.SetDefault(logger)

	logger.Info("starting easybook-chat",
		"version", version.Version,
		"commit", version.Commit,
		"url", cfg.Chat.URL,
		"storage", cfg.Storage.Driver,
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	history := session.NewHistory(store, cfg.Storage.Key, logger)

	var mt *metrics.Metrics
	if cfg.Metrics.Enabled {
		mt = metrics.New()
	}

	term := newConsole(out, opts.markup)
	dialer := connection.NewWSDialer(wsConfig(cfg.Chat), logger)
	mgr := connection.NewManager(
		connection.ManagerConfig{
			ReconnectBaseDelay:   cfg.Chat.ReconnectBaseDelay,
			MaxReconnectAttempts: cfg.Chat.MaxReconnectAttempts,
		},
		dialer,
		term,
		history,
		connection.WithLogger(logger),
		connection.WithMetrics(mt),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := mgr.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return readInput(gctx, in, &chatCLI{mgr: mgr, term: term})
	})

	if cfg.Metrics.Enabled {
		healthServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           createHealthHandler(mgr, mt, cfg.Metrics.Path),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting health server", "port", cfg.Metrics.Port)
			if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return healthServer.Shutdown(shutdownCtx)
		})
	}

	term.welcome()

	err = g.Wait()
	if errors.Is(err, errQuit) {
		err = nil
	}
	logger.Info("easybook-chat stopped")
	return err
}

func wsConfig(c config.ChatConfig) connection.WSConfig {
	return connection.WSConfig{
		URL:              c.URL,
		HandshakeTimeout: c.HandshakeTimeout,
		WriteTimeout:     c.WriteTimeout,
		PingInterval:     c.PingInterval,
		PingTimeout:      c.PingTimeout,
		ReadLimit:        c.ReadLimit,
		UserAgent:        version.UserAgent(),
	}
}
