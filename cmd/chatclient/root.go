package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comigor/chatclient/internal/config"
	"github.com/comigor/chatclient/internal/dispatch"
	"github.com/comigor/chatclient/internal/journal"
	"github.com/comigor/chatclient/internal/logger"
	"github.com/comigor/chatclient/internal/session"
	"github.com/comigor/chatclient/internal/transport"
	"github.com/comigor/chatclient/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:          "chatclient",
	Short:        "Terminal client for the chat server",
	SilenceUsage: true,
	RunE:         runClient,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("host", "", "chat server host")
	flags.String("port", "", "chat server port")
	flags.String("journal", "", "SQLite journal path (empty keeps it in memory)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "log file (the TUI discards logs without one)")

	rootCmd.Flags().String("user", "", "username to pre-fill at the connect prompt")
	rootCmd.Flags().String("mode", "", "front end: tui or plain")

	bind := map[string]string{
		"server.host":  "host",
		"server.port":  "port",
		"journal.path": "journal",
		"log.level":    "log-level",
		"log.file":     "log-file",
	}
	for key, name := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
	_ = viper.BindPFlag("user.name", rootCmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("ui.mode", rootCmd.Flags().Lookup("mode"))

	rootCmd.AddCommand(journalCmd)
}

func runClient(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	if cfg.UI.Mode == config.ModeTUI || cfg.Log.File != "" {
		closer, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			slog.Error("failed to open log file", "path", cfg.Log.File, "error", err)
			return err
		}
		defer closer.Close()
	} else {
		logger.SetOutput(os.Stderr)
	}

	j := journal.Open(cfg.Journal.Path)
	defer j.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := transport.Options{
		Addr:        cfg.Server.Addr(),
		DialTimeout: cfg.Server.DialTimeout,
		SendBuffer:  cfg.Server.SendBuffer,
	}
	newTransport := func(s *session.Session) session.Transport {
		return transport.New(ctx, opts, s)
	}

	logger.L.Info("starting client", "server", opts.Addr, "mode", cfg.UI.Mode)

	switch cfg.UI.Mode {
	case config.ModePlain:
		p := ui.NewPlain(os.Stdout, cfg.User.Name)
		s := session.New(p, j, newTransport)
		return runSession(ctx, s, func() error { return p.Run(ctx, os.Stdin, s) })
	default:
		t := ui.NewTUI(ctx, cfg.User.Name)
		s := session.New(t, j, newTransport)
		return runSession(ctx, s, func() error { return t.Run(ctx, s) })
	}
}

// runSession runs the session loop next to the front end and stops it once
// the front end returns.
func runSession(ctx context.Context, s *session.Session, front func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			logger.L.Error("session error", "error", err)
		}
	}()

	err := front()
	cancel()
	<-done
	logger.L.Info("client stopped", "session", s.ID())
	return err
}

var (
	_ dispatch.Sink = (*ui.TUI)(nil)
	_ dispatch.Sink = (*ui.Plain)(nil)
)
