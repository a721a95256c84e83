package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjiill888/Flick/internal/domain/session"
	"github.com/jjiill888/Flick/internal/infrastructure/config"
	"github.com/jjiill888/Flick/internal/infrastructure/logging"
	"go.uber.org/zap"
)

func main() {
	folder := flag.String("folder", "", "Folder to open")
	configFile := flag.String("config", "flick.toml", "Configuration file")
	flag.Parse()

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flick: %v\n", err)
		os.Exit(1)
	}
	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	defer logger.Close()

	if err := run(cfg, logger.Logger, *folder, flag.Arg(0), os.Stdin, os.Stdout); err != nil {
		logger.Error("Exiting with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, folder, file string, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := session.New(session.Options{
		Config: cfg,
		Sink:   &console{out: out, log: log},
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer s.Release()

	if err := s.Startup(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if folder != "" {
		if err := s.OpenFolder(folder); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	if file != "" {
		if err := s.Open(file); err != nil && !errors.Is(err, session.ErrLoadPending) {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}

	ctx, quit := context.WithCancel(ctx)
	defer quit()
	r := &repl{out: out, quit: quit}

	cmds := make(chan session.Command)
	go func() {
		defer close(cmds)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			select {
			case cmds <- func(s *session.Session) { r.execute(s, line) }:
			case <-ctx.Done():
				return
			}
		}
	}()

	err = s.Run(ctx, cmds)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if r.done {
		return nil
	}
	return shutdown(s, log)
}

// shutdown persists the session when the user did not quit explicitly.
// Unsaved text in the active document is not written to its file.
func shutdown(s *session.Session, log *zap.Logger) error {
	err := s.Shutdown()
	if errors.Is(err, session.ErrUnsavedChanges) {
		log.Warn("Discarding unsaved changes", zap.String("path", s.ActivePath()))
		err = s.ResolveShutdown(session.Discard)
	}
	return err
}
