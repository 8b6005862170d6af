package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/logging"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/wiring"
)

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

// newLogger builds the command logger. Flags win over preferences; broken
// preferences fall back to the defaults so logging never blocks a command.
func newLogger(root string) zerolog.Logger {
	level, format := logLevel, logFormat
	if level == "" || format == "" {
		if prefs, err := config.LoadPreferences(root); err == nil {
			if level == "" {
				level = prefs.LogLevel
			}
			if format == "" {
				format = prefs.LogFormat
			}
		}
	}
	return logging.New(logging.Options{Level: level, Format: logging.ParseFormat(format)})
}

type session struct {
	root     string
	log      zerolog.Logger
	services *wiring.AppServices
}

func loadSession() (*session, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	logger := newLogger(root)
	s := &session{
		root:     root,
		log:      logger,
		services: wiring.BuildAppServices(root, logger),
	}
	sessionsMu.Lock()
	openSessions = append(openSessions, s)
	sessionsMu.Unlock()
	return s, nil
}

var (
	sessionsMu   sync.Mutex
	openSessions []*session
)

// closeSessions waits for webhook deliveries started by the command.
func closeSessions() {
	sessionsMu.Lock()
	sessions := openSessions
	openSessions = nil
	sessionsMu.Unlock()

	for _, s := range sessions {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.services.Close(ctx); err != nil {
			s.log.Warn().Err(err).Msg("pending webhook deliveries dropped")
		}
		cancel()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
