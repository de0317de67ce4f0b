// scamcheck - scam risk self-assessment service
package main

import (
	"context"
	"os"

	"github.com/mbd888/scamcheck/internal/config"
	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting scamcheck",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)
	logger.Info("configuration loaded",
		"env", cfg.Env,
		"answer_policy", cfg.AnswerPolicy,
		"session_ttl", cfg.SessionTTL,
		"flow_override_dir", cfg.FlowOverrideDir,
		"postgres", cfg.DatabaseURL != "",
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(context.Background()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
