package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/seednet/tgctl/internal/cli"
	"github.com/seednet/tgctl/internal/config"
	"github.com/seednet/tgctl/internal/store"
)

func main() {
	cfgDir := config.Dir()
	cfgPath := filepath.Join(cfgDir, "config.yaml")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	// Logging goes to a file so stdout carries only the result object.
	if err := os.MkdirAll(cfgDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create config dir %s: %v\n", cfgDir, err)
		os.Exit(1)
	}
	logPath := filepath.Join(cfgDir, "tgctl.log")
	logCfg := zap.NewDevelopmentConfig()
	logCfg.OutputPaths = []string{logPath}
	logCfg.ErrorOutputPaths = []string{logPath}
	if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		logCfg.Level = lvl
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env := &cli.Env{
		Cfg:   cfg,
		Store: store.New(cfgDir),
		Log:   logger,
		Out:   os.Stdout,
		Err:   os.Stderr,
	}
	os.Exit(cli.Run(ctx, env, os.Args[1:]))
}
