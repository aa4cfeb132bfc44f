// Command portalctl is the terminal client of the accounting portal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/contaportal/portal/internal/client/storage"
	"github.com/contaportal/portal/internal/pkg/config"
	"github.com/contaportal/portal/pkg/logger"
)

// Exit codes.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "portalctl: %v\n", err)
	}
	os.Exit(code)
}

func run(in io.Reader, out io.Writer) (int, error) {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		return exitConfig, err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return exitConfig, fmt.Errorf("state dir: %w", err)
	}
	kv, err := storage.OpenBadger(filepath.Join(cfg.StateDir, "session"), logger.Component("badger"))
	if err != nil {
		return exitRuntime, err
	}

	app := newApp(cfg, kv, out, log)
	defer app.Close()

	if err := app.Run(ctx, in); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
