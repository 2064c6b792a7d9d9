package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"YourStockNews/internal/api"
	"YourStockNews/internal/config"
	"YourStockNews/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger, closer, err := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	cli := &CLI{cfg: cfg, logger: logger, stdin: os.Stdin, stdout: os.Stdout}
	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Session expired or missing. Run `stocknews login` to sign in.")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}
