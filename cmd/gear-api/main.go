package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/GearCheck/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = RunGearAPI(ctx, cfg, gearAPIOpts{
		swaggerPath: os.Getenv("swaggerPath"),
		onListen: func(addr string) {
			slog.Info("http listening", "addr", addr)
		},
	}, defaultAPIFactories())
	if err != nil && err != context.Canceled {
		panic(err)
	}
}
