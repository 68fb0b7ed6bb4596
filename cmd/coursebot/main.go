package main

import (
	"context"
	"fmt"
	"log"

	"github.com/m3rciful/coursebot/core/bootstrap"
	"github.com/m3rciful/coursebot/core/cmd"
	"github.com/m3rciful/coursebot/internal/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			appCfg, ok := cfg.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return app.Bootstrap(ctx, appCfg, bootstrap.Options{})
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
