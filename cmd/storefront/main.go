package main

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/app"
	"github.com/niksmo/storefront/pkg/sigctx"
)

func main() {
	sigCtx, stop := sigctx.NotifyContext(context.Background())
	defer stop()

	cfg := config.Load()
	cfg.Print()

	storefront := app.New(sigCtx, cfg)
	defer storefront.Close()

	if err := storefront.Run(sigCtx); err != nil {
		slog.Error("application stopped", "err", err)
	}
}
