// marketd serves the marketplace ledger over HTTP.
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/bank"
	"github.com/relicmarket/marketplace-go/core/factory"
	"github.com/relicmarket/marketplace-go/core/logging"
	"github.com/relicmarket/marketplace-go/core/marketplace"
	"github.com/relicmarket/marketplace-go/internal/api"
	"github.com/relicmarket/marketplace-go/internal/config"
)

func main() {
	configPath := flag.String("config", "marketd.yaml", "path to config file")
	flag.Parse()

	// .env is optional; environment variables feed ${VAR} expansion in
	// the YAML config.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logging.SetLogger(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	admin := cfg.AdminAddress()
	funds := bank.NewLedger()

	fac, err := factory.New(admin)
	if err != nil {
		logger.Fatal("factory init failed", zap.Error(err))
	}
	salt := sha256.Sum256([]byte(cfg.Marketplace.Salt))
	addr, market, err := fac.DeployMarketplace(salt, admin, funds,
		marketplace.WithLogger(logger),
		marketplace.WithEventBuffer(cfg.Feed.BufferSize),
	)
	if err != nil {
		logger.Fatal("marketplace deploy failed", zap.Error(err))
	}
	logger.Info("marketplace deployed",
		zap.String("address", addr.Address()),
		zap.String("admin", admin.Address()),
	)

	server := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      api.NewServer(market, logger),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Listen))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
