package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/app/background"
	"github.com/LavaJover/shvark-storefront-orders/internal/app/setup"
	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	deps, err := setup.InitializeDependencies(cfg)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()
	logger := deps.Logger

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		log.Fatalf("failed to init usecases: %v", err)
	}
	if uc.Admission != nil {
		defer uc.Admission.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// gRPC health
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	healthServer := grpcapi.NewHealthServer(logger)
	go func() {
		if err := healthServer.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "error", err)
		}
	}()

	// HTTP API
	httpServer := server.NewServer(cfg.HTTPServer, uc.OrderUsecase, uc.NotificationUsecase, uc.Admission, deps.Registry, logger)
	go func() {
		if err := httpServer.Start(fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)); err != nil {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	tasks := background.NewBackgroundTasks(uc.OrderUsecase, uc.NotificationUsecase, cfg.Lifecycle, cfg.Notifications, logger)
	tasks.StartAll(ctx)
	healthServer.SetServing(true)

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServing(false)

	timeout := cfg.HTTPServer.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	tasks.Wait()
	healthServer.Stop()
	logger.Info("stopped")
}
