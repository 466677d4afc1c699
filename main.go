package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop/internal/app"
	"shop/internal/config"
	"shop/internal/messaging"
	"shop/internal/telemetry"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, app.ServiceName, app.ServiceVersion, cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to init tracer provider", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				logger.Error("failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	// --- Application ---
	shop, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	// --- Start RabbitMQ Consumer in a Goroutine ---
	if shop.Rabbit != nil {
		go func() {
			logger.Info("starting RabbitMQ consumer for order events")
			if err := shop.Rabbit.Consume(ctx, messaging.OrderEventLogger(logger)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("RabbitMQ consumer stopped", "error", err)
			}
		}()
	}

	// --- Start HTTP Server ---
	go func() {
		logger.Info("starting server", "port", cfg.AppPort)
		if err := shop.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	logger.Info("shutting down server")

	if err := shop.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during Fiber shutdown", "error", err)
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shop.Close(closeCtx); err != nil {
		logger.Error("error releasing resources", "error", err)
	}
	logger.Info("server gracefully stopped")
}
