// Package server owns the process lifecycle: connect the store, wire the
// product stack, serve HTTP until the context ends, then shut down.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/app/repositories"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/internal/kernel"
	"github.com/shashiranjanraj/productd/pkg/database"
	"github.com/shashiranjanraj/productd/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// StartupError means the process could not come up. The CLI exits 1 on it.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string { return fmt.Sprintf("startup: %s: %v", e.Stage, e.Err) }
func (e *StartupError) Unwrap() error { return e.Err }

// App is everything a running productd process holds on to.
type App struct {
	Store    *database.Store
	Repo     *repositories.MongoProductRepository
	Products *services.ProductService
	Kernel   *kernel.HTTPKernel
}

// Boot loads config, connects to MongoDB, ensures indexes and wires the
// repository, service, controller and HTTP kernel. Any failure is a
// *StartupError.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, &StartupError{Stage: "config", Err: err}
	}

	store, err := database.Connect(ctx, database.FromEnv())
	if err != nil {
		logger.Error("database is not connected", "error", err)
		return nil, &StartupError{Stage: "database", Err: err}
	}
	logger.Info("database is connected", "database", config.MongoDatabase())

	app, err := assemble(ctx, store)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, err
	}
	return app, nil
}

// assemble attaches the optional log sink, ensures indexes and wires the
// product stack on an open store. On failure the sink is closed again; the
// store is left to the caller.
func assemble(ctx context.Context, store *database.Store) (*App, error) {
	if name := config.LogMongoCollection(); name != "" {
		logger.AttachSink(logger.NewMongoHandler(ctx, store.Collection(name), slog.LevelInfo))
	}

	repo := repositories.NewProductRepository(store.Collection(config.MongoCollection()))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Close()
		return nil, &StartupError{Stage: "indexes", Err: err}
	}

	svc := services.NewProductService(repo)
	return &App{
		Store:    store,
		Repo:     repo,
		Products: svc,
		Kernel:   kernel.NewHTTPKernel(controllers.NewProductController(svc), store),
	}, nil
}

// Close flushes the log sink and disconnects the store.
func (a *App) Close(ctx context.Context) error {
	logger.Close()
	return a.Store.Close(ctx)
}

// Start boots the app and serves on APP_PORT until ctx is cancelled.
func Start(ctx context.Context) error {
	app, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			logger.Warn("database disconnect failed", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", ":"+config.AppPort())
	if err != nil {
		return &StartupError{Stage: "listen", Err: err}
	}
	return Serve(ctx, ln, app.Kernel.Handler())
}

// Serve runs h on ln until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server is running at http://localhost:%s", port(ln)))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func port(ln net.Listener) string {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return fmt.Sprint(addr.Port)
	}
	return ln.Addr().String()
}
