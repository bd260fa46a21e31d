package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"turfbook/pkg/auth"
	"turfbook/pkg/config"
	"turfbook/pkg/contracts"
	"turfbook/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      middleware.RateLimitStore
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	workers          []contracts.Worker
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// AddWorker registers a background process started by Run and stopped on shutdown.
func (a *Application) AddWorker(w contracts.Worker) {
	a.workers = append(a.workers, w)
}

// SetApp wires the API handlers behind the full middleware stack. With no
// handlers only the health, ready and metrics endpoints are served.
func (a *Application) SetApp(handlers ...contracts.Handler) error {
	a.setHealthHandler()
	if len(handlers) == 0 {
		a.appHttpHandler = http.NotFoundHandler()
	} else if err := a.setAppHandler(contracts.Handlers(handlers)); err != nil {
		return err
	}
	a.setAppServer()
	return nil
}

// Handler is the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) checks() map[string]Check {
	checks := map[string]Check{}
	if a.cfg.Client.Mongo != nil {
		mongoClient := a.cfg.Client.Mongo
		checks["mongo"] = func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}
	}
	if a.cfg.Client.Redis != nil {
		redisClient := a.cfg.Client.Redis
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	NewHealthHandler(a.checks(), a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler) error {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	verifier, err := auth.NewVerifier(a.cfg.JWTSecret)
	if err != nil {
		return err
	}

	if a.cfg.Client.Redis != nil {
		a.idempotencyStore = middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, a.cfg.IdempotencyTTL)
		a.rateLimiter = middleware.NewRedisRateLimitStore(a.cfg.Client.Redis, a.cfg.RateLimitRequests, a.cfg.RateLimitWindow)
	} else {
		a.cfg.Log.Warn("Redis not configured, using in-memory rate limit and idempotency stores")
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
		a.rateLimiter = middleware.NewInMemoryRateLimitStore(a.cfg.RateLimitRequests, a.cfg.RateLimitWindow)
	}

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.IdempotencyHeader, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter, middleware.PrincipalOrIPKey, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Authenticate(verifier, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.Metrics()(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
	return nil
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/metrics", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, w := range a.workers {
		wg.Add(1)
		go func(w contracts.Worker) {
			defer wg.Done()
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.cfg.Log.Error("Worker stopped with error", "error", err)
			}
		}(w)
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Error("HTTP server failed", "error", err)
		}
	case <-ctx.Done():
		a.cfg.Log.Info("Shutdown signal received")
	}

	stop()
	a.gracefulShutdown()
	wg.Wait()
	a.cfg.GracefulShutdown()
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	for _, w := range a.workers {
		w.Stop()
	}
	if a.idempotencyStore != nil {
		a.idempotencyStore.Stop()
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.Log.Info("Server stopped gracefully")
}
