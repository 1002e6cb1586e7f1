// Package adminservice assembles the commerce admin console: the HTTP API,
// the order-event pipeline and their shared lifecycle.
package adminservice

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-commerce-admin/adminservice/config"
	"github.com/tinywideclouds/go-commerce-admin/internal/api"
	"github.com/tinywideclouds/go-commerce-admin/internal/metrics"
	"github.com/tinywideclouds/go-commerce-admin/internal/pipeline"
	"github.com/tinywideclouds/go-commerce-admin/internal/ratelimit"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// Stores groups the persistence surfaces the API layer needs.
type Stores struct {
	Subscriptions notify.SubscriptionStore
	Orders        api.OrderStore
	Products      api.ProductStore
	Customers     api.CustomerStore
	Audit         api.AuditRecorder
}

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[notify.OrderEvent]
	limiter         *ratelimit.Limiter
	logger          *slog.Logger
}

// New assembles the service. The dispatcher and consumer are injected so the
// HTTP trigger and the Pub/Sub pipeline share one fan-out path.
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	dispatcher api.OrderDispatcher,
	stores Stores,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Pipeline
	processor := pipeline.NewProcessor(dispatcher, logger)
	streamingService, err := messagepipeline.NewStreamingService[notify.OrderEvent](
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
		consumer,
		pipeline.OrderEventTransformer,
		processor,
		slog.New(slog.DiscardHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	// 3. APIs
	subscriptionAPI := api.NewSubscriptionAPI(stores.Subscriptions, stores.Audit, logger)
	notifyAPI := api.NewNotifyAPI(dispatcher, logger)
	orderAPI := api.NewOrderAPI(stores.Orders, stores.Audit, logger)
	productAPI := api.NewProductAPI(stores.Products, stores.Audit, logger)
	customerAPI := api.NewCustomerAPI(stores.Customers, logger)
	analyticsAPI := api.NewAnalyticsAPI(stores.Orders, logger)

	// 4. Middleware chain: CORS -> rate limit -> auth
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.SweepInterval)
	limitMiddleware := rateLimitMiddleware(limiter, logger)

	mux := baseServer.Mux()
	protect := func(h http.HandlerFunc) http.Handler {
		return corsMiddleware(limitMiddleware(authMiddleware(h)))
	}

	preflight := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for _, path := range []string{
		"/api/subscriptions",
		"/api/notifications/dispatch",
		"/api/orders",
		"/api/orders/search",
		"/api/orders/{id}",
		"/api/orders/{id}/status",
		"/api/products",
		"/api/products/{id}",
		"/api/products/{id}/inventory",
		"/api/customers",
		"/api/customers/{id}",
		"/api/analytics/dashboard",
	} {
		mux.Handle("OPTIONS "+path, preflight)
	}

	mux.Handle("PUT /api/subscriptions", protect(subscriptionAPI.Register))
	mux.Handle("DELETE /api/subscriptions", protect(subscriptionAPI.Unregister))

	mux.Handle("POST /api/notifications/dispatch", protect(notifyAPI.Dispatch))

	mux.Handle("GET /api/orders", protect(orderAPI.List))
	mux.Handle("GET /api/orders/search", protect(orderAPI.Search))
	mux.Handle("GET /api/orders/{id}", protect(orderAPI.Get))
	mux.Handle("PATCH /api/orders/{id}/status", protect(orderAPI.UpdateStatus))

	mux.Handle("GET /api/products", protect(productAPI.List))
	mux.Handle("POST /api/products", protect(productAPI.Create))
	mux.Handle("GET /api/products/{id}", protect(productAPI.Get))
	mux.Handle("PUT /api/products/{id}", protect(productAPI.Update))
	mux.Handle("DELETE /api/products/{id}", protect(productAPI.Delete))
	mux.Handle("PATCH /api/products/{id}/inventory", protect(productAPI.UpdateInventory))

	mux.Handle("GET /api/customers", protect(customerAPI.List))
	mux.Handle("GET /api/customers/{id}", protect(customerAPI.Get))

	mux.Handle("GET /api/analytics/dashboard", protect(analyticsAPI.Dashboard))

	mux.Handle("GET /metrics", metrics.Handler())

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		limiter:         limiter,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Core processing pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	w.limiter.Stop()
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Processing pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}

// rateLimitMiddleware rejects callers that exceed the fixed window, keyed by
// client IP.
func rateLimitMiddleware(limiter *ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}
			if !limiter.Allow(key) {
				metrics.RateLimited.Inc()
				logger.Warn("Rate limit exceeded", "client", key, "path", r.URL.Path)
				response.WriteJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
