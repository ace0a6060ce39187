// Package app contains the application setup for the storefront service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/dkralj/storefront/internal/cart"
	"github.com/dkralj/storefront/internal/medusa"
	"github.com/dkralj/storefront/internal/returns"
	"github.com/dkralj/storefront/internal/session"
	"github.com/dkralj/storefront/internal/storefront/config"
	"github.com/dkralj/storefront/internal/storefront/transport/rest"
	"github.com/dkralj/storefront/internal/webmcp"
	"github.com/dkralj/storefront/pkg/messaging"
	"github.com/dkralj/storefront/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	Backend     *medusa.Client
	Returns     *returns.Service
	Coordinator *cart.Coordinator
	Tools       *webmcp.Registry
	Sessions    *session.Manager
	Publisher   messaging.Publisher
	Logger      *slog.Logger
}

// SetupDependencies wires the storefront services. The Redis client backs
// the cart snapshot cache; the tool registry is populated but only
// surfaced when a host is attached.
func SetupDependencies(cfg *config.Config, redisClient *redis.Client, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	backend := medusa.NewClient(cfg.Medusa, logger)
	coordinator := cart.NewCoordinator(cart.NewRedisCache(redisClient, cfg.Redis.TTL), backend, logger)

	registry := webmcp.NewRegistry(logger)
	cartTools := webmcp.NewCartTools(backend, coordinator, session.CartIDFromContext, logger)
	checkoutTools := webmcp.NewCheckoutTools(backend, coordinator, publisher, session.CartIDFromContext, logger)
	registry.Add(cartTools.Tools()...)
	registry.Add(checkoutTools.Tools()...)

	return &Dependencies{
		Backend:     backend,
		Returns:     returns.NewService(backend, logger),
		Coordinator: coordinator,
		Tools:       registry,
		Sessions:    session.NewManager(cfg.Cookie.Secure),
		Publisher:   publisher,
		Logger:      logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront service.
// Used by tests to exercise the full router without a listening socket.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Backend, deps.Returns, deps.Coordinator,
		deps.Tools, deps.Publisher, deps.Sessions, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the storefront service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
