// Package server assembles the HTTP handler that serves the Connect APIs.
package server

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// Deps are the components the handler is built from. Metrics is optional.
type Deps struct {
	Engine        *ledger.Engine
	Friends       service.FriendStore
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// NewHandler returns the router with every service mounted, wrapped for
// HTTP/2 without TLS.
func NewHandler(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS)

	logging := middleware.LoggingInterceptor(logger)
	public := connect.WithInterceptors(logging, middleware.OptionalAuth(d.JWT))
	private := connect.WithInterceptors(logging, middleware.RequireAuth(d.JWT))

	r.Mount(apiconnect.NewAuthServiceHandler(
		service.NewAuthService(d.Authenticator, d.JWT, logger), public))
	r.Mount(apiconnect.NewGroupServiceHandler(
		service.NewGroupService(d.Engine, logger), private))
	r.Mount(apiconnect.NewExpenseServiceHandler(
		service.NewExpenseService(d.Engine, logger), private))
	r.Mount(apiconnect.NewBalanceServiceHandler(
		service.NewBalanceService(d.Engine, logger), private))
	r.Mount(apiconnect.NewFriendServiceHandler(
		service.NewFriendService(d.Friends, logger), private))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	return h2c.NewHandler(r, &http2.Server{})
}
