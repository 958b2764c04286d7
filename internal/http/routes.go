package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
	apperrors "github.com/pantrykit/pantry-ui-api/internal/errors"
	"github.com/pantrykit/pantry-ui-api/internal/observability/statsd"
	"github.com/pantrykit/pantry-ui-api/internal/service"
	"github.com/pantrykit/pantry-ui-api/internal/stats"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         *service.AuthService
	Stats        *stats.Cache
	Snapshots    SnapshotFallback // optional persisted snapshot reader
	Metrics      statsd.Sink      // optional request metrics
	CookieDomain string
	Logger       *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	statsHandlers := &StatsHandlers{
		Cache:    services.Stats,
		Fallback: services.Snapshots,
		Logger:   logger,
	}
	pageHandlers := &PageHandlers{Logger: logger}

	registerAuthRoutes(mux, authHandlers)
	registerStatsRoutes(mux, statsHandlers)
	registerPageRoutes(mux, pageHandlers, services.Auth)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Catch-all for unmatched paths. Every more specific pattern above wins,
	// including "GET /{$}" for the home page, so anything landing here flows
	// through the error classifier: browsers get the branded 404 page, API
	// callers the JSON shape.
	mux.Handle("/", notFoundHandler(logger))

	chained := ContentNegotiation()(mux)
	chained = Logging(logger)(chained)
	if services.Metrics != nil {
		chained = RequestMetrics(services.Metrics)(chained)
	}
	return Recover(logger)(chained)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerStatsRoutes(mux *http.ServeMux, h *StatsHandlers) {
	mux.HandleFunc("GET /api/stats", h.Latest)
	mux.HandleFunc("GET /api/stats/stream", h.Stream)
}

// registerPageRoutes wires the guarded HTML destinations. Every gate goes
// through the same guard decision function via the session middleware.
func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, auth AuthServiceInterface) {
	mux.Handle("GET /{$}", OptionalSession(auth)(http.HandlerFunc(h.Home)))
	mux.Handle("GET /recipes", RequireResource(auth, domainauth.ResourceRecipe)(http.HandlerFunc(h.Recipes)))
	mux.Handle("GET /inventory-dashboard", RequireResource(auth, domainauth.ResourceInventory)(http.HandlerFunc(h.InventoryDashboard)))
	mux.Handle("GET /u/{id}", RequireSession(auth)(http.HandlerFunc(h.UserHome)))
}

// notFoundHandler renders the 404 shape for paths no route claims. It also
// answers method mismatches on known paths, since the bare "/" pattern
// matches any method.
func notFoundHandler(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RenderError(w, r, apperrors.NotFound("page"), logger)
	})
}
