package api

import (
	"net/http"
	"sharecircle/auth"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins []string
	UploadsDir     string

	// Login attempts allowed per client IP and window, zero disables the limit.
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// NewRouter mounts every route of the service:
//
//	/            health
//	/metrics     prometheus
//	/stats       last heartbeat snapshot
//	/ws          chat relay
//	/uploads/*   uploaded files
//	/users/*     accounts
//	/items/*     listings and queries
func NewRouter(
	handler *Handler,
	issuer *auth.TokenIssuer,
	chat http.Handler,
	gatherer prometheus.Gatherer,
	config RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.With(noStore).Get("/", handler.Health)
	r.With(noStore).Get("/stats", handler.Stats)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if chat != nil {
		r.Handle("/ws", chat)
	}
	if config.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.UploadsDir))))
	}

	r.Route("/users", func(r chi.Router) {
		r.Use(noStore)
		r.Post("/register", handler.Register)
		r.With(loginLimiter(config)).Post("/login", handler.Login)
		r.Get("/user-data", handler.UserData)
		r.Post("/{id}/upload-avatar", handler.UploadAvatar)
	})

	r.Route("/items", func(r chi.Router) {
		r.Use(noStore)
		r.Get("/", handler.ItemsNearby)
		r.Get("/search", handler.SearchItems)
		r.Get("/recent", handler.RecentItems)
		r.Post("/seed", handler.SeedItems)

		r.Group(func(r chi.Router) {
			r.Use(issuer.Middleware)
			r.Post("/", handler.CreateItem)
			r.Get("/user/{userId}", handler.ItemsByUser)
		})
	})

	return r
}

func loginLimiter(config RouterConfig) func(http.Handler) http.Handler {
	if config.LoginRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(config.LoginRateLimit, config.LoginRateWindow)
}
