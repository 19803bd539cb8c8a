package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/essay-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/essay-evaluator/internal/config"
	"github.com/fairyhunter13/essay-evaluator/internal/observability"
)

// ParseOrigins splits a comma-separated origin list into a slice,
// trimming spaces. An empty input means all origins.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(cfg.HTTPWriteTimeout))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit mutating endpoints
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Post("/api/upload-essay", srv.UploadEssayHandler())
		wr.Post("/api/auth/register", srv.RegisterHandler())
		wr.Post("/api/auth/login", srv.LoginHandler())

		wr.Group(func(ar chi.Router) {
			ar.Use(srv.RequireAuth())
			ar.Post("/api/auth/logout", srv.LogoutHandler())
			ar.Post("/api/essays", srv.CreateEssayHandler())
			ar.Patch("/api/essays/{id}", srv.EditEssayHandler())
			ar.Delete("/api/essays/{id}", srv.DeleteEssayHandler())
			ar.Get("/api/friends", srv.ListFriendsHandler())
			ar.Post("/api/friends", srv.AddFriendHandler())
			ar.Delete("/api/friends/{username}", srv.RemoveFriendHandler())
		})
	})

	// Read endpoints: authentication is optional, visibility rules still apply.
	r.Group(func(rr chi.Router) {
		rr.Use(srv.OptionalAuth())
		rr.Get("/api/essays/{id}", srv.GetEssayHandler())
		rr.Get("/api/posts", srv.FeedHandler())
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	return httpserver.SecurityHeaders(r)
}
