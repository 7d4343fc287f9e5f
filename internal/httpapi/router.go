// Package httpapi assembles the chi router for the Cosmos API.
package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/httpapi/handlers"
	"github.com/hyeonjw1106/really-big-bang/internal/httpkit"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/middleware"
	"github.com/hyeonjw1106/really-big-bang/internal/ports"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

type Deps struct {
	Catalog  catalog.Store
	Engine   *render.Engine
	Resolver *render.Resolver
	Objects  ports.StorageProvider
	Log      *logger.Logger

	// Optional; only used by the deep health check.
	Pool *pgxpool.Pool
	RDB  *redis.Client
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Timeout(60 * time.Second))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:8081",
		"http://localhost:5173",
	})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Catalog:  d.Catalog,
		Engine:   d.Engine,
		Resolver: d.Resolver,
		Objects:  d.Objects,
		Log:      log,
		Pool:     d.Pool,
		RDB:      d.RDB,
	})

	r.Get("/health", h.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Get("/epochs", h.ListEpochs)
	r.Get("/epochs/{epochId}", h.GetEpoch)
	r.Get("/epochs/{epochId}/annotations", h.ListEpochAnnotations)

	r.Get("/elements", h.ListElements)
	r.Get("/elements/{elementId}", h.GetElement)

	r.Get("/events", h.ListEvents)
	r.Get("/events/{eventId}", h.GetEvent)
	r.Post("/events/{eventId}/render", h.RenderEvent)

	r.Post("/renders", h.PostRender)
	r.Get("/renders", h.ListRenders)
	r.Post("/renders/scenes", h.PostScene)
	r.Get("/renders/scenes", h.ListScenes)
	r.Get("/renders/{jobId}", h.GetRender)
	r.Get("/renders/{jobId}/file", h.GetRenderFile)

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
