// Package handlers exposes the catalog and render surfaces over HTTP. The
// handlers stay thin: validation and JSON shaping here, semantics in the
// engine and the stores.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
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

	// Pool and RDB are optional; when present the deep health check pings
	// them. Tests running on in-memory stores leave them nil.
	Pool *pgxpool.Pool
	RDB  *redis.Client
}

type Handler struct {
	catalog  catalog.Store
	engine   *render.Engine
	resolver *render.Resolver
	objects  ports.StorageProvider
	log      *logger.Logger
	pool     *pgxpool.Pool
	rdb      *redis.Client
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		catalog:  d.Catalog,
		engine:   d.Engine,
		resolver: d.Resolver,
		objects:  d.Objects,
		log:      log.WithComponent("httpapi"),
		pool:     d.Pool,
		rdb:      d.RDB,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.HandleError(w, r, h.log, err)
}

// pageParams reads limit/offset query parameters; the stores clamp the
// limit themselves.
func pageParams(r *http.Request) (limit, offset int) {
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
