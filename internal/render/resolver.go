package render

import (
	"context"
	"strings"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/ids"
	"github.com/hyeonjw1106/really-big-bang/internal/ports"
)

const placeholderObjectKey = "scenes/placeholder.blend"

// placeholderPayload is the dummy asset body written when the singleton
// placeholder scene is first created.
const placeholderPayload = "placeholder blend file (dummy)"

// Resolver picks exactly one concrete scene for an event render. The step
// order is configurable; the default precedence is explicit id, title
// keyword match, event default scene, placeholder.
type Resolver struct {
	store   catalog.Store
	objects ports.StorageProvider
	cfg     config.ResolverConfig
}

func NewResolver(store catalog.Store, objects ports.StorageProvider, cfg config.ResolverConfig) *Resolver {
	if len(cfg.Order) == 0 {
		cfg = config.DefaultResolverConfig()
	}
	return &Resolver{store: store, objects: objects, cfg: cfg}
}

// Resolve returns the scene to render for the given event. explicitID may
// be empty. An explicit id that does not resolve is a NotFound error; every
// other miss falls through to the next configured step.
func (r *Resolver) Resolve(ctx context.Context, ev *catalog.CosmicEvent, explicitID string) (*catalog.Scene, error) {
	for _, step := range r.cfg.Order {
		switch step {
		case config.StepExplicit:
			if explicitID == "" {
				continue
			}
			sc, err := r.store.GetScene(ctx, explicitID)
			if err != nil {
				return nil, err
			}
			return sc, nil

		case config.StepKeyword:
			if sc := r.matchKeyword(ctx, ev.Title); sc != nil {
				return sc, nil
			}

		case config.StepDefault:
			if ev.DefaultSceneID == "" {
				continue
			}
			if sc, err := r.store.GetScene(ctx, ev.DefaultSceneID); err == nil {
				return sc, nil
			}

		case config.StepPlaceholder:
			return r.Placeholder(ctx)
		}
	}
	return r.Placeholder(ctx)
}

// matchKeyword walks the ordered rules; the first rule whose keyword the
// title contains decides the target scene name, and the lowest-id scene
// containing that name wins.
func (r *Resolver) matchKeyword(ctx context.Context, title string) *catalog.Scene {
	for _, rule := range r.cfg.Keywords {
		if rule.Keyword == "" || !strings.Contains(title, rule.Keyword) {
			continue
		}
		if sc, err := r.store.FindSceneByNameContains(ctx, rule.Scene); err == nil {
			return sc
		}
		return nil
	}
	return nil
}

// Placeholder returns the singleton placeholder scene, creating it with a
// trivial dummy asset on first use. Idempotent under concurrency.
func (r *Resolver) Placeholder(ctx context.Context) (*catalog.Scene, error) {
	return r.store.GetOrCreatePlaceholder(ctx, func(ctx context.Context) (*catalog.Scene, error) {
		body := strings.NewReader(placeholderPayload)
		out, err := r.objects.PutObject(ctx, ports.PutObjectInput{
			ObjectKey:   placeholderObjectKey,
			ContentType: "application/octet-stream",
			Reader:      body,
			Size:        int64(len(placeholderPayload)),
		})
		if err != nil {
			return nil, errors.Wrap(err, "resolver.placeholder", "writing placeholder asset")
		}
		return &catalog.Scene{
			ID:           ids.New(ids.PrefixScene),
			Name:         catalog.PlaceholderSceneName,
			OriginalName: "placeholder.blend",
			ObjectKey:    out.ObjectKey,
			SizeBytes:    out.Size,
			UploadedAt:   time.Now().UTC(),
		}, nil
	})
}
