package render_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/adapters/storage/localfs"
	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	catalogmem "github.com/hyeonjw1106/really-big-bang/internal/catalog/memory"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/ids"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

func seedScene(t *testing.T, store catalog.Store, name string) *catalog.Scene {
	t.Helper()
	sc := &catalog.Scene{
		ID:           ids.New(ids.PrefixScene),
		Name:         name,
		OriginalName: name + ".blend",
		ObjectKey:    "scenes/" + ids.New("f") + ".blend",
		SizeBytes:    10,
		UploadedAt:   time.Now().UTC(),
	}
	if err := store.InsertScene(context.Background(), sc); err != nil {
		t.Fatalf("inserting scene %s: %v", name, err)
	}
	return sc
}

func newTestResolver(t *testing.T, store catalog.Store) *render.Resolver {
	t.Helper()
	return render.NewResolver(store, localfs.New(t.TempDir()), config.DefaultResolverConfig())
}

func TestResolveKeyword(t *testing.T) {
	ctx := context.Background()
	store := catalogmem.New()
	scene1 := seedScene(t, store, "Scene 1")
	seedScene(t, store, "Scene 2")
	seedScene(t, store, "Scene 3")

	r := newTestResolver(t, store)

	ev := &catalog.CosmicEvent{ID: ids.New(ids.PrefixEvent), Title: "쿼크 생성", TimeNorm: 0.02}
	got, err := r.Resolve(ctx, ev, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != scene1.ID {
		t.Errorf("resolved %q, want Scene 1", got.Name)
	}

	// Same inputs resolve to the same scene every time.
	again, err := r.Resolve(ctx, ev, "")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.ID != got.ID {
		t.Error("resolution is not deterministic")
	}
}

func TestResolveExplicitWins(t *testing.T) {
	ctx := context.Background()
	store := catalogmem.New()
	seedScene(t, store, "Scene 1")
	scene3 := seedScene(t, store, "Scene 3")

	r := newTestResolver(t, store)

	ev := &catalog.CosmicEvent{ID: ids.New(ids.PrefixEvent), Title: "쿼크 생성", TimeNorm: 0.02}
	got, err := r.Resolve(ctx, ev, scene3.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != scene3.ID {
		t.Errorf("explicit scene id should win, got %q", got.Name)
	}
}

func TestResolveExplicitUnknownFails(t *testing.T) {
	store := catalogmem.New()
	seedScene(t, store, "Scene 1")

	r := newTestResolver(t, store)

	ev := &catalog.CosmicEvent{ID: ids.New(ids.PrefixEvent), Title: "쿼크 생성", TimeNorm: 0.02}
	_, err := r.Resolve(context.Background(), ev, "scn_missing")
	if !errors.IsNotFound(err) {
		t.Errorf("expected NotFound for unknown explicit scene, got %v", err)
	}
}

func TestResolveDefaultScene(t *testing.T) {
	ctx := context.Background()
	store := catalogmem.New()
	scene := seedScene(t, store, "Nebula")

	r := newTestResolver(t, store)

	ev := &catalog.CosmicEvent{
		ID:             ids.New(ids.PrefixEvent),
		Title:          "무명의 사건",
		TimeNorm:       0.5,
		DefaultSceneID: scene.ID,
	}
	got, err := r.Resolve(ctx, ev, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != scene.ID {
		t.Errorf("resolved %q, want the event default", got.Name)
	}
}

func TestResolvePlaceholderFallback(t *testing.T) {
	ctx := context.Background()
	store := catalogmem.New()
	r := newTestResolver(t, store)

	ev := &catalog.CosmicEvent{ID: ids.New(ids.PrefixEvent), Title: "무명의 사건", TimeNorm: 0.5}
	got, err := r.Resolve(ctx, ev, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Name != catalog.PlaceholderSceneName {
		t.Errorf("resolved %q, want the placeholder", got.Name)
	}
	if got.ObjectKey == "" {
		t.Error("placeholder must have a stored asset")
	}
}

func TestPlaceholderSingletonUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := catalogmem.New()
	r := newTestResolver(t, store)

	const n = 16
	results := make([]*catalog.Scene, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sc, err := r.Placeholder(ctx)
			if err != nil {
				t.Errorf("placeholder: %v", err)
				return
			}
			results[i] = sc
		}(i)
	}
	wg.Wait()

	first := results[0]
	for _, sc := range results[1:] {
		if sc == nil || first == nil {
			t.Fatal("missing result")
		}
		if sc.ID != first.ID {
			t.Fatal("concurrent callers observed different placeholder rows")
		}
	}

	scenes, err := store.ListScenes(ctx, 100, 0)
	if err != nil {
		t.Fatalf("listing scenes: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("placeholder rows = %d, want exactly 1", len(scenes))
	}
}
