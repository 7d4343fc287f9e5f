package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
)

func scene(id, name string) *catalog.Scene {
	return &catalog.Scene{
		ID:           id,
		Name:         name,
		OriginalName: name + ".blend",
		ObjectKey:    "scenes/" + id + ".blend",
		UploadedAt:   time.Now().UTC(),
	}
}

func TestFindSceneByNameContains(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Two scenes both contain "Scene 1"; the lowest id wins.
	for _, sc := range []*catalog.Scene{
		scene("scn_b", "Scene 1 alt"),
		scene("scn_a", "Scene 1"),
		scene("scn_c", "Scene 2"),
	} {
		if err := s.InsertScene(ctx, sc); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.FindSceneByNameContains(ctx, "Scene 1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "scn_a" {
		t.Errorf("found %s, want the lowest id scn_a", got.ID)
	}

	if _, err := s.FindSceneByNameContains(ctx, "Nebula"); !errors.IsNotFound(err) {
		t.Errorf("miss should be NotFound, got %v", err)
	}
}

func TestInsertSceneRejectsDuplicateObjectKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.InsertScene(ctx, scene("scn_a", "Scene 1")); err != nil {
		t.Fatal(err)
	}
	dup := scene("scn_b", "Scene 2")
	dup.ObjectKey = "scenes/scn_a.blend"
	if err := s.InsertScene(ctx, dup); !errors.IsConflict(err) {
		t.Errorf("duplicate object key: err = %v, want conflict", err)
	}
}

func TestEventTitleUnique(t *testing.T) {
	ctx := context.Background()
	s := New()

	ev := &catalog.CosmicEvent{ID: "evt_a", Title: "쿼크 생성", TimeNorm: 0.02}
	if err := s.InsertEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	dup := &catalog.CosmicEvent{ID: "evt_b", Title: "쿼크 생성", TimeNorm: 0.03}
	if err := s.InsertEvent(ctx, dup); !errors.IsConflict(err) {
		t.Errorf("duplicate title: err = %v, want conflict", err)
	}
}

func TestListEventsOrderedByTime(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, ev := range []*catalog.CosmicEvent{
		{ID: "evt_c", Title: "은하 형성", TimeNorm: 0.70},
		{ID: "evt_a", Title: "쿼크 생성", TimeNorm: 0.02},
		{ID: "evt_b", Title: "원자 형성", TimeNorm: 0.37},
	} {
		if err := s.InsertEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	events, err := s.ListEvents(ctx, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 || events[0].TimeNorm > events[1].TimeNorm || events[1].TimeNorm > events[2].TimeNorm {
		t.Errorf("events not ordered by time_norm: %v", events)
	}
}
