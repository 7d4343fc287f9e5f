// Package memory is a mutex-guarded in-memory catalog store. It backs unit
// tests and single-binary development mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
)

type Store struct {
	mu          sync.RWMutex
	epochs      map[string]catalog.Epoch
	annotations map[string]catalog.Annotation
	elements    map[string]catalog.Element
	events      map[string]catalog.CosmicEvent
	scenes      map[string]catalog.Scene
	sceneKeys   map[string]struct{}
}

var _ catalog.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		epochs:      make(map[string]catalog.Epoch),
		annotations: make(map[string]catalog.Annotation),
		elements:    make(map[string]catalog.Element),
		events:      make(map[string]catalog.CosmicEvent),
		scenes:      make(map[string]catalog.Scene),
		sceneKeys:   make(map[string]struct{}),
	}
}

func (s *Store) GetEpoch(_ context.Context, id string) (*catalog.Epoch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.epochs[id]; ok {
		return &e, nil
	}
	return nil, errors.NotFound("epoch", id)
}

func (s *Store) ListEpochs(_ context.Context, limit, offset int) ([]catalog.Epoch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Epoch, 0, len(s.epochs))
	for _, e := range s.epochs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartNorm < out[j].StartNorm })
	return page(out, limit, offset), nil
}

func (s *Store) InsertEpoch(_ context.Context, e *catalog.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.epochs {
		if existing.Name == e.Name {
			return errors.AlreadyExists("epoch", e.Name)
		}
	}
	s.epochs[e.ID] = *e
	return nil
}

func (s *Store) ListAnnotations(_ context.Context, epochID string) ([]catalog.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Annotation{}
	for _, a := range s.annotations {
		if a.EpochID == epochID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeMark < out[j].TimeMark })
	return out, nil
}

func (s *Store) InsertAnnotation(_ context.Context, a *catalog.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations[a.ID] = *a
	return nil
}

func (s *Store) GetElement(_ context.Context, id string) (*catalog.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.elements[id]; ok {
		return &e, nil
	}
	return nil, errors.NotFound("element", id)
}

func (s *Store) ListElements(_ context.Context, limit, offset int) ([]catalog.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Element, 0, len(s.elements))
	for _, e := range s.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (s *Store) InsertElement(_ context.Context, e *catalog.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[e.ID] = *e
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*catalog.CosmicEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ev, ok := s.events[id]; ok {
		return &ev, nil
	}
	return nil, errors.NotFound("event", id)
}

func (s *Store) ListEvents(_ context.Context, limit, offset int) ([]catalog.CosmicEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.CosmicEvent, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeNorm < out[j].TimeNorm })
	return page(out, limit, offset), nil
}

func (s *Store) InsertEvent(_ context.Context, ev *catalog.CosmicEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.Title == ev.Title {
			return errors.AlreadyExists("event", ev.Title)
		}
	}
	s.events[ev.ID] = *ev
	return nil
}

func (s *Store) GetScene(_ context.Context, id string) (*catalog.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc, ok := s.scenes[id]; ok {
		return &sc, nil
	}
	return nil, errors.NotFound("scene", id)
}

func (s *Store) ListScenes(_ context.Context, limit, offset int) ([]catalog.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Scene, 0, len(s.scenes))
	for _, sc := range s.scenes {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return page(out, limit, offset), nil
}

func (s *Store) InsertScene(_ context.Context, sc *catalog.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.sceneKeys[sc.ObjectKey]; dup {
		return errors.AlreadyExists("scene", sc.ObjectKey)
	}
	s.scenes[sc.ID] = *sc
	s.sceneKeys[sc.ObjectKey] = struct{}{}
	return nil
}

func (s *Store) FindSceneByNameContains(_ context.Context, fragment string) (*catalog.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *catalog.Scene
	for id := range s.scenes {
		sc := s.scenes[id]
		if !strings.Contains(sc.Name, fragment) {
			continue
		}
		if best == nil || sc.ID < best.ID {
			c := sc
			best = &c
		}
	}
	if best == nil {
		return nil, errors.NotFound("scene", fragment)
	}
	return best, nil
}

func (s *Store) GetOrCreatePlaceholder(ctx context.Context, create func(ctx context.Context) (*catalog.Scene, error)) (*catalog.Scene, error) {
	// Serialize the whole check-then-create so concurrent callers observe
	// exactly one placeholder row.
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.scenes {
		if s.scenes[id].Name == catalog.PlaceholderSceneName {
			sc := s.scenes[id]
			return &sc, nil
		}
	}

	sc, err := create(ctx)
	if err != nil {
		return nil, err
	}
	s.scenes[sc.ID] = *sc
	s.sceneKeys[sc.ObjectKey] = struct{}{}
	return sc, nil
}

func page[T any](in []T, limit, offset int) []T {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset >= len(in) {
		return []T{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
