// Package memory holds render jobs in process memory. It backs handler and
// engine tests that should not need a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

type Store struct {
	mu   sync.Mutex
	jobs map[string]*render.Job
}

func New() *Store {
	return &Store{jobs: make(map[string]*render.Job)}
}

var _ render.JobStore = (*Store)(nil)

func (s *Store) Create(_ context.Context, j *render.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; ok {
		return errors.Newf(errors.CodeConflict, "job %s already exists", j.ID)
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*render.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.NotFound("render job", id)
	}
	cp := *j
	return &cp, nil
}

func (s *Store) List(_ context.Context, limit, offset int) ([]render.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	all := make([]render.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, *j)
	}
	sort.Slice(all, func(i, k int) bool {
		return all[i].CreatedAt.After(all[k].CreatedAt)
	})
	if offset >= len(all) {
		return []render.Job{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) SetStatus(_ context.Context, id string, status render.Status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return errors.NotFound("render job", id)
	}
	if !j.Status.CanTransition(status) {
		return errors.Newf(errors.CodeFailedPrecond, "job %s: illegal transition %s -> %s", id, j.Status, status)
	}
	j.Status = status
	j.Message = message
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SetDone(_ context.Context, id string, outputKey, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return errors.NotFound("render job", id)
	}
	if !j.Status.CanTransition(render.StatusDone) {
		return errors.Newf(errors.CodeFailedPrecond, "job %s: illegal transition %s -> done", id, j.Status)
	}
	j.Status = render.StatusDone
	j.OutputKey = outputKey
	j.Message = message
	j.UpdatedAt = time.Now().UTC()
	return nil
}
