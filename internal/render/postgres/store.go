// Package postgres persists render jobs on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	stderr "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ render.JobStore = (*Store)(nil)

const jobColumns = `id, scene_id, COALESCE(epoch_id,''), time_norm, status,
	COALESCE(message,''), COALESCE(output_key,''), params_json, created_at, updated_at`

func (s *Store) Create(ctx context.Context, j *render.Job) error {
	paramsJSON, err := json.Marshal(j.Params)
	if err != nil {
		return errors.Wrap(err, "jobs.create", "encoding params")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO render_jobs (id, scene_id, epoch_id, time_norm, status, message, params_json, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		j.ID, j.SceneID, nullIfEmpty(j.EpochID), j.TimeNorm, string(j.Status),
		j.Message, string(paramsJSON), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "jobs.create", "insert failed")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*render.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM render_jobs WHERE id=$1`, id)
	j, err := scanJob(row)
	if err != nil {
		if stderr.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("render job", id)
		}
		return nil, errors.Wrap(err, "jobs.get", "query failed")
	}
	return j, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]render.Job, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM render_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.list", "query failed")
	}
	defer rows.Close()

	out := []render.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "jobs.list", "row scan failed")
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// legalPrior guards transitions at the SQL level so status can only move
// forward even under concurrent writers.
func legalPrior(next render.Status) []string {
	switch next {
	case render.StatusProcessing:
		return []string{string(render.StatusQueued)}
	case render.StatusDone, render.StatusFailed:
		return []string{string(render.StatusProcessing)}
	default:
		return nil
	}
}

func (s *Store) SetStatus(ctx context.Context, id string, status render.Status, message string) error {
	prior := legalPrior(status)
	if prior == nil {
		return errors.Newf(errors.CodeFailedPrecond, "illegal target status %s", status)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE render_jobs SET status=$2, message=$3, updated_at=NOW()
		 WHERE id=$1 AND status = ANY($4)`,
		id, string(status), message, prior,
	)
	if err != nil {
		return errors.Wrap(err, "jobs.status", "update failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.CodeFailedPrecond, "job %s: illegal transition to %s", id, status)
	}
	return nil
}

func (s *Store) SetDone(ctx context.Context, id string, outputKey, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE render_jobs SET status=$2, message=$3, output_key=$4, updated_at=NOW()
		 WHERE id=$1 AND status=$5`,
		id, string(render.StatusDone), message, outputKey, string(render.StatusProcessing),
	)
	if err != nil {
		return errors.Wrap(err, "jobs.done", "update failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.CodeFailedPrecond, "job %s: illegal transition to done", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*render.Job, error) {
	var (
		j          render.Job
		status     string
		paramsJSON string
	)
	if err := row.Scan(&j.ID, &j.SceneID, &j.EpochID, &j.TimeNorm, &status,
		&j.Message, &j.OutputKey, &paramsJSON, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = render.Status(status)
	if paramsJSON != "" {
		_ = json.Unmarshal([]byte(paramsJSON), &j.Params)
	}
	return &j, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
