// Package postgres implements the catalog store on PostgreSQL via pgx.
package postgres

import (
	"context"
	stderr "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/httpkit"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ catalog.Store = (*Store)(nil)

// ---- Epochs ----

func (s *Store) GetEpoch(ctx context.Context, id string) (*catalog.Epoch, error) {
	var e catalog.Epoch
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, start_norm, end_norm, COALESCE(description,'')
		 FROM epochs WHERE id=$1`,
		id,
	).Scan(&e.ID, &e.Name, &e.StartNorm, &e.EndNorm, &e.Description)
	if err != nil {
		return nil, notFoundOr(err, "epoch", id)
	}
	return &e, nil
}

func (s *Store) ListEpochs(ctx context.Context, limit, offset int) ([]catalog.Epoch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, start_norm, end_norm, COALESCE(description,'')
		 FROM epochs ORDER BY start_norm LIMIT $1 OFFSET $2`,
		clampLimit(limit), offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.epochs", "list query failed")
	}
	defer rows.Close()

	out := []catalog.Epoch{}
	for rows.Next() {
		var e catalog.Epoch
		if err := rows.Scan(&e.ID, &e.Name, &e.StartNorm, &e.EndNorm, &e.Description); err != nil {
			return nil, errors.Wrap(err, "catalog.epochs", "row scan failed")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) InsertEpoch(ctx context.Context, e *catalog.Epoch) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO epochs (id, name, start_norm, end_norm, description)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.Name, e.StartNorm, e.EndNorm, nullIfEmpty(e.Description),
	)
	if httpkit.IsUniqueViolation(err) {
		return errors.AlreadyExists("epoch", e.Name)
	}
	return err
}

// ---- Annotations ----

func (s *Store) ListAnnotations(ctx context.Context, epochID string) ([]catalog.Annotation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, epoch_id, title, content, time_mark
		 FROM annotations WHERE epoch_id=$1 ORDER BY time_mark`,
		epochID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.annotations", "list query failed")
	}
	defer rows.Close()

	out := []catalog.Annotation{}
	for rows.Next() {
		var a catalog.Annotation
		if err := rows.Scan(&a.ID, &a.EpochID, &a.Title, &a.Content, &a.TimeMark); err != nil {
			return nil, errors.Wrap(err, "catalog.annotations", "row scan failed")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) InsertAnnotation(ctx context.Context, a *catalog.Annotation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO annotations (id, epoch_id, title, content, time_mark)
		 VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.EpochID, a.Title, a.Content, a.TimeMark,
	)
	return err
}

// ---- Elements ----

func (s *Store) GetElement(ctx context.Context, id string) (*catalog.Element, error) {
	var e catalog.Element
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, type, COALESCE(description,''), COALESCE(charge_range,''),
		        COALESCE(mass_gev,0), COALESCE(genesis_time,'')
		 FROM elements WHERE id=$1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Type, &e.Description, &e.ChargeRange, &e.MassGeV, &e.GenesisTime)
	if err != nil {
		return nil, notFoundOr(err, "element", id)
	}
	return &e, nil
}

func (s *Store) ListElements(ctx context.Context, limit, offset int) ([]catalog.Element, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, type, COALESCE(description,''), COALESCE(charge_range,''),
		        COALESCE(mass_gev,0), COALESCE(genesis_time,'')
		 FROM elements ORDER BY name LIMIT $1 OFFSET $2`,
		clampLimit(limit), offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.elements", "list query failed")
	}
	defer rows.Close()

	out := []catalog.Element{}
	for rows.Next() {
		var e catalog.Element
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Description, &e.ChargeRange, &e.MassGeV, &e.GenesisTime); err != nil {
			return nil, errors.Wrap(err, "catalog.elements", "row scan failed")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) InsertElement(ctx context.Context, e *catalog.Element) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO elements (id, name, type, description, charge_range, mass_gev, genesis_time)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Name, e.Type, nullIfEmpty(e.Description), nullIfEmpty(e.ChargeRange),
		e.MassGeV, nullIfEmpty(e.GenesisTime),
	)
	return err
}

// ---- Cosmic events ----

func (s *Store) GetEvent(ctx context.Context, id string) (*catalog.CosmicEvent, error) {
	var ev catalog.CosmicEvent
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, COALESCE(description,''), COALESCE(time_range,''),
		        COALESCE(category,''), time_norm, COALESCE(media_url,''),
		        COALESCE(epoch_id,''), COALESCE(default_scene_id,'')
		 FROM cosmic_events WHERE id=$1`,
		id,
	).Scan(&ev.ID, &ev.Title, &ev.Description, &ev.TimeRange, &ev.Category,
		&ev.TimeNorm, &ev.MediaURL, &ev.EpochID, &ev.DefaultSceneID)
	if err != nil {
		return nil, notFoundOr(err, "event", id)
	}
	return &ev, nil
}

func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]catalog.CosmicEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, COALESCE(description,''), COALESCE(time_range,''),
		        COALESCE(category,''), time_norm, COALESCE(media_url,''),
		        COALESCE(epoch_id,''), COALESCE(default_scene_id,'')
		 FROM cosmic_events ORDER BY time_norm LIMIT $1 OFFSET $2`,
		clampLimit(limit), offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.events", "list query failed")
	}
	defer rows.Close()

	out := []catalog.CosmicEvent{}
	for rows.Next() {
		var ev catalog.CosmicEvent
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.TimeRange, &ev.Category,
			&ev.TimeNorm, &ev.MediaURL, &ev.EpochID, &ev.DefaultSceneID); err != nil {
			return nil, errors.Wrap(err, "catalog.events", "row scan failed")
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) InsertEvent(ctx context.Context, ev *catalog.CosmicEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cosmic_events (id, title, description, time_range, category, time_norm, media_url, epoch_id, default_scene_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ev.ID, ev.Title, nullIfEmpty(ev.Description), nullIfEmpty(ev.TimeRange),
		nullIfEmpty(ev.Category), ev.TimeNorm, nullIfEmpty(ev.MediaURL),
		nullIfEmpty(ev.EpochID), nullIfEmpty(ev.DefaultSceneID),
	)
	if httpkit.IsUniqueViolation(err) {
		return errors.AlreadyExists("event", ev.Title)
	}
	return err
}

// ---- Scenes ----

const sceneColumns = `id, name, original_name, object_key, COALESCE(size_bytes,0), uploaded_at`

func (s *Store) GetScene(ctx context.Context, id string) (*catalog.Scene, error) {
	var sc catalog.Scene
	err := s.pool.QueryRow(ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE id=$1`, id,
	).Scan(&sc.ID, &sc.Name, &sc.OriginalName, &sc.ObjectKey, &sc.SizeBytes, &sc.UploadedAt)
	if err != nil {
		return nil, notFoundOr(err, "scene", id)
	}
	return &sc, nil
}

func (s *Store) ListScenes(ctx context.Context, limit, offset int) ([]catalog.Scene, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sceneColumns+` FROM scenes ORDER BY uploaded_at DESC LIMIT $1 OFFSET $2`,
		clampLimit(limit), offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog.scenes", "list query failed")
	}
	defer rows.Close()

	out := []catalog.Scene{}
	for rows.Next() {
		var sc catalog.Scene
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.OriginalName, &sc.ObjectKey, &sc.SizeBytes, &sc.UploadedAt); err != nil {
			return nil, errors.Wrap(err, "catalog.scenes", "row scan failed")
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) InsertScene(ctx context.Context, sc *catalog.Scene) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scenes (id, name, original_name, object_key, size_bytes, uploaded_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		sc.ID, sc.Name, sc.OriginalName, sc.ObjectKey, sc.SizeBytes, sc.UploadedAt,
	)
	if httpkit.IsUniqueViolation(err) {
		return errors.AlreadyExists("scene", sc.ObjectKey)
	}
	return err
}

func (s *Store) FindSceneByNameContains(ctx context.Context, fragment string) (*catalog.Scene, error) {
	var sc catalog.Scene
	err := s.pool.QueryRow(ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE name LIKE '%' || $1 || '%' ORDER BY id LIMIT 1`,
		fragment,
	).Scan(&sc.ID, &sc.Name, &sc.OriginalName, &sc.ObjectKey, &sc.SizeBytes, &sc.UploadedAt)
	if err != nil {
		return nil, notFoundOr(err, "scene", fragment)
	}
	return &sc, nil
}

func (s *Store) GetOrCreatePlaceholder(ctx context.Context, create func(ctx context.Context) (*catalog.Scene, error)) (*catalog.Scene, error) {
	find := func() (*catalog.Scene, error) {
		var sc catalog.Scene
		err := s.pool.QueryRow(ctx,
			`SELECT `+sceneColumns+` FROM scenes WHERE name=$1 ORDER BY id LIMIT 1`,
			catalog.PlaceholderSceneName,
		).Scan(&sc.ID, &sc.Name, &sc.OriginalName, &sc.ObjectKey, &sc.SizeBytes, &sc.UploadedAt)
		if err != nil {
			return nil, err
		}
		return &sc, nil
	}

	if sc, err := find(); err == nil {
		return sc, nil
	} else if !stderr.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "catalog.placeholder", "lookup failed")
	}

	sc, err := create(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.InsertScene(ctx, sc); err != nil {
		// A concurrent caller created it first; its row wins.
		if errors.IsConflict(err) {
			return find()
		}
		return nil, err
	}
	return sc, nil
}

func notFoundOr(err error, resource, id string) error {
	if stderr.Is(err, pgx.ErrNoRows) {
		return errors.NotFound(resource, id)
	}
	return errors.Wrap(err, "catalog."+resource, "query failed")
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
