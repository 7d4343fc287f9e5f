// Command seed loads the reference timeline data: two epochs with their
// annotations, two catalog elements and the three renderable cosmic
// events. Safe to run repeatedly; existing rows are left alone.
package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	catalogpg "github.com/hyeonjw1106/really-big-bang/internal/catalog/postgres"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/ids"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "cosmos-seed",
	})

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("invalid configuration", err)
	}
	if cfg.DatabaseURL == "" {
		log.LogFatal("missing required environment variable", nil, "key", "DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()

	if err := catalogpg.Migrate(ctx, pool); err != nil {
		log.LogFatal("failed to run migrations", err)
	}

	store := catalogpg.New(pool)
	if err := seed(ctx, store, log); err != nil {
		log.LogFatal("seeding failed", err)
	}
	log.Info("seed complete")
}

func seed(ctx context.Context, store catalog.Store, log *logger.Logger) error {
	bigBang := &catalog.Epoch{
		ID:          ids.New(ids.PrefixEpoch),
		Name:        "Big Bang",
		StartNorm:   0.00,
		EndNorm:     0.05,
		Description: "초기 급팽창 및 기본 입자 생성",
	}
	recombination := &catalog.Epoch{
		ID:          ids.New(ids.PrefixEpoch),
		Name:        "Recombination",
		StartNorm:   0.35,
		EndNorm:     0.40,
		Description: "우주 투명화, CMB 형성",
	}

	for _, e := range []*catalog.Epoch{bigBang, recombination} {
		if err := store.InsertEpoch(ctx, e); err != nil {
			if errors.IsConflict(err) {
				log.Info("epoch already present, skipping", "name", e.Name)
				// Reuse the existing row so annotations and events attach
				// to it instead of a dangling id.
				existing, ferr := findEpochByName(ctx, store, e.Name)
				if ferr != nil {
					return ferr
				}
				e.ID = existing.ID
				continue
			}
			return err
		}
		log.Info("epoch seeded", "name", e.Name)
	}

	annotations := []*catalog.Annotation{
		{ID: ids.New(ids.PrefixAnnotation), EpochID: bigBang.ID, Title: "Inflation", Content: "인플레이션 가설", TimeMark: 0.02},
		{ID: ids.New(ids.PrefixAnnotation), EpochID: recombination.ID, Title: "CMB", Content: "우주 배경 복사", TimeMark: 0.37},
	}
	for _, a := range annotations {
		if exists, err := annotationExists(ctx, store, a.EpochID, a.Title); err != nil {
			return err
		} else if exists {
			log.Info("annotation already present, skipping", "title", a.Title)
			continue
		}
		if err := store.InsertAnnotation(ctx, a); err != nil {
			return err
		}
		log.Info("annotation seeded", "title", a.Title)
	}

	elements := []*catalog.Element{
		{ID: ids.New(ids.PrefixElement), Name: "Up Quark", Type: "quark", Description: "전하 +2/3", ChargeRange: "+2/3", MassGeV: 0.0023, GenesisTime: "10^-12 s"},
		{ID: ids.New(ids.PrefixElement), Name: "Hydrogen", Type: "atom", Description: "가장 풍부한 원자", ChargeRange: "0", MassGeV: 0.938, GenesisTime: "~380,000 years"},
	}
	for _, el := range elements {
		if exists, err := elementExists(ctx, store, el.Name); err != nil {
			return err
		} else if exists {
			log.Info("element already present, skipping", "name", el.Name)
			continue
		}
		if err := store.InsertElement(ctx, el); err != nil {
			return err
		}
		log.Info("element seeded", "name", el.Name)
	}

	events := []*catalog.CosmicEvent{
		{
			ID: ids.New(ids.PrefixEvent), Title: "쿼크 생성",
			Description: "기본 입자인 쿼크가 처음 생성된 시기",
			TimeRange:   "10^-12 s", Category: "particle",
			TimeNorm: 0.02, EpochID: bigBang.ID,
		},
		{
			ID: ids.New(ids.PrefixEvent), Title: "원자 형성",
			Description: "재결합으로 중성 원자가 형성되고 우주가 투명해진 시기",
			TimeRange:   "~380,000 years", Category: "atom",
			TimeNorm: 0.37, EpochID: recombination.ID,
		},
		{
			ID: ids.New(ids.PrefixEvent), Title: "은하 형성",
			Description: "최초의 은하들이 모여 대규모 구조를 이루기 시작한 시기",
			TimeRange:   "~1 billion years", Category: "galaxy",
			TimeNorm: 0.70,
		},
	}
	for _, ev := range events {
		if err := store.InsertEvent(ctx, ev); err != nil {
			if errors.IsConflict(err) {
				log.Info("event already present, skipping", "title", ev.Title)
				continue
			}
			return err
		}
		log.Info("event seeded", "title", ev.Title)
	}

	return nil
}

func findEpochByName(ctx context.Context, store catalog.Store, name string) (*catalog.Epoch, error) {
	epochs, err := store.ListEpochs(ctx, 200, 0)
	if err != nil {
		return nil, err
	}
	for i := range epochs {
		if epochs[i].Name == name {
			return &epochs[i], nil
		}
	}
	return nil, errors.NotFound("epoch", name)
}

func annotationExists(ctx context.Context, store catalog.Store, epochID, title string) (bool, error) {
	anns, err := store.ListAnnotations(ctx, epochID)
	if err != nil {
		return false, err
	}
	for i := range anns {
		if anns[i].Title == title {
			return true, nil
		}
	}
	return false, nil
}

func elementExists(ctx context.Context, store catalog.Store, name string) (bool, error) {
	elements, err := store.ListElements(ctx, 200, 0)
	if err != nil {
		return false, err
	}
	for i := range elements {
		if elements[i].Name == name {
			return true, nil
		}
	}
	return false, nil
}
