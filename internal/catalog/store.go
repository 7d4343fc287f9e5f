package catalog

import "context"

// Store is the catalog persistence contract. The render core consumes it
// read-only; writes happen through the API handlers and the seeder.
type Store interface {
	// Epochs.
	GetEpoch(ctx context.Context, id string) (*Epoch, error)
	ListEpochs(ctx context.Context, limit, offset int) ([]Epoch, error)
	InsertEpoch(ctx context.Context, e *Epoch) error

	// Annotations.
	ListAnnotations(ctx context.Context, epochID string) ([]Annotation, error)
	InsertAnnotation(ctx context.Context, a *Annotation) error

	// Elements.
	GetElement(ctx context.Context, id string) (*Element, error)
	ListElements(ctx context.Context, limit, offset int) ([]Element, error)
	InsertElement(ctx context.Context, e *Element) error

	// Cosmic events.
	GetEvent(ctx context.Context, id string) (*CosmicEvent, error)
	ListEvents(ctx context.Context, limit, offset int) ([]CosmicEvent, error)
	InsertEvent(ctx context.Context, ev *CosmicEvent) error

	// Scenes.
	GetScene(ctx context.Context, id string) (*Scene, error)
	ListScenes(ctx context.Context, limit, offset int) ([]Scene, error)
	InsertScene(ctx context.Context, sc *Scene) error
	// FindSceneByNameContains returns the lowest-id scene whose name
	// contains the given fragment, or NotFound.
	FindSceneByNameContains(ctx context.Context, fragment string) (*Scene, error)
	// GetOrCreatePlaceholder returns the singleton placeholder scene,
	// creating it on first use. Concurrent callers must observe exactly
	// one row. create builds the scene record (including writing the dummy
	// asset) when none exists yet.
	GetOrCreatePlaceholder(ctx context.Context, create func(ctx context.Context) (*Scene, error)) (*Scene, error)
}
