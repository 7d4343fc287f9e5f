// Package catalog defines the curated reference entities of the cosmic
// timeline (epochs, annotations, elements, events, scene files) and the
// store contract the rest of the platform consumes.
package catalog

import "time"

// Epoch is a named interval of cosmic time with normalized bounds in [0,1].
type Epoch struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	StartNorm   float64 `json:"start_norm"`
	EndNorm     float64 `json:"end_norm"`
	Description string  `json:"description,omitempty"`
}

// Annotation is a note attached to an epoch at a normalized time mark.
type Annotation struct {
	ID       string  `json:"id"`
	EpochID  string  `json:"epoch_id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	TimeMark float64 `json:"time_mark"`
}

// Element is a catalog entry for an elementary particle or atom.
type Element struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	ChargeRange string  `json:"charge_range,omitempty"`
	MassGeV     float64 `json:"mass_gev,omitempty"`
	GenesisTime string  `json:"genesis_time,omitempty"`
}

// CosmicEvent is a point-in-time occurrence on the timeline that renders
// can originate from.
type CosmicEvent struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	TimeRange      string  `json:"time_range,omitempty"`
	Category       string  `json:"category,omitempty"`
	TimeNorm       float64 `json:"time_norm"`
	MediaURL       string  `json:"media_url,omitempty"`
	EpochID        string  `json:"epoch_id,omitempty"`
	DefaultSceneID string  `json:"default_scene_id,omitempty"`
}

// Scene is an uploaded or synthesized 3D asset used as render input.
// ObjectKey locates the asset in the storage provider.
type Scene struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	ObjectKey    string    `json:"-"`
	SizeBytes    int64     `json:"file_size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// PlaceholderSceneName is the reserved name of the singleton placeholder
// scene created lazily on first need.
const PlaceholderSceneName = "Placeholder Scene"
