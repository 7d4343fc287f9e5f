// Package render owns the render job lifecycle: submission, the
// queued→processing→done/failed state machine, scene resolution and the
// render backend invocation.
package render

import (
	"time"
)

// Status is the render job state. Jobs only ever move forward:
// queued → processing → done | failed.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal. There is
// no retry and no cancellation transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusDone || next == StatusFailed
	default:
		return false
	}
}

// Params is the opaque parameter bag carried by a job. Its shape varies by
// request: direct submissions carry resolution/format/camera, event-origin
// submissions carry event metadata.
type Params map[string]any

// Resolution extracts the requested output resolution, applying the
// original defaults when absent.
func (p Params) Resolution() (x, y int) {
	x, y = 1280, 720
	res, ok := p["resolution"].(map[string]any)
	if !ok {
		return x, y
	}
	if v, ok := toInt(res["x"]); ok {
		x = v
	}
	if v, ok := toInt(res["y"]); ok {
		y = v
	}
	return x, y
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

// Job is the unit of work tracking one render/export request from
// submission to terminal outcome.
type Job struct {
	ID        string    `json:"id"`
	SceneID   string    `json:"scene_id"`
	EpochID   string    `json:"epoch_id,omitempty"`
	TimeNorm  float64   `json:"time_norm"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	OutputKey string    `json:"output_path,omitempty"`
	Params    Params    `json:"params,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
