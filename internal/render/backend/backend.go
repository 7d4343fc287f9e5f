// Package backend abstracts the external rendering tool. Implementations
// never leak errors into the job engine: every failure mode (non-zero
// exit, timeout, missing output) is normalized into an Outcome.
package backend

import "context"

// Invocation describes one render: a materialized scene file, the path the
// artifact must appear at, and the job's parameter bag.
type Invocation struct {
	JobID      string
	ScenePath  string
	OutputPath string
	TimeNorm   float64
	Params     map[string]any
}

// Outcome classifies the result. OK is true only when the artifact exists
// at OutputPath. Diagnostic carries the failure detail (or tool output)
// for the job message.
type Outcome struct {
	OK         bool
	OutputPath string
	Diagnostic string
}

// Backend turns a scene plus parameters into an artifact.
type Backend interface {
	// Name identifies the backend in logs and messages.
	Name() string
	// OutputExt is the artifact file extension, including the dot.
	OutputExt() string
	// Invoke runs the render. It must respect ctx cancellation and must
	// not panic; all failures are reported through the Outcome.
	Invoke(ctx context.Context, in Invocation) Outcome
}
