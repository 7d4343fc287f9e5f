package render

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/ids"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/metrics"
	"github.com/hyeonjw1106/really-big-bang/internal/render/backend"
	"github.com/hyeonjw1106/really-big-bang/internal/ports"
)

// Resolution bounds accepted at submission time.
const (
	minSubmitRes  = 256
	maxSubmitResX = 7680
	maxSubmitResY = 4320
)

// Dispatcher hands a freshly created job to whatever runs Drive: the Redis
// queue consumed by the worker binary, or an in-process pool.
type Dispatcher interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Deps wires the engine's collaborators.
type Deps struct {
	Jobs       JobStore
	Catalog    catalog.Store
	Backend    backend.Backend
	Objects    ports.StorageProvider
	Dispatcher Dispatcher
	Resolver   *Resolver
	Cfg        config.RenderConfig
	// WorkDir holds materialized scenes and raw render outputs before
	// they are pushed to the storage provider.
	WorkDir string
	Log     *logger.Logger
}

// Engine owns the render job lifecycle. It is the only mutator of a job
// after creation; API handlers read through GetStatus/FetchArtifact.
type Engine struct {
	jobs       JobStore
	catalog    catalog.Store
	backend    backend.Backend
	objects    ports.StorageProvider
	dispatcher Dispatcher
	resolver   *Resolver
	cfg        config.RenderConfig
	workDir    string
	log        *logger.Logger
}

func NewEngine(d Deps) *Engine {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Engine{
		jobs:       d.Jobs,
		catalog:    d.Catalog,
		backend:    d.Backend,
		objects:    d.Objects,
		dispatcher: d.Dispatcher,
		resolver:   d.Resolver,
		cfg:        d.Cfg,
		workDir:    d.WorkDir,
		log:        log.WithComponent("engine"),
	}
}

// SetDispatcher replaces the dispatcher. Used when the dispatcher (an
// in-process pool) needs the engine's Drive to exist first.
func (e *Engine) SetDispatcher(d Dispatcher) { e.dispatcher = d }

// SubmitInput is a direct render submission.
type SubmitInput struct {
	SceneID     string
	EpochID     string
	TimeNorm    float64
	ResolutionX int
	ResolutionY int
	Format      string
	Camera      string
}

// Submit validates the request, persists a queued job and enqueues it for
// driving. It returns the snapshot immediately; rendering happens later.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*Job, error) {
	if in.TimeNorm < 0 || in.TimeNorm > 1 {
		return nil, errors.ValidationField("time_norm", fmt.Sprintf("time_norm must be within [0,1], got %v", in.TimeNorm))
	}
	if in.ResolutionX == 0 {
		in.ResolutionX = 1280
	}
	if in.ResolutionY == 0 {
		in.ResolutionY = 720
	}
	if in.ResolutionX < minSubmitRes || in.ResolutionX > maxSubmitResX {
		return nil, errors.ValidationField("resolution_x", fmt.Sprintf("resolution_x must be within [%d,%d]", minSubmitRes, maxSubmitResX))
	}
	if in.ResolutionY < minSubmitRes || in.ResolutionY > maxSubmitResY {
		return nil, errors.ValidationField("resolution_y", fmt.Sprintf("resolution_y must be within [%d,%d]", minSubmitRes, maxSubmitResY))
	}
	if in.Format == "" {
		in.Format = "PNG"
	}

	if _, err := e.catalog.GetScene(ctx, in.SceneID); err != nil {
		return nil, err
	}
	if in.EpochID != "" {
		if _, err := e.catalog.GetEpoch(ctx, in.EpochID); err != nil {
			return nil, err
		}
	}

	params := Params{
		"resolution": map[string]any{"x": in.ResolutionX, "y": in.ResolutionY},
		"format":     in.Format,
	}
	if in.Camera != "" {
		params["camera"] = in.Camera
	}

	return e.create(ctx, in.SceneID, in.EpochID, in.TimeNorm, params, "render queued")
}

// SubmitForEvent originates a render from a cosmic event. The scene is
// chosen by the resolver; time position, epoch and display metadata come
// from the event.
func (e *Engine) SubmitForEvent(ctx context.Context, eventID, explicitSceneID string) (*Job, error) {
	ev, err := e.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	scene, err := e.resolver.Resolve(ctx, ev, explicitSceneID)
	if err != nil {
		return nil, err
	}

	params := Params{
		"event_title":    ev.Title,
		"event_category": ev.Category,
	}
	if ev.TimeRange != "" {
		params["event_time_range"] = ev.TimeRange
	}
	if ev.Description != "" {
		params["event_description"] = ev.Description
	}

	return e.create(ctx, scene.ID, ev.EpochID, ev.TimeNorm, params, "cosmic event render queued")
}

func (e *Engine) create(ctx context.Context, sceneID, epochID string, timeNorm float64, params Params, message string) (*Job, error) {
	now := time.Now().UTC()
	j := &Job{
		ID:        ids.New(ids.PrefixJob),
		SceneID:   sceneID,
		EpochID:   epochID,
		TimeNorm:  timeNorm,
		Status:    StatusQueued,
		Message:   message,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.jobs.Create(ctx, j); err != nil {
		return nil, errors.Wrap(err, "engine.submit", "persisting job")
	}
	metrics.JobsSubmitted.Inc()

	if err := e.dispatcher.Enqueue(ctx, j.ID); err != nil {
		return nil, errors.Wrap(err, "engine.submit", "enqueueing job")
	}

	e.log.FromContext(ctx).Info("render job submitted",
		"job_id", j.ID,
		"scene_id", sceneID,
		"time_norm", timeNorm,
	)
	return j, nil
}

// GetStatus returns the current persisted snapshot. Safe to call at any
// point in the lifecycle, concurrently with Drive.
func (e *Engine) GetStatus(ctx context.Context, jobID string) (*Job, error) {
	return e.jobs.Get(ctx, jobID)
}

// ListJobs returns recent jobs, newest first.
func (e *Engine) ListJobs(ctx context.Context, limit, offset int) ([]Job, error) {
	return e.jobs.List(ctx, limit, offset)
}

// Drive advances one job from queued to a terminal state: transition to
// processing, materialize the scene, invoke the backend under the job
// timeout, upload the artifact and finish. Every transition is persisted
// before the next step so a crash leaves the job in its last recorded
// state. Failures are captured on the job, never raised to a client.
func (e *Engine) Drive(ctx context.Context, jobID string) error {
	log := e.log.FromContext(ctx).WithJobID(jobID)
	start := time.Now()
	metrics.JobsRunning.Inc()
	defer metrics.JobsRunning.Dec()

	j, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.IsNotFound(err) {
			// Deleted between submit and drive; nothing to do.
			log.Warn("job vanished before drive")
			return nil
		}
		return errors.Wrap(err, "engine.drive", "loading job")
	}
	if j.Status.Terminal() {
		log.Warn("job already terminal, skipping", "status", string(j.Status))
		return nil
	}

	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.JobTimeout)
		defer cancel()
	}

	if err := e.jobs.SetStatus(ctx, jobID, StatusProcessing, "preparing render"); err != nil {
		return errors.Wrap(err, "engine.drive", "marking job processing")
	}

	scene, err := e.catalog.GetScene(ctx, j.SceneID)
	if err != nil {
		return e.fail(ctx, jobID, fmt.Sprintf("scene %s not found", j.SceneID))
	}

	scenePath, err := e.materializeScene(ctx, jobID, scene)
	if err != nil {
		if stderrors.Is(err, ports.ErrObjectNotFound) {
			return e.fail(ctx, jobID, fmt.Sprintf("scene asset %s is missing from storage", scene.ObjectKey))
		}
		return e.fail(ctx, jobID, fmt.Sprintf("fetching scene %s: %v", scene.ObjectKey, err))
	}
	defer os.Remove(scenePath)

	outputLocal := filepath.Join(e.workDir, "renders", jobID+e.backend.OutputExt())
	outcome := e.backend.Invoke(ctx, backend.Invocation{
		JobID:      jobID,
		ScenePath:  scenePath,
		OutputPath: outputLocal,
		TimeNorm:   j.TimeNorm,
		Params:     j.Params,
	})
	if !outcome.OK {
		return e.fail(ctx, jobID, errors.BackendFailure(outcome.Diagnostic).Error())
	}
	defer os.Remove(outcome.OutputPath)

	outputKey, err := e.uploadArtifact(ctx, jobID, outcome.OutputPath)
	if err != nil {
		return e.fail(ctx, jobID, fmt.Sprintf("storing render output: %v", err))
	}

	if err := e.jobs.SetDone(ctx, jobID, outputKey, "render complete"); err != nil {
		return errors.Wrap(err, "engine.drive", "marking job done")
	}

	metrics.JobsCompleted.WithLabelValues(e.backend.Name(), "true").Inc()
	metrics.JobDuration.WithLabelValues(e.backend.Name()).Observe(time.Since(start).Seconds())
	log.Info("render job done",
		"output_key", outputKey,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// FetchArtifact streams the finished artifact. NotReady for any non-done
// status (failed included); NotFound when the stored object is gone.
func (e *Engine) FetchArtifact(ctx context.Context, jobID string) (rc io.ReadCloser, contentType string, size int64, err error) {
	j, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, "", 0, err
	}
	if j.Status != StatusDone || j.OutputKey == "" {
		return nil, "", 0, errors.NotReady(jobID, string(j.Status))
	}

	rc, contentType, size, err = e.objects.GetObject(ctx, j.OutputKey)
	if err != nil {
		if stderrors.Is(err, ports.ErrObjectNotFound) {
			return nil, "", 0, errors.NotFound("render output", j.OutputKey)
		}
		return nil, "", 0, errors.Wrap(err, "engine.fetch", "reading render output")
	}
	return rc, contentType, size, nil
}

// materializeScene copies the scene asset from the storage provider into
// the local work directory so the external tool can open it.
func (e *Engine) materializeScene(ctx context.Context, jobID string, scene *catalog.Scene) (string, error) {
	rc, _, _, err := e.objects.GetObject(ctx, scene.ObjectKey)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	ext := filepath.Ext(scene.OriginalName)
	if ext == "" {
		ext = ".blend"
	}
	dst := filepath.Join(e.workDir, "work", jobID+ext)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return "", err
	}
	return dst, nil
}

// uploadArtifact pushes the rendered file to the storage provider under
// the job-id-based key and returns the stored object key.
func (e *Engine) uploadArtifact(ctx context.Context, jobID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := "renders/" + jobID + e.backend.OutputExt()
	out, err := e.objects.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: contentTypeForExt(e.backend.OutputExt()),
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", err
	}
	return out.ObjectKey, nil
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".glb":
		return "model/gltf-binary"
	default:
		return "application/octet-stream"
	}
}

// fail records the terminal failed state. The cause is returned so the
// worker loop can log it, but it never reaches a client synchronously.
func (e *Engine) fail(ctx context.Context, jobID, msg string) error {
	if len(msg) > 2000 {
		msg = msg[:2000]
	}
	metrics.JobsCompleted.WithLabelValues(e.backend.Name(), "false").Inc()
	// Persist the terminal state even if the drive context is done.
	if err := e.jobs.SetStatus(context.WithoutCancel(ctx), jobID, StatusFailed, msg); err != nil {
		e.log.LogError(ctx, "recording job failure", err, "job_id", jobID)
	}
	e.log.FromContext(ctx).Error("render job failed", "job_id", jobID, "message", msg)
	return errors.New(errors.CodeBackendFailure, msg)
}
