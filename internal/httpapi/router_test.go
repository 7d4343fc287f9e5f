package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/adapters/storage/localfs"
	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	catalogmem "github.com/hyeonjw1106/really-big-bang/internal/catalog/memory"
	"github.com/hyeonjw1106/really-big-bang/internal/config"
	"github.com/hyeonjw1106/really-big-bang/internal/httpapi"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/ids"
	"github.com/hyeonjw1106/really-big-bang/internal/ports"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
	"github.com/hyeonjw1106/really-big-bang/internal/render/backend"
	rendermem "github.com/hyeonjw1106/really-big-bang/internal/render/memory"
)

type noopDispatcher struct{}

func (noopDispatcher) Enqueue(context.Context, string) error { return nil }

type apiFixture struct {
	router  http.Handler
	engine  *render.Engine
	catalog *catalogmem.Store
	objects ports.StorageProvider
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	catalogStore := catalogmem.New()
	objects := localfs.New(t.TempDir())
	resolver := render.NewResolver(catalogStore, objects, config.DefaultResolverConfig())

	engine := render.NewEngine(render.Deps{
		Jobs:       rendermem.New(),
		Catalog:    catalogStore,
		Backend:    backend.NewRaster(),
		Objects:    objects,
		Dispatcher: noopDispatcher{},
		Resolver:   resolver,
		Cfg:        config.RenderConfig{Mode: config.ModeRaster, JobTimeout: time.Minute},
		WorkDir:    t.TempDir(),
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:  catalogStore,
		Engine:   engine,
		Resolver: resolver,
		Objects:  objects,
	})

	return &apiFixture{router: router, engine: engine, catalog: catalogStore, objects: objects}
}

func (f *apiFixture) addScene(t *testing.T, name string) *catalog.Scene {
	t.Helper()
	ctx := context.Background()

	key := "scenes/" + ids.New("f") + ".blend"
	payload := "blend bytes"
	if _, err := f.objects.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: "application/octet-stream",
		Reader:      strings.NewReader(payload),
		Size:        int64(len(payload)),
	}); err != nil {
		t.Fatalf("storing asset: %v", err)
	}
	sc := &catalog.Scene{
		ID:           ids.New(ids.PrefixScene),
		Name:         name,
		OriginalName: name + ".blend",
		ObjectKey:    key,
		SizeBytes:    int64(len(payload)),
		UploadedAt:   time.Now().UTC(),
	}
	if err := f.catalog.InsertScene(ctx, sc); err != nil {
		t.Fatalf("inserting scene: %v", err)
	}
	return sc
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in %q", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, "GET", "/health", nil)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("health status = %v", body["status"])
	}
}

func TestEpochsWithAnnotations(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	epoch := &catalog.Epoch{ID: ids.New(ids.PrefixEpoch), Name: "Big Bang", StartNorm: 0, EndNorm: 0.05}
	if err := f.catalog.InsertEpoch(ctx, epoch); err != nil {
		t.Fatal(err)
	}
	ann := &catalog.Annotation{ID: ids.New(ids.PrefixAnnotation), EpochID: epoch.ID, Title: "Inflation", Content: "인플레이션 가설", TimeMark: 0.02}
	if err := f.catalog.InsertAnnotation(ctx, ann); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, "GET", "/epochs", nil)
	if rec.Code != 200 {
		t.Fatalf("list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Big Bang") {
		t.Errorf("list body missing epoch: %s", rec.Body.String())
	}

	rec = f.do(t, "GET", "/epochs/"+epoch.ID, nil)
	if rec.Code != 200 {
		t.Fatalf("get status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	anns, ok := body["annotations"].([]any)
	if !ok || len(anns) != 1 {
		t.Errorf("epoch detail should embed annotations, got %v", body["annotations"])
	}

	rec = f.do(t, "GET", "/epochs/epo_missing", nil)
	if rec.Code != 404 {
		t.Errorf("unknown epoch status = %d, want 404", rec.Code)
	}
}

func TestSubmitRenderOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	scene := f.addScene(t, "Scene 1")

	rec := f.do(t, "POST", "/renders", map[string]any{
		"scene_id":  scene.ID,
		"time_norm": 0.4,
	})
	if rec.Code != 201 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	job, ok := body["job"].(map[string]any)
	if !ok {
		t.Fatalf("no job in response: %s", rec.Body.String())
	}
	if job["status"] != "queued" {
		t.Errorf("job status = %v, want queued", job["status"])
	}

	// Snapshot endpoint returns the same job.
	rec = f.do(t, "GET", fmt.Sprintf("/renders/%s", job["id"]), nil)
	if rec.Code != 200 {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = f.do(t, "GET", "/renders", nil)
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), job["id"].(string)) {
		t.Errorf("list did not include the job: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitRenderValidation(t *testing.T) {
	f := newAPIFixture(t)
	scene := f.addScene(t, "Scene 1")

	tests := []struct {
		name     string
		body     map[string]any
		wantCode string
	}{
		{"time_norm out of range", map[string]any{"scene_id": scene.ID, "time_norm": 1.5}, "VALIDATION_ERROR"},
		{"resolution too small", map[string]any{"scene_id": scene.ID, "time_norm": 0.5, "resolution_x": 64, "resolution_y": 64}, "VALIDATION_ERROR"},
		{"missing scene_id", map[string]any{"time_norm": 0.5}, "VALIDATION_ERROR"},
		{"unknown scene", map[string]any{"scene_id": "scn_missing", "time_norm": 0.5}, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "POST", "/renders", tt.body)
			if rec.Code != 400 && rec.Code != 404 {
				t.Fatalf("status = %d, want 400/404", rec.Code)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("error code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestRenderFileLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	scene := f.addScene(t, "Scene 1")

	rec := f.do(t, "POST", "/renders", map[string]any{"scene_id": scene.ID, "time_norm": 0.3})
	if rec.Code != 201 {
		t.Fatalf("submit status = %d", rec.Code)
	}
	jobID := decodeBody(t, rec)["job"].(map[string]any)["id"].(string)

	rec = f.do(t, "GET", "/renders/"+jobID+"/file", nil)
	if rec.Code != 400 {
		t.Fatalf("file before drive: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_READY" {
		t.Errorf("error code = %s, want NOT_READY", code)
	}

	if err := f.engine.Drive(context.Background(), jobID); err != nil {
		t.Fatalf("drive: %v", err)
	}

	rec = f.do(t, "GET", "/renders/"+jobID+"/file", nil)
	if rec.Code != 200 {
		t.Fatalf("file after drive: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %s, want image/png", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty artifact body")
	}

	rec = f.do(t, "GET", "/renders/job_missing/file", nil)
	if rec.Code != 404 {
		t.Errorf("unknown job file: status = %d, want 404", rec.Code)
	}
}

func uploadScene(t *testing.T, f *apiFixture, filename string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake blend content")); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing form: %v", err)
	}

	req := httptest.NewRequest("POST", "/renders/scenes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSceneUpload(t *testing.T) {
	f := newAPIFixture(t)

	rec := uploadScene(t, f, "galaxy.blend")
	if rec.Code != 201 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	sc, ok := body["scene"].(map[string]any)
	if !ok {
		t.Fatalf("no scene in response: %s", rec.Body.String())
	}
	if sc["name"] != "galaxy" {
		t.Errorf("scene name = %v, want the filename stem", sc["name"])
	}

	// Only .blend files are accepted.
	rec = uploadScene(t, f, "galaxy.txt")
	if rec.Code != 400 {
		t.Errorf("txt upload status = %d, want 400", rec.Code)
	}
}

func TestListScenesPlaceholderWhenEmpty(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, "GET", "/renders/scenes", nil)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	scenes, ok := body["scenes"].([]any)
	if !ok || len(scenes) != 1 {
		t.Fatalf("scenes = %v, want exactly the placeholder", body["scenes"])
	}
	name := scenes[0].(map[string]any)["name"]
	if name != catalog.PlaceholderSceneName {
		t.Errorf("scene name = %v, want %q", name, catalog.PlaceholderSceneName)
	}

	// Listing again does not create a second placeholder.
	rec = f.do(t, "GET", "/renders/scenes", nil)
	body = decodeBody(t, rec)
	if scenes, _ := body["scenes"].([]any); len(scenes) != 1 {
		t.Errorf("placeholder duplicated on second list: %v", body["scenes"])
	}
}

func TestRenderEvent(t *testing.T) {
	f := newAPIFixture(t)
	f.addScene(t, "Scene 1")

	ev := &catalog.CosmicEvent{
		ID:       ids.New(ids.PrefixEvent),
		Title:    "쿼크 생성",
		Category: "particle",
		TimeNorm: 0.02,
	}
	if err := f.catalog.InsertEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, "POST", "/events/"+ev.ID+"/render", nil)
	if rec.Code != 201 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	job := decodeBody(t, rec)["job"].(map[string]any)
	if job["time_norm"] != 0.02 {
		t.Errorf("job time_norm = %v, want the event's", job["time_norm"])
	}

	rec = f.do(t, "POST", "/events/evt_missing/render", nil)
	if rec.Code != 404 {
		t.Errorf("unknown event status = %d, want 404", rec.Code)
	}
}
