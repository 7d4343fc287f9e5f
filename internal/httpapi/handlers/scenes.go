package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyeonjw1106/really-big-bang/internal/catalog"
	"github.com/hyeonjw1106/really-big-bang/internal/httpkit"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/ids"
	"github.com/hyeonjw1106/really-big-bang/internal/ports"
)

// PostScene accepts a multipart .blend upload. The scene name defaults to
// the filename stem; the stored object gets a fresh uuid base name so
// uploads never collide.
func (h *Handler) PostScene(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(512 << 20); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "file is required", map[string]any{"field": "file"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".blend" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "only .blend files are accepted", map[string]any{"field": "file"})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(header.Filename), ext)
	}

	objectKey := fmt.Sprintf("scenes/%s.blend", uuid.NewString())
	out, err := h.objects.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: "application/octet-stream",
		Reader:      file,
		Size:        header.Size,
	})
	if err != nil {
		h.log.FromContext(ctx).WithError(err).Error("scene upload failed")
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "storage put failed", nil)
		return
	}

	scene := &catalog.Scene{
		ID:           ids.New(ids.PrefixScene),
		Name:         name,
		OriginalName: filepath.Base(header.Filename),
		ObjectKey:    out.ObjectKey,
		SizeBytes:    out.Size,
		UploadedAt:   time.Now().UTC(),
	}
	if err := h.catalog.InsertScene(ctx, scene); err != nil {
		h.writeError(w, r, err)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{"scene": scene})
}

// ListScenes returns the uploaded scenes. An empty catalog yields the
// lazily created placeholder so event renders always have a target.
func (h *Handler) ListScenes(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	scenes, err := h.catalog.ListScenes(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(scenes) == 0 && offset == 0 {
		placeholder, err := h.resolver.Placeholder(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		scenes = []catalog.Scene{*placeholder}
	}
	httpkit.WriteJSON(w, 200, map[string]any{"scenes": scenes})
}
