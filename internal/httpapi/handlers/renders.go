package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyeonjw1106/really-big-bang/internal/httpkit"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

type CreateRenderRequest struct {
	SceneID     string  `json:"scene_id"`
	EpochID     string  `json:"epoch_id,omitempty"`
	TimeNorm    float64 `json:"time_norm"`
	ResolutionX int     `json:"resolution_x,omitempty"`
	ResolutionY int     `json:"resolution_y,omitempty"`
	Format      string  `json:"format,omitempty"`
	Camera      string  `json:"camera,omitempty"`
}

func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	var req CreateRenderRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}
	if req.SceneID == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "scene_id is required", map[string]any{"field": "scene_id"})
		return
	}

	job, err := h.engine.Submit(r.Context(), render.SubmitInput{
		SceneID:     req.SceneID,
		EpochID:     req.EpochID,
		TimeNorm:    req.TimeNorm,
		ResolutionX: req.ResolutionX,
		ResolutionY: req.ResolutionY,
		Format:      req.Format,
		Camera:      req.Camera,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 201, map[string]any{"job": job})
}

type RenderEventRequest struct {
	SceneID string `json:"scene_id,omitempty"`
}

// RenderEvent originates a render from a cosmic event. The body is
// optional; when present it may carry an explicit scene override.
func (h *Handler) RenderEvent(w http.ResponseWriter, r *http.Request) {
	var req RenderEventRequest
	if r.ContentLength > 0 {
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
			return
		}
	}

	job, err := h.engine.SubmitForEvent(r.Context(), chi.URLParam(r, "eventId"), req.SceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 201, map[string]any{"job": job})
}

func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	jobs, err := h.engine.ListJobs(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"jobs": jobs})
}

func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) {
	job, err := h.engine.GetStatus(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"job": job})
}

// GetRenderFile streams the finished artifact. Anything short of done is
// NOT_READY; a done job whose object vanished from storage is NOT_FOUND.
func (h *Handler) GetRenderFile(w http.ResponseWriter, r *http.Request) {
	rc, contentType, size, err := h.engine.FetchArtifact(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(200)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(r.Context()).Warn("artifact stream interrupted", "error", err.Error())
	}
}
