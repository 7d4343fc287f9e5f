package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyeonjw1106/really-big-bang/internal/httpkit"
)

func (h *Handler) ListEpochs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	epochs, err := h.catalog.ListEpochs(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"epochs": epochs})
}

// GetEpoch returns one epoch together with its annotations.
func (h *Handler) GetEpoch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "epochId")

	epoch, err := h.catalog.GetEpoch(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	annotations, err := h.catalog.ListAnnotations(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{
		"epoch":       epoch,
		"annotations": annotations,
	})
}

func (h *Handler) ListEpochAnnotations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "epochId")
	if _, err := h.catalog.GetEpoch(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	annotations, err := h.catalog.ListAnnotations(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"annotations": annotations})
}

func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	elements, err := h.catalog.ListElements(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"elements": elements})
}

func (h *Handler) GetElement(w http.ResponseWriter, r *http.Request) {
	el, err := h.catalog.GetElement(r.Context(), chi.URLParam(r, "elementId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"element": el})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	events, err := h.catalog.ListEvents(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"events": events})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.catalog.GetEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"event": ev})
}
