package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hoteldesk/internal/adapters/observability"
	"hoteldesk/internal/app"
	"hoteldesk/internal/domain"
)

type Handlers struct {
	C *app.Composer
	Q *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/hotels", h.create(app.Hotels))
		r.Put("/hotels/{id}", h.update(app.Hotels))
		r.Get("/hotels/{id}", h.get(app.Hotels))
		r.Put("/hotels/{id}/fnb-contact", h.upsertSingleton(app.Hotels, app.FnbContact))
		r.Get("/hotels/{id}/fnb-contact", h.getSingleton(app.Hotels, app.FnbContact))

		r.Post("/rooms", h.create(app.Rooms))
		r.Put("/rooms/{id}", h.update(app.Rooms))
		r.Get("/rooms/{id}", h.get(app.Rooms))
		r.Post("/rooms/{id}/categories", h.appendChildren(app.Rooms, app.RoomCategories))
		r.Get("/rooms/{id}/categories", h.listChildren(app.Rooms, app.RoomCategories))

		r.Post("/events", h.create(app.Events))
		r.Put("/events/{id}", h.update(app.Events))
		r.Get("/events/{id}", h.get(app.Events))
		r.Post("/events/{id}/spaces", h.appendChildren(app.Events, app.EventSpaces))
		r.Get("/events/{id}/spaces", h.listChildren(app.Events, app.EventSpaces))
		r.Post("/events/{id}/equipment", h.appendChildren(app.Events, app.EventEquipment))
		r.Get("/events/{id}/equipment", h.listChildren(app.Events, app.EventEquipment))
	})
}

func (h *Handlers) create(agg app.Aggregate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodeObject(w, r)
		if !ok {
			return
		}
		out, err := h.C.Create(r.Context(), agg, payload)
		observability.ObserveCompose(agg.Key, "create", err)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *Handlers) update(agg app.Aggregate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		payload, ok := decodeObject(w, r)
		if !ok {
			return
		}
		out, err := h.C.Update(r.Context(), agg, id, payload)
		observability.ObserveCompose(agg.Key, "update", err)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handlers) get(agg app.Aggregate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		out, err := h.Q.GetComposed(r.Context(), agg, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handlers) appendChildren(agg app.Aggregate, col app.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		items, ok := decodeArray(w, r)
		if !ok {
			return
		}
		rows, err := h.C.AppendChildren(r.Context(), agg, col, id, items)
		observability.ObserveCompose(agg.Key, "append_"+col.Key, err)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{col.Key: rows})
	}
}

func (h *Handlers) listChildren(agg app.Aggregate, col app.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		rows, err := h.Q.ListChildren(r.Context(), agg, col, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{col.Key: rows})
	}
}

func (h *Handlers) upsertSingleton(agg app.Aggregate, sub app.Singleton) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		payload, ok := decodeObject(w, r)
		if !ok {
			return
		}
		row, err := h.C.UpsertSingleton(r.Context(), agg, sub, id, payload)
		observability.ObserveCompose(agg.Key, "upsert_"+sub.Key, err)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{sub.Key: row})
	}
}

func (h *Handlers) getSingleton(agg app.Aggregate, sub app.Singleton) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		row, err := h.Q.GetSingleton(r.Context(), agg, sub, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{sub.Key: row})
	}
}

/********** plumbing **********/

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number", "")
		return 0, false
	}
	return id, true
}

func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", "request body must be a JSON object", "")
		return nil, false
	}
	return payload, true
}

func decodeArray(w http.ResponseWriter, r *http.Request) ([]map[string]any, bool) {
	var items []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON",
			"Request body must be a non-empty array", string(domain.KindInvalidBatchShape))
		return nil, false
	}
	return items, true
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status, title := http.StatusInternalServerError, "Internal Server Error"
	switch kind {
	case domain.KindInvalidFieldType, domain.KindInvalidBatchShape,
		domain.KindMissingDiscriminator, domain.KindNoValidFields:
		status, title = http.StatusBadRequest, "Bad Request"
	case domain.KindParentNotFound:
		status, title = http.StatusNotFound, "Not Found"
	case domain.KindConflict:
		status, title = http.StatusConflict, "Conflict"
	case domain.KindStorageFailure:
		status, title = http.StatusInternalServerError, "Internal Server Error"
	default:
		if errors.Is(err, domain.ErrNotFound) {
			status, title = http.StatusNotFound, "Not Found"
		}
	}

	detail := ""
	var de *domain.Error
	if errors.As(err, &de) {
		detail = de.Detail
	} else if status == http.StatusNotFound {
		detail = "resource not found"
	}
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
		detail = "persistence error"
	}
	writeProblem(w, status, title, detail, string(kind))
}

func writeProblem(w http.ResponseWriter, status int, title, detail, kind string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Kind: kind}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}
