package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	middlewarex "oldphonedeals/internal/http/middleware"
	"oldphonedeals/internal/listview"
	"oldphonedeals/internal/services/views"
	"oldphonedeals/internal/session"
)

// mountRequest is the body of POST /views. The same fields are accepted
// as query parameters; any other query parameter is a filter.
type mountRequest struct {
	View      string           `json:"view"`
	Page      int              `json:"page"`
	PageSize  int              `json:"pageSize"`
	SortBy    string           `json:"sortBy"`
	SortOrder string           `json:"sortOrder"`
	Filters   listview.Filters `json:"filters"`
}

func (m mountRequest) pageRequest() listview.PageRequest {
	return listview.PageRequest{
		Page:      m.Page,
		PageSize:  m.PageSize,
		SortBy:    m.SortBy,
		SortOrder: listview.SortOrder(m.SortOrder),
		Filters:   m.Filters,
	}
}

type definitionResponse struct {
	Name     string   `json:"name"`
	Admin    bool     `json:"admin"`
	Strategy string   `json:"strategy"`
	Filters  []string `json:"filters"`
	Sorters  []string `json:"sorters"`
}

// ListViews describes the views a client can mount.
func ListViews(manager *views.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defs := manager.Definitions()
		out := make([]definitionResponse, 0, len(defs))
		for _, d := range defs {
			out = append(out, definitionResponse{
				Name:     d.Name,
				Admin:    d.Admin,
				Strategy: d.Strategy,
				Filters:  d.Filters,
				Sorters:  d.Sorters,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// MountView creates a view instance and returns its first state.
func MountView(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		req := parseListRequest(r)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if req.View == "" {
			http.Error(w, "view is required", http.StatusBadRequest)
			return
		}

		snap, err := manager.Mount(r.Context(), s, req.View, req.pageRequest())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	})
}

// GetView returns the state of a mounted view.
func GetView(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		snap, err := manager.Get(s, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

// SetPage moves a view to another page.
func SetPage(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		var body struct {
			Page int `json:"page"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		snap, err := manager.SetPage(r.Context(), s, chi.URLParam(r, "id"), body.Page)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

// SetSort changes the ordering of a view.
func SetSort(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		var body struct {
			SortBy    string `json:"sortBy"`
			SortOrder string `json:"sortOrder"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		snap, err := manager.SetSort(r.Context(), s, chi.URLParam(r, "id"), body.SortBy, listview.ParseSortOrder(body.SortOrder))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

// SetFilter sets or clears one filter.
func SetFilter(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		var body struct {
			Key   string `json:"key"`
			Value any    `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if body.Key == "" {
			http.Error(w, "key is required", http.StatusBadRequest)
			return
		}
		snap, err := manager.SetFilter(r.Context(), s, chi.URLParam(r, "id"), body.Key, body.Value)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

// RefreshView reloads a view from the marketplace.
func RefreshView(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		snap, err := manager.Refresh(r.Context(), s, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

// RefreshAll reloads every view of the session.
func RefreshAll(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		snaps, err := manager.RefreshAll(r.Context(), s)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snaps)
	})
}

// UnmountView discards a view.
func UnmountView(manager *views.Manager) http.HandlerFunc {
	return withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		if err := manager.Unmount(r.Context(), s, chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func withSession(h func(w http.ResponseWriter, r *http.Request, s *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := middlewarex.SessionFrom(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		h(w, r, s)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, views.ErrViewNotFound), errors.Is(err, views.ErrInstanceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, views.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, views.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("views request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// parseListRequest parses HTTP query parameters into a mount request
func parseListRequest(r *http.Request) mountRequest {
	q := r.URL.Query()
	req := mountRequest{
		View:      q.Get("view"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Page = n
		}
	}

	for _, k := range []string{"pageSize", "limit"} {
		if v := q.Get(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				req.PageSize = n
				break
			}
		}
	}

	for k := range q {
		switch k {
		case "view", "page", "pageSize", "limit", "sortBy", "sortOrder":
			continue
		}
		if req.Filters == nil {
			req.Filters = listview.Filters{}
		}
		req.Filters[k] = q.Get(k)
	}

	return req
}
