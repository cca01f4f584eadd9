package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"treasury/internal/core"
	"treasury/internal/services"
	"treasury/internal/storage"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := decodeRequest(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, mustChange, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		httpError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login error", "username", req.Username, "error", err)
		httpError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	token := s.sessions.issue(sess)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:              token,
		Username:           sess.Username,
		Role:               sess.Role,
		MustChangePassword: mustChange,
	})
}

// kindFromQuery reads the ?kind= parameter, defaulting to expense to match
// the most common admin flow.
func kindFromQuery(r *http.Request) (core.Kind, error) {
	v := strings.TrimSpace(r.URL.Query().Get("kind"))
	if v == "" {
		return core.KindExpense, nil
	}
	kind := core.Kind(v)
	return kind, kind.Validate()
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		kind, err := kindFromQuery(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		categories, err := s.registry.ListCategories(r.Context(), kind)
		if err != nil {
			slog.ErrorContext(r.Context(), "Category list error", "kind", kind, "error", err)
			httpError(w, http.StatusInternalServerError, "could not list categories")
			return
		}
		out := make([]categoryResponse, len(categories))
		for i, c := range categories {
			out[i] = categoryResponse{ID: c.ID, Name: c.Name}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req categoryRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, err := s.registry.AddCategory(r.Context(), req.Kind, req.Name)
		if errors.Is(err, storage.ErrDuplicateCategory) {
			httpError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Category add error", "kind", req.Kind, "error", err)
			httpError(w, http.StatusInternalServerError, "could not add category")
			return
		}
		s.audit(r, "category.add", string(req.Kind)+"/"+req.Name)
		writeJSON(w, http.StatusCreated, categoryResponse{ID: id, Name: req.Name})

	default:
		w.Header().Set("Allow", "GET, POST")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCategoryByID renames or removes a category. Renames never rewrite
// historical transactions; their category stays a free-form label.
func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/api/categories/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req categoryRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		err := s.registry.RenameCategory(r.Context(), req.Kind, id, req.Name)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "category not found")
			return
		}
		if errors.Is(err, storage.ErrDuplicateCategory) {
			httpError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Category rename error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not rename category")
			return
		}
		s.audit(r, "category.rename", string(req.Kind)+"/"+req.Name)
		writeJSON(w, http.StatusOK, categoryResponse{ID: id, Name: req.Name})

	case http.MethodDelete:
		kind, err := kindFromQuery(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		err = s.registry.DeleteCategory(r.Context(), kind, id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Category delete error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not delete category")
			return
		}
		s.audit(r, "category.delete", string(kind))
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.registry.GetSettings(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Settings load error", "error", err)
			httpError(w, http.StatusInternalServerError, "could not load settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var req settingRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.registry.UpdateSetting(r.Context(), req.Key, req.Value); err != nil {
			slog.ErrorContext(r.Context(), "Setting update error", "key", req.Key, "error", err)
			httpError(w, http.StatusInternalServerError, "could not update setting")
			return
		}
		s.audit(r, "settings.update", req.Key)
		writeJSON(w, http.StatusOK, map[string]string{req.Key: req.Value})

	default:
		w.Header().Set("Allow", "GET, PUT")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := s.registry.ListAudit(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Audit log list error", "error", err)
		httpError(w, http.StatusInternalServerError, "could not list audit log")
		return
	}
	out := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = auditEntryResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Username:  e.Username,
			Action:    e.Action,
			Details:   e.Details,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.auth.ListUsers(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "User list error", "error", err)
			httpError(w, http.StatusInternalServerError, "could not list users")
			return
		}
		out := make([]userResponse, len(users))
		for i, u := range users {
			out[i] = toUserResponse(u)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req userRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess := sessionFromContext(r.Context())
		id, err := s.auth.CreateUser(r.Context(), sess, req.Username, req.Password, req.Role, true)
		if errors.Is(err, storage.ErrDuplicateUsername) {
			httpError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			if errors.Is(err, core.ErrEmptyUsername) {
				httpError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			slog.ErrorContext(r.Context(), "User create error", "username", req.Username, "error", err)
			httpError(w, http.StatusInternalServerError, "could not create user")
			return
		}
		writeJSON(w, http.StatusCreated, userResponse{
			ID:                 id,
			Username:           req.Username,
			Role:               req.Role,
			MustChangePassword: true,
		})

	default:
		w.Header().Set("Allow", "GET, POST")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleUserByID serves DELETE /api/users/{id} and PUT
// /api/users/{id}/password.
func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if base, ok := strings.CutSuffix(rest, "/password"); ok {
		id, idOK := idFromPath("/"+base, "/")
		if !idOK {
			http.NotFound(w, r)
			return
		}
		s.handlePasswordChange(w, r, id)
		return
	}

	id, ok := idFromPath(r.URL.Path, "/api/users/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	err := s.auth.DeleteUser(r.Context(), sessionFromContext(r.Context()), id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "User delete error", "id", id, "error", err)
		httpError(w, http.StatusInternalServerError, "could not delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request, userID int64) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", "PUT")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req passwordRequest
	if err := decodeRequest(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.auth.ChangePassword(r.Context(), sessionFromContext(r.Context()), userID, req.Password)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Password change error", "id", userID, "error", err)
		httpError(w, http.StatusInternalServerError, "could not change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
