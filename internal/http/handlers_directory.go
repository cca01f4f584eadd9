package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"treasury/internal/core"
	"treasury/internal/storage"
)

func (req memberRequest) toDomain() (core.Member, error) {
	join, err := core.ParseDate(req.JoinDate)
	if err != nil {
		return core.Member{}, err
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	m := core.Member{
		FullName: req.FullName,
		JoinDate: join,
		Phone:    req.Phone,
		Address:  req.Address,
		Status:   status,
		Notes:    req.Notes,
	}
	return m, m.Validate()
}

func (req activityRequest) toDomain() (core.Activity, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Activity{}, err
	}
	a := core.Activity{
		Name:        req.Name,
		Date:        date,
		Location:    req.Location,
		Description: req.Description,
	}
	return a, a.Validate()
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		members, err := s.registry.ListMembers(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Member list error", "error", err)
			httpError(w, http.StatusInternalServerError, "could not list members")
			return
		}
		out := make([]memberResponse, len(members))
		for i, m := range members {
			out[i] = toMemberResponse(m)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req memberRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		m, err := req.toDomain()
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		id, err := s.registry.CreateMember(r.Context(), m)
		if err != nil {
			slog.ErrorContext(r.Context(), "Member create error", "error", err)
			httpError(w, http.StatusInternalServerError, "could not create member")
			return
		}
		m.ID = id
		s.audit(r, "member.create", m.FullName)
		writeJSON(w, http.StatusCreated, toMemberResponse(m))

	default:
		w.Header().Set("Allow", "GET, POST")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleMemberByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/api/members/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := s.registry.GetMember(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "member not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Member get error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not load member")
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))

	case http.MethodPut:
		var req memberRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		m, err := req.toDomain()
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		m.ID = id
		err = s.registry.UpdateMember(r.Context(), m)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "member not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Member update error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not update member")
			return
		}
		s.audit(r, "member.update", m.FullName)
		writeJSON(w, http.StatusOK, toMemberResponse(m))

	case http.MethodDelete:
		err := s.registry.DeleteMember(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "member not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Member delete error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not delete member")
			return
		}
		s.audit(r, "member.delete", "")
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		activities, err := s.registry.ListActivities(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Activity list error", "error", err)
			httpError(w, http.StatusInternalServerError, "could not list activities")
			return
		}
		out := make([]activityResponse, len(activities))
		for i, a := range activities {
			out[i] = toActivityResponse(a)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req activityRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		a, err := req.toDomain()
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		id, err := s.registry.CreateActivity(r.Context(), a)
		if err != nil {
			slog.ErrorContext(r.Context(), "Activity create error", "error", err)
			httpError(w, http.StatusInternalServerError, "could not create activity")
			return
		}
		a.ID = id
		s.audit(r, "activity.create", a.Name)
		writeJSON(w, http.StatusCreated, toActivityResponse(a))

	default:
		w.Header().Set("Allow", "GET, POST")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleActivityByID also serves the attendance subresource at
// /api/activities/{id}/attendance.
func (s *Server) handleActivityByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/activities/")
	if base, ok := strings.CutSuffix(rest, "/attendance"); ok {
		id, idOK := idFromPath("/"+base, "/")
		if !idOK {
			http.NotFound(w, r)
			return
		}
		s.handleAttendance(w, r, id)
		return
	}

	id, ok := idFromPath(r.URL.Path, "/api/activities/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a, err := s.registry.GetActivity(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "activity not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Activity get error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not load activity")
			return
		}
		writeJSON(w, http.StatusOK, toActivityResponse(a))

	case http.MethodPut:
		var req activityRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		a, err := req.toDomain()
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		a.ID = id
		err = s.registry.UpdateActivity(r.Context(), a)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "activity not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Activity update error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not update activity")
			return
		}
		s.audit(r, "activity.update", a.Name)
		writeJSON(w, http.StatusOK, toActivityResponse(a))

	case http.MethodDelete:
		err := s.registry.DeleteActivity(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "activity not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Activity delete error", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not delete activity")
			return
		}
		s.audit(r, "activity.delete", "")
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request, activityID int64) {
	if _, err := s.registry.GetActivity(r.Context(), activityID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "activity not found")
			return
		}
		slog.ErrorContext(r.Context(), "Attendance activity lookup error", "id", activityID, "error", err)
		httpError(w, http.StatusInternalServerError, "could not load activity")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ids, err := s.registry.GetAttendance(r.Context(), activityID)
		if err != nil {
			slog.ErrorContext(r.Context(), "Attendance get error", "id", activityID, "error", err)
			httpError(w, http.StatusInternalServerError, "could not load attendance")
			return
		}
		if ids == nil {
			ids = []int64{}
		}
		writeJSON(w, http.StatusOK, map[string][]int64{"member_ids": ids})

	case http.MethodPut:
		var req attendanceRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.registry.SetAttendance(r.Context(), activityID, req.MemberIDs); err != nil {
			slog.ErrorContext(r.Context(), "Attendance update error", "id", activityID, "error", err)
			httpError(w, http.StatusInternalServerError, "could not update attendance")
			return
		}
		s.audit(r, "activity.attendance", "")
		writeJSON(w, http.StatusOK, map[string][]int64{"member_ids": req.MemberIDs})

	default:
		w.Header().Set("Allow", "GET, PUT")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// audit records an administrative action; a failed write is logged, never
// surfaced to the caller.
func (s *Server) audit(r *http.Request, action, details string) {
	sess := sessionFromContext(r.Context())
	if err := s.registry.AppendAudit(r.Context(), sess.Username, action, details); err != nil {
		slog.ErrorContext(r.Context(), "Failed to append audit entry", "action", action, "error", err)
	}
}
