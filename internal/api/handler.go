package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/penwyp/go-sleep-monitor/internal/analyzer"
	"github.com/penwyp/go-sleep-monitor/internal/core/analytics"
	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/cycle"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/data/store"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

const maxBodyBytes = 64 * 1024

type Server struct {
	analyzer *analyzer.Analyzer
}

type errorResponse struct {
	Error string `json:"error"`
}

type checkInResponse struct {
	Event  model.SleepEvent `json:"event"`
	Status model.UserStatus `json:"status"`
}

// backfillRequest carries a manual sleep entry. Times are RFC3339 or
// "YYYY-MM-DD HH:MM" in the server timezone.
type backfillRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := util.ContextWithRequestID(r.Context(), uuid.NewString())
		if user := mux.Vars(r)["user"]; user != "" {
			ctx = util.ContextWithUserID(ctx, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	users, err := s.analyzer.Users(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	events, err := s.analyzer.Events(ctx, mux.Vars(r)["user"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	history, err := s.analyzer.History(ctx, mux.Vars(r)["user"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		win, err := s.analyzer.ResolveWindow("", q.Get("from"), q.Get("to"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		history = win.FilterBuckets(history)
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	q := r.URL.Query()
	win, err := s.analyzer.ResolveWindow(q.Get("range"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := s.analyzer.Report(ctx, mux.Vars(r)["user"], win)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	status, err := s.analyzer.Status(ctx, mux.Vars(r)["user"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) checkIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	event, status, err := s.analyzer.CheckIn(ctx, mux.Vars(r)["user"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkInResponse{Event: event, Status: status})
}

func (s *Server) backfill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	defer r.Body.Close()

	var req backfillRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start and end are required"})
		return
	}

	clock := s.analyzer.Clock()
	start, err := clock.ParseLocal(req.Start)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	end, err := clock.ParseLocal(req.End)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	events, err := s.analyzer.Backfill(ctx, mux.Vars(r)["user"], start, end)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, events)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := fetchContext(r)
	defer cancel()

	vars := mux.Vars(r)
	if err := s.analyzer.Delete(ctx, vars["user"], vars["id"]); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func fetchContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), constants.StoreFetchTimeout)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cycle.ErrInvalidTimeOrder),
		errors.Is(err, analytics.ErrUnknownRange),
		errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, store.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		util.LogFor(ctx).Error("request failed", util.F("error", err.Error()))
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}
