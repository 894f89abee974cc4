package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/penwyp/go-sleep-monitor/internal/analyzer"
)

// NewRouter exposes the analyzer over HTTP.
func NewRouter(a *analyzer.Analyzer) *mux.Router {
	s := &Server{analyzer: a}

	r := mux.NewRouter()
	r.Use(s.requestContext)

	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/api/users", s.listUsers).Methods("GET")

	users := r.PathPrefix("/api/users/{user}").Subrouter()
	users.HandleFunc("/events", s.listEvents).Methods("GET")
	users.HandleFunc("/events/{id}", s.deleteEvent).Methods("DELETE")
	users.HandleFunc("/history", s.history).Methods("GET")
	users.HandleFunc("/analytics", s.analytics).Methods("GET")
	users.HandleFunc("/status", s.status).Methods("GET")
	users.HandleFunc("/checkin", s.checkIn).Methods("POST")
	users.HandleFunc("/cycles", s.backfill).Methods("POST")

	return r
}

// NewHandler wraps the router with CORS and access logging to logOut.
func NewHandler(a *analyzer.Analyzer, logOut io.Writer, allowedOrigins []string) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(logOut, cors(NewRouter(a)))
}
