package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/engine"
	"transit-guard/monitor/internal/metrics"
)

// Server exposes the read-only dashboard API plus the two operator
// mutations (escalate, resolve). All engine state lives in-memory; the
// server holds no state of its own beyond the websocket hub.
type Server struct {
	monitor *engine.Monitor
	hub     *Hub
	httpSrv *http.Server
}

func NewServer(port string, monitor *engine.Monitor, hub *Hub) *Server {
	s := &Server{
		monitor: monitor,
		hub:     hub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", metrics.HandleMetrics)
	mux.HandleFunc("GET /api/v1/alerts/active", s.handleActiveAlerts)
	mux.HandleFunc("GET /api/v1/alerts/summary", s.handleAlertSummary)
	mux.HandleFunc("POST /api/v1/alerts/{id}/escalate", s.handleEscalate)
	mux.HandleFunc("POST /api/v1/alerts/{id}/resolve", s.handleResolve)
	mux.HandleFunc("GET /api/v1/stops/active", s.handleActiveStops)
	mux.HandleFunc("GET /api/v1/stops/suspicious", s.handleSuspiciousStops)
	mux.HandleFunc("GET /api/v1/trucks/{id}/weight-status", s.handleWeightStatus)
	mux.HandleFunc("GET /api/v1/trucks/{id}/trip-summary", s.handleTripSummary)
	if hub != nil {
		mux.HandleFunc("GET /ws/alerts", hub.HandleWS)
	}

	s.httpSrv = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseLevel(raw string) (domain.AlertLevel, bool) {
	switch strings.ToUpper(raw) {
	case "NORMAL":
		return domain.LevelNormal, true
	case "WATCHLIST":
		return domain.LevelWatchlist, true
	case "WARNING":
		return domain.LevelWarning, true
	case "CRITICAL":
		return domain.LevelCritical, true
	case "EMERGENCY":
		return domain.LevelEmergency, true
	}
	return 0, false
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("level"); raw != "" {
		level, ok := parseLevel(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown level: "+raw)
			return
		}
		writeJSON(w, http.StatusOK, s.monitor.Escalation().AlertsByLevel(level))
		return
	}
	writeJSON(w, http.StatusOK, s.monitor.Escalation().ActiveAlerts())
}

func (s *Server) handleAlertSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Escalation().Summary())
}

func (s *Server) handleEscalate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
		body.Reason = "No response"
	}

	alert, ok := s.monitor.Escalation().Escalate(id, body.Reason)
	if !ok {
		writeError(w, http.StatusNotFound, "alert not found: "+id)
		return
	}
	metrics.AlertsEscalated.Add(1)
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body.Notes = ""
	}

	alert, ok := s.monitor.Escalation().Resolve(id, body.Notes)
	if !ok {
		writeError(w, http.StatusNotFound, "alert not found: "+id)
		return
	}
	metrics.AlertsResolved.Add(1)
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleActiveStops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Stops().ActiveStops(time.Now()))
}

func (s *Server) handleSuspiciousStops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Stops().SuspiciousStops())
}

func (s *Server) handleWeightStatus(w http.ResponseWriter, r *http.Request) {
	truckID := r.PathValue("id")

	var currentKg float64
	if raw := r.URL.Query().Get("weight_kg"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid weight_kg: "+raw)
			return
		}
		currentKg = parsed
	} else if summary, ok := s.monitor.Weights().TripSummary(truckID); ok {
		currentKg = summary.CurrentWeightKg
	}

	status := s.monitor.Weights().WeightStatus(truckID, currentKg)
	if status.Status == domain.TripStatusUnknown {
		writeError(w, http.StatusNotFound, "trip not registered: "+truckID)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleTripSummary(w http.ResponseWriter, r *http.Request) {
	truckID := r.PathValue("id")

	summary, ok := s.monitor.Weights().TripSummary(truckID)
	if !ok {
		writeError(w, http.StatusNotFound, "trip not registered: "+truckID)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
