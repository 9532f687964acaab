package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/wealth-advisor/internal/advisor"
	"github.com/Veraticus/wealth-advisor/internal/common"
	"github.com/Veraticus/wealth-advisor/internal/history"
	"github.com/Veraticus/wealth-advisor/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error onto a status code.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, history.ErrEmptyClientID), errors.Is(err, history.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{
		"message": s.config.Title,
		"status":  "ok",
	}
	if s.config.Version != "" {
		body["version"] = s.config.Version
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.advisor.Clients(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.advisor.Products(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")

	env, err := s.advisor.Analyze(r.Context(), clientID)
	switch {
	case errors.Is(err, advisor.ErrClientNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Client %s not found", clientID))
		return
	case errors.Is(err, advisor.ErrNoProducts):
		writeError(w, http.StatusNotFound, "No products found in the catalog")
		return
	case err != nil:
		writeServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleAllHistory(w http.ResponseWriter, r *http.Request) {
	all, err := s.advisor.AllHistory(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.advisor.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseRangeBound(q.Get("start"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start: %v", err))
		return
	}
	end, err := parseRangeBound(q.Get("end"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end: %v", err))
		return
	}

	results, err := s.advisor.HistoryRange(r.Context(), service.DateRange{Start: start, End: end})
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start":   start.Format(time.RFC3339),
		"end":     end.Format(time.RFC3339),
		"results": results,
	})
}

// parseRangeBound accepts RFC 3339 or a bare date. A bare end date covers
// the whole day.
func parseRangeBound(value string, isEnd bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing value")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", value)
	}
	if isEnd {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (s *Server) handleClientHistory(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")

	records, err := s.advisor.History(r.Context(), clientID)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client_id": clientID,
		"count":     len(records),
		"records":   records,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")

	record, err := s.advisor.LatestAnalysis(r.Context(), clientID)
	if err != nil {
		writeServiceError(w, err, fmt.Sprintf("No analysis found for client %s", clientID))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")

	if err := s.advisor.DeleteHistory(r.Context(), clientID); err != nil {
		writeServiceError(w, err, fmt.Sprintf("No analysis found for client %s", clientID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Deleted all analyses for client %s", clientID),
	})
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	timestamp := r.PathValue("timestamp")

	if err := s.advisor.DeleteAnalysis(r.Context(), clientID, timestamp); err != nil {
		writeServiceError(w, err, fmt.Sprintf("No analysis at %s for client %s", timestamp, clientID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Deleted analysis %s for client %s", timestamp, clientID),
	})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	recordID := r.PathValue("record_id")

	if err := s.advisor.DeleteRecord(r.Context(), clientID, recordID); err != nil {
		writeServiceError(w, err, fmt.Sprintf("No analysis %s for client %s", recordID, clientID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Deleted analysis %s for client %s", recordID, clientID),
	})
}
