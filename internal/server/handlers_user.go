package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/pagoda/internal/flow"
	"github.com/bobmcallan/pagoda/internal/models"
)

const dateLayout = "2006-01-02"

type profileRequest struct {
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

// handleUserProfile handles GET/PUT /api/users/{name}/profile.
func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request, username string) {
	switch r.Method {
	case http.MethodGet:
		p, err := s.app.HistoryService.GetProfile(r.Context(), username)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, p)
	case http.MethodPut:
		var req profileRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		p, err := s.app.HistoryService.SaveProfile(r.Context(), username, req.Nickname, req.AvatarURL)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, p)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}

// handleUserHistory handles GET/DELETE /api/users/{name}/history.
func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request, username string) {
	switch r.Method {
	case http.MethodGet:
		limit, ok := queryInt(r, "limit", 0)
		if !ok {
			WriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		records, err := s.app.HistoryService.History(r.Context(), username, limit)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if records == nil {
			records = []*models.Analysis{}
		}
		WriteData(w, http.StatusOK, records)
	case http.MethodDelete:
		n, err := s.app.HistoryService.Clear(r.Context(), username)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if session, ok := s.app.Flows.Lookup(username); ok && session.State() != flow.StateAnalyzing {
			session.Reset()
		}
		WriteData(w, http.StatusOK, map[string]int{"deleted": n})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleUserNutrition handles GET /api/users/{name}/nutrition?meal=&date=.
func (s *Server) handleUserNutrition(w http.ResponseWriter, r *http.Request, username string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	meal, err := models.ParseMealTime(q.Get("meal"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	day := time.Now()
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		day, err = time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	vector, err := s.app.HistoryService.MealVector(r.Context(), username, meal, day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"meal":   meal,
		"date":   day.Format(dateLayout),
		"vector": vector,
	})
}

// handleUserFlow handles GET/DELETE /api/users/{name}/flow.
func (s *Server) handleUserFlow(w http.ResponseWriter, r *http.Request, username string) {
	switch r.Method {
	case http.MethodGet:
		session, ok := s.app.Flows.Lookup(username)
		if !ok {
			WriteData(w, http.StatusOK, flow.NewSession(username).Snapshot())
			return
		}
		WriteData(w, http.StatusOK, session.Snapshot())
	case http.MethodDelete:
		if session, ok := s.app.Flows.Lookup(username); ok {
			if session.State() == flow.StateAnalyzing {
				WriteError(w, http.StatusConflict, flow.ErrBusy.Error())
				return
			}
			session.Reset()
		}
		WriteData(w, http.StatusOK, flow.NewSession(username).Snapshot())
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}
