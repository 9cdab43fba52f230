package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/pagoda/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Analysis
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/analyses/", s.routeAnalyses)

	// Stateless chart model
	mux.HandleFunc("/api/pyramid", s.handlePyramid)
	mux.HandleFunc("/api/pyramid/hit", s.handlePyramidHit)

	// Users
	mux.HandleFunc("/api/users/", s.routeUsers)

	// Canteen dish catalog
	mux.HandleFunc("/api/catalog", s.handleCatalogImport)
	mux.HandleFunc("/api/catalog/", s.routeCatalog)

	// Dietary guidelines
	mux.HandleFunc("/api/guidelines", s.handleGuidelines)
	mux.HandleFunc("/api/guidelines/search", s.handleGuidelineSearch)
}

// routeAnalyses dispatches /api/analyses/{id}[/chart|/hit|/summary|/image].
func (s *Server) routeAnalyses(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/analyses/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "analysis id is required in path")
		return
	}

	switch subPath(r, "/api/analyses/", id) {
	case "":
		s.handleAnalysisGet(w, r, id)
	case "chart":
		s.handleAnalysisChart(w, r, id)
	case "hit":
		s.handleAnalysisHit(w, r, id)
	case "summary":
		s.handleAnalysisSummary(w, r, id)
	case "image":
		s.handleAnalysisImage(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeUsers dispatches /api/users/{name}/{profile|history|nutrition|flow}.
func (s *Server) routeUsers(w http.ResponseWriter, r *http.Request) {
	raw := PathParam(r, "/api/users/", "")
	username := strings.TrimSpace(raw)
	if username == "" {
		WriteError(w, http.StatusBadRequest, "username is required in path")
		return
	}

	switch subPath(r, "/api/users/", raw) {
	case "profile":
		s.handleUserProfile(w, r, username)
	case "history":
		s.handleUserHistory(w, r, username)
	case "nutrition":
		s.handleUserNutrition(w, r, username)
	case "flow":
		s.handleUserFlow(w, r, username)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
