package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bobmcallan/pagoda/internal/chart"
	"github.com/bobmcallan/pagoda/internal/drilldown"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/bobmcallan/pagoda/internal/pyramid"
)

// analysisResponse is an analysis with its derived chart model. Slices is
// null when the report has nothing to chart.
type analysisResponse struct {
	Analysis *models.Analysis `json:"analysis"`
	Pyramid  pyramid.Pyramid  `json:"pyramid"`
	Slices   []pyramid.Slice  `json:"slices"`
}

func newAnalysisResponse(a *models.Analysis) analysisResponse {
	p := a.Report.Pyramid()
	slices, _ := pyramid.Derive(p)
	return analysisResponse{Analysis: a, Pyramid: p, Slices: slices}
}

// hitResponse answers a pointer hit. Category is null on a miss.
type hitResponse struct {
	Category    *pyramid.Category `json:"category"`
	Label       string            `json:"label,omitempty"`
	Ingredients []string          `json:"ingredients,omitempty"`
}

// handleAnalyze handles POST /api/analyze (multipart: username, image).
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	maxBytes := s.app.Config.Images.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes + 1<<20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxBytes))
			return
		}
		WriteError(w, http.StatusBadRequest, "expected multipart form with username and image: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		WriteError(w, http.StatusBadRequest, "username is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read image: "+err.Error())
		return
	}

	a, err := s.app.AnalysisService.Analyze(r.Context(), username, header.Filename, data)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, a)
}

// handleAnalysisGet handles GET /api/analyses/{id}.
func (s *Server) handleAnalysisGet(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	a, err := s.app.AnalysisService.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, newAnalysisResponse(a))
}

// handleAnalysisChart handles GET /api/analyses/{id}/chart?format=png|svg&size=N.
func (s *Server) handleAnalysisChart(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	format, err := chart.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	g, ok := s.geometry(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "size must be an integer")
		return
	}

	a, err := s.app.AnalysisService.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	p := a.Report.Pyramid()
	slices, _ := pyramid.Derive(p)

	var buf bytes.Buffer
	err = chart.Render(&buf, slices, g, chart.Options{
		Format: format,
		Title:  a.DishName,
		Oil:    p.Oil,
		Salt:   p.Salt,
	})
	if errors.Is(err, chart.ErrNoChart) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleAnalysisHit handles GET /api/analyses/{id}/hit?x=&y=&size=.
func (s *Server) handleAnalysisHit(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	x, okX := queryFloat(r, "x")
	y, okY := queryFloat(r, "y")
	if !okX || !okY {
		WriteError(w, http.StatusBadRequest, "x and y are required numbers")
		return
	}
	g, ok := s.geometry(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "size must be an integer")
		return
	}

	a, err := s.app.AnalysisService.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	slices, _ := pyramid.Derive(a.Report.Pyramid())
	resp := hitResponse{}
	if c, hit := g.Hit(slices, x, y); hit {
		resp.Category = &c
		resp.Label = c.Label()
		resp.Ingredients = drilldown.Ingredients(&a.Report, c)
	}
	WriteData(w, http.StatusOK, resp)
}

// handleAnalysisSummary handles GET /api/analyses/{id}/summary.
func (s *Server) handleAnalysisSummary(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	summary, err := s.app.HistoryService.Summary(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	count, err := s.app.HistoryService.IngredientCount(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"summary":          summary,
		"ingredient_count": count,
	})
}

// handleAnalysisImage handles GET /api/analyses/{id}/image.
func (s *Server) handleAnalysisImage(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	a, err := s.app.AnalysisService.Get(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if a.ImageKey == "" {
		s.writeServiceError(w, r, fmt.Errorf("analysis %s has no image: %w", id, interfaces.ErrNotFound))
		return
	}

	data, err := s.app.Images.Get(ctx, a.ImageKey)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// geometry returns the configured chart geometry, resized by ?size= when given.
func (s *Server) geometry(r *http.Request) (chart.Geometry, bool) {
	g := s.app.ChartGeometry()
	size, ok := queryInt(r, "size", 0)
	if !ok {
		return g, false
	}
	if size > 0 {
		g = g.WithSize(size)
	}
	return g, true
}
