package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/pagoda/internal/models"
)

// guidelineMaxBytes bounds an uploaded guideline PDF.
const guidelineMaxBytes = 32 << 20

// handleGuidelines handles GET /api/guidelines (ingested sources) and
// POST /api/guidelines?source= with the PDF as the body, or as a multipart
// "file" field whose filename is the default source.
func (s *Server) handleGuidelines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sources, err := s.app.GuidelineService.Sources(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, sources)
	case http.MethodPost:
		source, data, ok := readGuidelineUpload(w, r)
		if !ok {
			return
		}
		n, err := s.app.GuidelineService.Ingest(r.Context(), source, data)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, map[string]interface{}{"source": strings.TrimSpace(source), "chunks": n})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func readGuidelineUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	source := r.URL.Query().Get("source")
	r.Body = http.MaxBytesReader(w, r.Body, guidelineMaxBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeUploadError(w, err, "file field is required")
			return "", nil, false
		}
		defer file.Close()
		if source == "" {
			source = filepath.Base(header.Filename)
		}
		body = file
	}

	data, err := io.ReadAll(body)
	if err != nil {
		writeUploadError(w, err, "failed to read upload")
		return "", nil, false
	}
	return source, data, true
}

func writeUploadError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	WriteError(w, http.StatusBadRequest, msg)
}

// handleGuidelineSearch handles GET /api/guidelines/search?q=&limit=.
func (s *Server) handleGuidelineSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	hits, err := s.app.GuidelineService.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if hits == nil {
		hits = []*models.GuidelineChunk{}
	}
	WriteData(w, http.StatusOK, hits)
}
