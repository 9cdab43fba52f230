// Package analysis runs the photo to nutrition report pipeline.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/flow"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/bobmcallan/pagoda/internal/pyramid"
)

// DefaultMaxImageBytes caps uploads when no limit is configured.
const DefaultMaxImageBytes = 10 << 20

// Compile-time interface check
var _ interfaces.AnalysisService = (*Service)(nil)

// Service implements AnalysisService
type Service struct {
	storage  interfaces.StorageManager
	images   interfaces.ImageStore
	vision   interfaces.VisionClient
	flows    *flow.Registry
	logger   *common.Logger
	maxBytes int64
	now      func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithMaxImageBytes sets the upload size limit
func WithMaxImageBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new analysis service
func NewService(storage interfaces.StorageManager, images interfaces.ImageStore, vision interfaces.VisionClient, flows *flow.Registry, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		storage:  storage,
		images:   images,
		vision:   vision,
		flows:    flows,
		logger:   logger,
		maxBytes: DefaultMaxImageBytes,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze stores the photo, runs vision and summarisation, and persists the
// resulting analysis. Only one analysis per user runs at a time; a second
// call while one is in flight fails with flow.ErrBusy.
func (s *Service) Analyze(ctx context.Context, username, filename string, image []byte) (*models.Analysis, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", interfaces.ErrInvalidInput)
	}
	mimeType, err := s.validateImage(image)
	if err != nil {
		return nil, err
	}

	key := imageKey(filename, mimeType)
	session := s.flows.Session(username)
	if err := session.Start(key); err != nil {
		return nil, fmt.Errorf("failed to start analysis: %w", err)
	}

	s.logger.Info().Str("username", username).Str("image", key).Int("bytes", len(image)).Msg("Analysis started")
	start := s.now()

	a, err := s.run(ctx, username, key, mimeType, image)
	if err != nil {
		_ = session.Fail(failureReason(err))
		s.logger.Warn().Err(err).Str("username", username).Str("image", key).Msg("Analysis failed")
		return nil, err
	}

	_ = session.Complete(a.ID)
	s.logger.Info().
		Str("username", username).
		Str("id", a.ID).
		Str("dish", a.DishName).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Analysis complete")
	return a, nil
}

func (s *Service) run(ctx context.Context, username, key, mimeType string, image []byte) (*models.Analysis, error) {
	if err := s.images.Put(ctx, key, image, mimeType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	vr, err := s.vision.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}
	if !vr.IsValid {
		reason := vr.Reason
		if reason == "" {
			reason = "photo does not show a recognisable dish"
		}
		return nil, fmt.Errorf("%w: %s", interfaces.ErrInvalidImage, reason)
	}

	report, err := s.vision.Summarize(ctx, vr.Report)
	if err != nil {
		return nil, fmt.Errorf("summarisation failed: %w", err)
	}

	if _, ok := pyramid.Derive(report.Pyramid()); !ok {
		s.logger.Debug().Str("dish", report.DishName).Msg("Report has no charted categories")
	}

	a := &models.Analysis{
		ID:        uuid.NewString(),
		Username:  username,
		DishName:  report.DishName,
		ImageKey:  key,
		Report:    *report,
		CreatedAt: s.now(),
	}
	if err := s.storage.AnalysisStore().Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return a, nil
}

// Get returns a stored analysis.
func (s *Service) Get(ctx context.Context, id string) (*models.Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", interfaces.ErrInvalidInput)
	}
	a, err := s.storage.AnalysisStore().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %s: %w", id, err)
	}
	return a, nil
}

func (s *Service) validateImage(image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: image is empty", interfaces.ErrInvalidInput)
	}
	if int64(len(image)) > s.maxBytes {
		return "", fmt.Errorf("%w: image is %d bytes, limit is %d", interfaces.ErrInvalidInput, len(image), s.maxBytes)
	}
	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: upload is %s, not an image", interfaces.ErrInvalidInput, mimeType)
	}
	return mimeType, nil
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true}

// imageKey names the stored photo uploads/<uuid><ext>, taking the extension
// from the filename when it is a known image type and from the sniffed MIME
// type otherwise.
func imageKey(filename, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		switch mimeType {
		case "image/jpeg":
			ext = ".jpg"
		default:
			ext = ""
			if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}
	return "uploads/" + uuid.NewString() + ext
}

// failureReason is the message recorded on the flow when analysis fails.
func failureReason(err error) string {
	if errors.Is(err, interfaces.ErrInvalidImage) {
		return strings.TrimPrefix(err.Error(), interfaces.ErrInvalidImage.Error()+": ")
	}
	return err.Error()
}
