// Package guidelines ingests dietary guideline PDFs as keyword-searchable
// passages.
package guidelines

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Compile-time interface check
var _ interfaces.GuidelineService = (*Service)(nil)

// Service implements GuidelineService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	size    int
	overlap int
}

// Option configures a Service.
type Option func(*Service)

// WithChunking sets the passage size and overlap in runes.
func WithChunking(size, overlap int) Option {
	return func(s *Service) {
		s.size = size
		s.overlap = overlap
	}
}

// NewService creates a new guideline service.
func NewService(storage interfaces.StorageManager, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		logger:  logger,
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split extracts a PDF and cuts it into passages without storing anything.
func (s *Service) Split(source string, data []byte) ([]*models.GuidelineChunk, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: source name is required", interfaces.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", interfaces.ErrInvalidInput)
	}

	pages, err := ExtractPages(data)
	if err != nil {
		return nil, err
	}

	var chunks []*models.GuidelineChunk
	for _, p := range pages {
		for _, text := range Chunk(p.Text, s.size, s.overlap) {
			seq := len(chunks)
			chunks = append(chunks, &models.GuidelineChunk{
				ID:     chunkID(source, seq),
				Source: source,
				Page:   p.Number,
				Seq:    seq,
				Text:   text,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", interfaces.ErrInvalidInput, source)
	}
	return chunks, nil
}

// Ingest replaces the stored passages of source with those of the PDF and
// returns how many were stored.
func (s *Service) Ingest(ctx context.Context, source string, data []byte) (int, error) {
	chunks, err := s.Split(source, data)
	if err != nil {
		return 0, err
	}
	source = chunks[0].Source
	if err := s.storage.GuidelineStore().ReplaceSource(ctx, source, chunks); err != nil {
		return 0, fmt.Errorf("failed to store guideline: %w", err)
	}

	s.logger.Info().
		Str("source", source).
		Int("last_page", chunks[len(chunks)-1].Page).
		Int("chunks", len(chunks)).
		Msg("Guideline ingested")
	return len(chunks), nil
}

// Search returns passages containing every word of query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*models.GuidelineChunk, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: query is required", interfaces.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	return s.storage.GuidelineStore().Search(ctx, terms, limit)
}

func (s *Service) Sources(ctx context.Context) (map[string]int, error) {
	return s.storage.GuidelineStore().Sources(ctx)
}

func chunkID(source string, seq int) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, seq)))
	return "gl_" + strings.ReplaceAll(id.String(), "-", "")[:12]
}
