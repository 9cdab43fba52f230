package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const guidelineSelectFields = `chunk_id as id, source, page, seq, text, created_at`

// GuidelineStore implements interfaces.GuidelineStore using SurrealDB.
type GuidelineStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewGuidelineStore creates a new GuidelineStore.
func NewGuidelineStore(db *surrealdb.DB, logger *common.Logger) *GuidelineStore {
	return &GuidelineStore{db: db, logger: logger}
}

func (s *GuidelineStore) ReplaceSource(ctx context.Context, source string, chunks []*models.GuidelineChunk) error {
	if _, err := surrealdb.Query[any](ctx, s.db, "DELETE guideline WHERE source = $source", map[string]any{"source": source}); err != nil {
		return fmt.Errorf("failed to clear guideline %s: %w", source, err)
	}

	sql := `UPSERT $rid SET
		chunk_id = $chunk_id, source = $source, page = $page, seq = $seq,
		text = $text, created_at = $created_at`
	now := time.Now()
	for _, c := range chunks {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		vars := map[string]any{
			"rid":        surrealmodels.NewRecordID(guidelineTable, c.ID),
			"chunk_id":   c.ID,
			"source":     source,
			"page":       c.Page,
			"seq":        c.Seq,
			"text":       c.Text,
			"created_at": c.CreatedAt,
		}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to save guideline chunk %s: %w", c.ID, err)
		}
	}

	s.logger.Info().Str("source", source).Int("chunks", len(chunks)).Msg("Guideline stored")
	return nil
}

func (s *GuidelineStore) Search(ctx context.Context, terms []string, limit int) ([]*models.GuidelineChunk, error) {
	sql := "SELECT " + guidelineSelectFields + " FROM guideline"
	vars := map[string]any{}
	var conds []string
	for i, t := range terms {
		name := fmt.Sprintf("t%d", i)
		conds = append(conds, fmt.Sprintf("string::contains(string::lowercase(text), $%s)", name))
		vars[name] = strings.ToLower(t)
	}
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY source ASC, page ASC, seq ASC"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}

	results, err := surrealdb.Query[[]models.GuidelineChunk](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to search guidelines: %w", err)
	}
	var mapped []*models.GuidelineChunk
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
	}
	return mapped, nil
}

func (s *GuidelineStore) Sources(ctx context.Context) (map[string]int, error) {
	type row struct {
		Source string `json:"source"`
		Chunks int    `json:"chunks"`
	}
	results, err := surrealdb.Query[[]row](ctx, s.db, "SELECT source, count() AS chunks FROM guideline GROUP BY source", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list guideline sources: %w", err)
	}
	out := make(map[string]int)
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			out[r.Source] = r.Chunks
		}
	}
	return out, nil
}

var _ interfaces.GuidelineStore = (*GuidelineStore)(nil)
