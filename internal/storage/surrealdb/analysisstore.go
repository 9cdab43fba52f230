package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// analysisSelectFields aliases analysis_id to id for struct mapping.
const analysisSelectFields = `analysis_id as id, username, dish_name, image_key, report, created_at`

// AnalysisStore implements interfaces.AnalysisStore using SurrealDB.
type AnalysisStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(db *surrealdb.DB, logger *common.Logger) *AnalysisStore {
	return &AnalysisStore{db: db, logger: logger}
}

// Save upserts the analysis, assigning an ID and creation time when unset.
func (s *AnalysisStore) Save(ctx context.Context, a *models.Analysis) error {
	if a.ID == "" {
		a.ID = fmt.Sprintf("an_%s", uuid.New().String()[:8])
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.DishName == "" {
		a.DishName = a.Report.DishName
	}

	sql := `UPSERT $rid SET
		analysis_id = $analysis_id, username = $username, dish_name = $dish_name,
		image_key = $image_key, report = $report, created_at = $created_at`
	vars := map[string]any{
		"rid":         surrealmodels.NewRecordID(analysisTable, a.ID),
		"analysis_id": a.ID,
		"username":    a.Username,
		"dish_name":   a.DishName,
		"image_key":   a.ImageKey,
		"report":      a.Report,
		"created_at":  a.CreatedAt,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			s.logger.Debug().Str("id", a.ID).Str("username", a.Username).Msg("Analysis saved")
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save analysis after retries: %w", lastErr)
}

// Get returns the analysis or interfaces.ErrNotFound.
func (s *AnalysisStore) Get(ctx context.Context, id string) (*models.Analysis, error) {
	sql := "SELECT " + analysisSelectFields + " FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID(analysisTable, id),
	}

	results, err := surrealdb.Query[[]models.Analysis](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

func (s *AnalysisStore) ListByUser(ctx context.Context, username string, limit int) ([]*models.Analysis, error) {
	sql := "SELECT " + analysisSelectFields + " FROM analysis WHERE username = $username ORDER BY created_at DESC, analysis_id DESC"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.query(ctx, sql, map[string]any{"username": username})
}

func (s *AnalysisStore) ListByUserSince(ctx context.Context, username string, since time.Time) ([]*models.Analysis, error) {
	sql := "SELECT " + analysisSelectFields + " FROM analysis WHERE username = $username AND created_at >= $since ORDER BY created_at ASC"
	return s.query(ctx, sql, map[string]any{"username": username, "since": since})
}

func (s *AnalysisStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.Analysis, error) {
	results, err := surrealdb.Query[[]models.Analysis](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	var mapped []*models.Analysis
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
	}
	return mapped, nil
}

// DeleteByUser removes all analyses belonging to username.
func (s *AnalysisStore) DeleteByUser(ctx context.Context, username string) (int, error) {
	sql := "DELETE analysis WHERE username = $username RETURN BEFORE"
	vars := map[string]any{"username": username}

	results, err := surrealdb.Query[[]map[string]any](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analyses: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	s.logger.Info().Str("username", username).Int("count", count).Msg("Analyses deleted")
	return count, nil
}

var _ interfaces.AnalysisStore = (*AnalysisStore)(nil)
