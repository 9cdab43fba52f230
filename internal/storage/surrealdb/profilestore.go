package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const profileSelectFields = `username, nickname, avatar_url, created_at, updated_at`

// ProfileStore implements interfaces.ProfileStore using SurrealDB.
type ProfileStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db *surrealdb.DB, logger *common.Logger) *ProfileStore {
	return &ProfileStore{db: db, logger: logger}
}

func (s *ProfileStore) Get(ctx context.Context, username string) (*models.Profile, error) {
	sql := "SELECT " + profileSelectFields + " FROM $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(profileTable, username)}

	results, err := surrealdb.Query[[]models.Profile](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// Put upserts the profile. CreatedAt is preserved from the stored record.
func (s *ProfileStore) Put(ctx context.Context, p *models.Profile) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		if existing, err := s.Get(ctx, p.Username); err == nil {
			p.CreatedAt = existing.CreatedAt
		} else {
			p.CreatedAt = now
		}
	}
	p.UpdatedAt = now

	sql := `UPSERT $rid SET
		username = $username, nickname = $nickname, avatar_url = $avatar_url,
		created_at = $created_at, updated_at = $updated_at`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID(profileTable, p.Username),
		"username":   p.Username,
		"nickname":   p.Nickname,
		"avatar_url": p.AvatarURL,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

var _ interfaces.ProfileStore = (*ProfileStore)(nil)
