// Package surrealdb implements Pagoda's record stores on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

const (
	analysisTable  = "analysis"
	profileTable   = "profile"
	dishTable      = "dish"
	guidelineTable = "guideline"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	analysisStore  *AnalysisStore
	profileStore   *ProfileStore
	dishStore      *DishStore
	guidelineStore *GuidelineStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	// Connect to SurrealDB
	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	// Sign in
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	// Select namespace and database
	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := defineTables(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	m := &Manager{
		db:             db,
		logger:         logger,
		analysisStore:  NewAnalysisStore(db, logger),
		profileStore:   NewProfileStore(db, logger),
		dishStore:      NewDishStore(db, logger),
		guidelineStore: NewGuidelineStore(db, logger),
	}

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// defineTables makes sure every table exists; SurrealDB v3 errors when
// querying a table that was never defined.
func defineTables(ctx context.Context, db *surrealdb.DB) error {
	for _, table := range []string{analysisTable, profileTable, dishTable, guidelineTable} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	indexes := []string{
		"DEFINE INDEX IF NOT EXISTS analysis_user ON analysis FIELDS username, created_at",
		"DEFINE INDEX IF NOT EXISTS dish_place ON dish FIELDS canteen, window_no, meal_type",
		"DEFINE INDEX IF NOT EXISTS guideline_source ON guideline FIELDS source",
	}
	for _, sql := range indexes {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define index: %w", err)
		}
	}
	return nil
}

func (m *Manager) AnalysisStore() interfaces.AnalysisStore {
	return m.analysisStore
}

func (m *Manager) ProfileStore() interfaces.ProfileStore {
	return m.profileStore
}

func (m *Manager) DishStore() interfaces.DishStore {
	return m.dishStore
}

func (m *Manager) GuidelineStore() interfaces.GuidelineStore {
	return m.guidelineStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// isNotFoundError matches the driver's error for missing records or tables.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
