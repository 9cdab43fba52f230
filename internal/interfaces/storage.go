// Package interfaces defines service contracts for Pagoda
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/pagoda/internal/models"
)

// StorageManager coordinates the record stores.
type StorageManager interface {
	AnalysisStore() AnalysisStore
	ProfileStore() ProfileStore
	DishStore() DishStore
	GuidelineStore() GuidelineStore

	// Lifecycle
	Close() error
}

// AnalysisStore persists completed dish analyses.
type AnalysisStore interface {
	Save(ctx context.Context, a *models.Analysis) error
	Get(ctx context.Context, id string) (*models.Analysis, error)

	// ListByUser returns the user's analyses newest first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, username string, limit int) ([]*models.Analysis, error)

	// ListByUserSince returns analyses created at or after since, oldest first.
	ListByUserSince(ctx context.Context, username string, since time.Time) ([]*models.Analysis, error)

	// DeleteByUser removes every analysis of the user and returns how many went.
	DeleteByUser(ctx context.Context, username string) (int, error)
}

// ProfileStore persists user profiles keyed by username.
type ProfileStore interface {
	Get(ctx context.Context, username string) (*models.Profile, error)
	Put(ctx context.Context, p *models.Profile) error
}

// DishStore persists the canteen dish catalog.
type DishStore interface {
	// Save upserts the dish. Dishes with the same ID replace each other.
	Save(ctx context.Context, d *models.Dish) error
	Get(ctx context.Context, id string) (*models.Dish, error)

	// List returns matching dishes ordered by canteen, window, meal type and name.
	List(ctx context.Context, filter models.DishFilter) ([]*models.Dish, error)

	// Search returns dishes satisfying q, highest first by the first nutrient.
	Search(ctx context.Context, q models.DishQuery) ([]*models.Dish, error)

	// Canteens and Windows return the distinct names in sorted order.
	Canteens(ctx context.Context) ([]string, error)
	Windows(ctx context.Context, canteen string) ([]string, error)
}

// GuidelineStore keeps chunked guideline text for keyword lookup.
type GuidelineStore interface {
	// ReplaceSource drops every chunk of source and stores chunks in its place.
	ReplaceSource(ctx context.Context, source string, chunks []*models.GuidelineChunk) error

	// Search returns chunks containing every term, ordered by source, page and seq.
	Search(ctx context.Context, terms []string, limit int) ([]*models.GuidelineChunk, error)

	// Sources lists ingested documents with their chunk counts.
	Sources(ctx context.Context) (map[string]int, error)
}

// ImageStore keeps uploaded dish photos as opaque blobs.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
