// Package interfaces defines service contracts for Pagoda
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/pagoda/internal/models"
)

// AnalysisService runs the photo to report pipeline.
type AnalysisService interface {
	Analyze(ctx context.Context, username, filename string, image []byte) (*models.Analysis, error)
	Get(ctx context.Context, id string) (*models.Analysis, error)
}

// HistoryService answers questions about a user's past meals.
type HistoryService interface {
	History(ctx context.Context, username string, limit int) ([]*models.Analysis, error)
	MealVector(ctx context.Context, username string, meal models.MealTime, day time.Time) (models.NutritionVector, error)
	Summary(ctx context.Context, id string) (*models.NutritionSummary, error)
	IngredientCount(ctx context.Context, id string) (*models.IngredientCount, error)
	Clear(ctx context.Context, username string) (int, error)

	GetProfile(ctx context.Context, username string) (*models.Profile, error)
	SaveProfile(ctx context.Context, username, nickname, avatarURL string) (*models.Profile, error)
}

// CatalogService manages the pre-analysed canteen dish catalog.
type CatalogService interface {
	Import(ctx context.Context, menu models.Menu) (int, error)
	Canteens(ctx context.Context) ([]string, error)
	Windows(ctx context.Context, canteen string) ([]string, error)
	Dishes(ctx context.Context, filter models.DishFilter) ([]*models.Dish, error)
	Dish(ctx context.Context, id string) (*models.Dish, error)
	Search(ctx context.Context, level, min string, limit int) ([]*models.Dish, error)
}

// GuidelineService ingests dietary guideline PDFs and looks passages up.
type GuidelineService interface {
	Ingest(ctx context.Context, source string, pdf []byte) (int, error)
	Search(ctx context.Context, query string, limit int) ([]*models.GuidelineChunk, error)
	Sources(ctx context.Context) (map[string]int, error)
}
