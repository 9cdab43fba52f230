// Package catalog keeps the canteen dish catalog: menus analysed ahead of
// time and browsable by canteen, window and meal, or searchable by tier.
package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// dishNamespace seeds dish IDs so re-importing a menu replaces its dishes.
var dishNamespace = uuid.MustParse("6f1c2f0e-8a4b-4d59-9a55-2c7d0f0b9e11")

// Compile-time interface check
var _ interfaces.CatalogService = (*Service)(nil)

// Service implements CatalogService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new catalog service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// DishID derives the stable ID of a dish from where it is served.
func DishID(canteen, window, meal, name string) string {
	key := strings.Join([]string{canteen, window, meal, name}, "\x00")
	id := uuid.NewSHA1(dishNamespace, []byte(key))
	return "dish_" + strings.ReplaceAll(id.String(), "-", "")[:12]
}

// Import stores every dish of the menu and returns how many were saved.
// Dishes without a name are skipped.
func (s *Service) Import(ctx context.Context, menu models.Menu) (int, error) {
	if len(menu) == 0 {
		return 0, fmt.Errorf("%w: menu is empty", interfaces.ErrInvalidInput)
	}

	store := s.storage.DishStore()
	saved, skipped := 0, 0
	for _, canteen := range sortedKeys(menu) {
		windows := menu[canteen]
		canteenName := strings.TrimSpace(canteen)
		if canteenName == "" {
			return saved, fmt.Errorf("%w: canteen name is empty", interfaces.ErrInvalidInput)
		}
		for _, window := range sortedKeys(windows) {
			meals := windows[window]
			windowName := strings.TrimSpace(window)
			if windowName == "" {
				return saved, fmt.Errorf("%w: window name is empty in %s", interfaces.ErrInvalidInput, canteenName)
			}
			for _, meal := range sortedKeys(meals) {
				mealType := strings.TrimSpace(meal)
				if mealType == "" {
					return saved, fmt.Errorf("%w: meal type is empty in %s %s", interfaces.ErrInvalidInput, canteenName, windowName)
				}
				for _, report := range meals[meal] {
					name := strings.TrimSpace(report.DishName)
					if name == "" {
						skipped++
						continue
					}
					report.DishName = name
					d := &models.Dish{
						ID:       DishID(canteenName, windowName, mealType, name),
						Canteen:  canteenName,
						Window:   windowName,
						MealType: mealType,
						DishName: name,
						Report:   report,
					}
					if err := store.Save(ctx, d); err != nil {
						return saved, fmt.Errorf("failed to save dish %s: %w", name, err)
					}
					saved++
				}
			}
		}
	}

	s.logger.Info().
		Int("canteens", len(menu)).
		Int("saved", saved).
		Int("skipped", skipped).
		Msg("Menu imported")
	return saved, nil
}

func (s *Service) Canteens(ctx context.Context) ([]string, error) {
	return s.storage.DishStore().Canteens(ctx)
}

func (s *Service) Windows(ctx context.Context, canteen string) ([]string, error) {
	canteen = strings.TrimSpace(canteen)
	if canteen == "" {
		return nil, fmt.Errorf("%w: canteen is required", interfaces.ErrInvalidInput)
	}
	return s.storage.DishStore().Windows(ctx, canteen)
}

func (s *Service) Dishes(ctx context.Context, filter models.DishFilter) ([]*models.Dish, error) {
	filter.Canteen = strings.TrimSpace(filter.Canteen)
	filter.Window = strings.TrimSpace(filter.Window)
	filter.MealType = strings.TrimSpace(filter.MealType)
	return s.storage.DishStore().List(ctx, filter)
}

func (s *Service) Dish(ctx context.Context, id string) (*models.Dish, error) {
	return s.storage.DishStore().Get(ctx, strings.TrimSpace(id))
}

// Search finds dishes by tier. See ParseQuery for level and min.
func (s *Service) Search(ctx context.Context, level, min string, limit int) ([]*models.Dish, error) {
	q, err := ParseQuery(level, min)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		q.Limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		q.Limit = MaxSearchLimit
	default:
		q.Limit = limit
	}
	return s.storage.DishStore().Search(ctx, q)
}

// ParseQuery turns a tier search into a DishQuery.
//
// Levels L1 to L4 match dishes whose tier total is at least min (default 0).
// Level L5 covers the condiments: min "oil" or "salt" matches any dish using
// that condiment, a number matches dishes where oil or salt reaches it, and
// an empty min matches any dish with a condiment. Levels "oil" and "salt"
// search that condiment alone, any amount above zero when min is empty.
func ParseQuery(level, min string) (models.DishQuery, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	min = strings.ToLower(strings.TrimSpace(min))

	var q models.DishQuery
	switch level {
	case "l1", "l2", "l3", "l4":
		q.Nutrients = []models.Nutrient{models.Nutrient(level)}
	case "l5":
		switch min {
		case "oil", "salt":
			return models.DishQuery{Nutrients: []models.Nutrient{models.Nutrient(min)}, Exclusive: true}, nil
		case "":
			return models.DishQuery{Nutrients: []models.Nutrient{models.NutrientOil, models.NutrientSalt}, Exclusive: true}, nil
		}
		q.Nutrients = []models.Nutrient{models.NutrientOil, models.NutrientSalt}
	case "oil", "salt":
		q.Nutrients = []models.Nutrient{models.Nutrient(level)}
		q.Exclusive = min == ""
	default:
		return q, fmt.Errorf("%w: unknown level %q (want L1-L5, oil or salt)", interfaces.ErrInvalidInput, level)
	}

	if min != "" {
		v, err := strconv.ParseFloat(min, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return q, fmt.Errorf("%w: min must be a non-negative number", interfaces.ErrInvalidInput)
		}
		q.Min = v
	}
	return q, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
