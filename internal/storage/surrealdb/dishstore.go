package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Nutrient amounts are flattened onto the record so searches can compare
// them directly. ORDER BY needs them in the projection too.
const dishSelectFields = `dish_id, canteen, window_no, meal_type, dish_name, report, created_at, l1, l2, l3, l4, oil, salt`

// nutrientFields whitelists the columns a DishQuery may compare.
var nutrientFields = map[models.Nutrient]string{
	models.NutrientL1:   "l1",
	models.NutrientL2:   "l2",
	models.NutrientL3:   "l3",
	models.NutrientL4:   "l4",
	models.NutrientOil:  "oil",
	models.NutrientSalt: "salt",
}

type dishRecord struct {
	ID        string        `json:"dish_id"`
	Canteen   string        `json:"canteen"`
	Window    string        `json:"window_no"`
	MealType  string        `json:"meal_type"`
	DishName  string        `json:"dish_name"`
	Report    models.Report `json:"report"`
	CreatedAt time.Time     `json:"created_at"`
}

func (r *dishRecord) dish() *models.Dish {
	return &models.Dish{
		ID:        r.ID,
		Canteen:   r.Canteen,
		Window:    r.Window,
		MealType:  r.MealType,
		DishName:  r.DishName,
		Report:    r.Report,
		CreatedAt: r.CreatedAt,
	}
}

// DishStore implements interfaces.DishStore using SurrealDB.
type DishStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewDishStore creates a new DishStore.
func NewDishStore(db *surrealdb.DB, logger *common.Logger) *DishStore {
	return &DishStore{db: db, logger: logger}
}

func (s *DishStore) Save(ctx context.Context, d *models.Dish) error {
	if d.ID == "" {
		return fmt.Errorf("%w: dish id is required", interfaces.ErrInvalidInput)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.DishName == "" {
		d.DishName = d.Report.DishName
	}

	p := d.Report.Pyramid()
	sql := `UPSERT $rid SET
		dish_id = $dish_id, canteen = $canteen, window_no = $window_no,
		meal_type = $meal_type, dish_name = $dish_name, report = $report,
		l1 = $l1, l2 = $l2, l3 = $l3, l4 = $l4, oil = $oil, salt = $salt,
		created_at = $created_at`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID(dishTable, d.ID),
		"dish_id":    d.ID,
		"canteen":    d.Canteen,
		"window_no":  d.Window,
		"meal_type":  d.MealType,
		"dish_name":  d.DishName,
		"report":     d.Report,
		"l1":         p.L1,
		"l2":         p.L2,
		"l3":         p.L3,
		"l4":         p.L4,
		"oil":        p.Oil,
		"salt":       p.Salt,
		"created_at": d.CreatedAt,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save dish after retries: %w", lastErr)
}

func (s *DishStore) Get(ctx context.Context, id string) (*models.Dish, error) {
	sql := "SELECT " + dishSelectFields + " FROM $rid"
	list, err := s.query(ctx, sql, map[string]any{"rid": surrealmodels.NewRecordID(dishTable, id)})
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}
	if len(list) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return list[0], nil
}

func (s *DishStore) List(ctx context.Context, filter models.DishFilter) ([]*models.Dish, error) {
	var conds []string
	vars := map[string]any{}
	for field, value := range map[string]string{
		"canteen":   filter.Canteen,
		"window_no": filter.Window,
		"meal_type": filter.MealType,
	} {
		if value != "" {
			conds = append(conds, field+" = $"+field)
			vars[field] = value
		}
	}
	sort.Strings(conds)

	sql := "SELECT " + dishSelectFields + " FROM dish"
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY canteen ASC, window_no ASC, meal_type ASC, dish_name ASC"
	return s.query(ctx, sql, vars)
}

func (s *DishStore) Search(ctx context.Context, q models.DishQuery) ([]*models.Dish, error) {
	if len(q.Nutrients) == 0 {
		return nil, fmt.Errorf("%w: no nutrient to search", interfaces.ErrInvalidInput)
	}
	op := ">="
	if q.Exclusive {
		op = ">"
	}

	conds := make([]string, 0, len(q.Nutrients))
	for _, n := range q.Nutrients {
		field, ok := nutrientFields[n]
		if !ok {
			return nil, fmt.Errorf("%w: unknown nutrient %q", interfaces.ErrInvalidInput, n)
		}
		conds = append(conds, fmt.Sprintf("%s %s $min", field, op))
	}

	sql := fmt.Sprintf("SELECT %s FROM dish WHERE (%s) ORDER BY %s DESC, dish_name ASC",
		dishSelectFields, strings.Join(conds, " OR "), nutrientFields[q.Nutrients[0]])
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return s.query(ctx, sql, map[string]any{"min": q.Min})
}

func (s *DishStore) Canteens(ctx context.Context) ([]string, error) {
	type row struct {
		Canteen string `json:"canteen"`
	}
	results, err := surrealdb.Query[[]row](ctx, s.db, "SELECT canteen FROM dish GROUP BY canteen", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list canteens: %w", err)
	}
	var names []string
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			names = append(names, r.Canteen)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *DishStore) Windows(ctx context.Context, canteen string) ([]string, error) {
	type row struct {
		Window string `json:"window_no"`
	}
	sql := "SELECT window_no FROM dish WHERE canteen = $canteen GROUP BY window_no"
	results, err := surrealdb.Query[[]row](ctx, s.db, sql, map[string]any{"canteen": canteen})
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	var names []string
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			names = append(names, r.Window)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *DishStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.Dish, error) {
	results, err := surrealdb.Query[[]dishRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}

	var mapped []*models.Dish
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			mapped = append(mapped, (*results)[0].Result[i].dish())
		}
	}
	return mapped, nil
}

var _ interfaces.DishStore = (*DishStore)(nil)
