package common

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
)

// MemDishStore implements DishStore for testing.
type MemDishStore struct {
	mu     sync.Mutex
	dishes map[string]*models.Dish
}

func NewMemDishStore() *MemDishStore {
	return &MemDishStore{dishes: make(map[string]*models.Dish)}
}

func (m *MemDishStore) Save(_ context.Context, d *models.Dish) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		return fmt.Errorf("%w: dish id is required", interfaces.ErrInvalidInput)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.DishName == "" {
		d.DishName = d.Report.DishName
	}
	cp := *d
	m.dishes[d.ID] = &cp
	return nil
}

func (m *MemDishStore) Get(_ context.Context, id string) (*models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemDishStore) all() []*models.Dish {
	out := make([]*models.Dish, 0, len(m.dishes))
	for _, d := range m.dishes {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Canteen != b.Canteen {
			return a.Canteen < b.Canteen
		}
		if a.Window != b.Window {
			return a.Window < b.Window
		}
		if a.MealType != b.MealType {
			return a.MealType < b.MealType
		}
		return a.DishName < b.DishName
	})
	return out
}

func (m *MemDishStore) List(_ context.Context, filter models.DishFilter) ([]*models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Dish
	for _, d := range m.all() {
		if filter.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemDishStore) Search(_ context.Context, q models.DishQuery) ([]*models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(q.Nutrients) == 0 {
		return nil, fmt.Errorf("%w: no nutrient to search", interfaces.ErrInvalidInput)
	}
	for _, n := range q.Nutrients {
		known := false
		for _, k := range models.Nutrients {
			known = known || n == k
		}
		if !known {
			return nil, fmt.Errorf("%w: unknown nutrient %q", interfaces.ErrInvalidInput, n)
		}
	}

	var out []*models.Dish
	for _, d := range m.all() {
		if q.Matches(d) {
			out = append(out, d)
		}
	}
	first := q.Nutrients[0]
	sort.SliceStable(out, func(i, j int) bool {
		return first.Of(&out[i].Report) > first.Of(&out[j].Report)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemDishStore) Canteens(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range m.all() {
		if !seen[d.Canteen] {
			seen[d.Canteen] = true
			out = append(out, d.Canteen)
		}
	}
	return out, nil
}

func (m *MemDishStore) Windows(_ context.Context, canteen string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range m.all() {
		if d.Canteen == canteen && !seen[d.Window] {
			seen[d.Window] = true
			out = append(out, d.Window)
		}
	}
	return out, nil
}

// Len returns the number of stored dishes.
func (m *MemDishStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dishes)
}

// MemGuidelineStore implements GuidelineStore for testing.
type MemGuidelineStore struct {
	mu     sync.Mutex
	chunks map[string][]*models.GuidelineChunk
}

func NewMemGuidelineStore() *MemGuidelineStore {
	return &MemGuidelineStore{chunks: make(map[string][]*models.GuidelineChunk)}
}

func (m *MemGuidelineStore) ReplaceSource(_ context.Context, source string, chunks []*models.GuidelineChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]*models.GuidelineChunk, 0, len(chunks))
	for _, c := range chunks {
		cp := *c
		cp.Source = source
		stored = append(stored, &cp)
	}
	m.chunks[source] = stored
	return nil
}

func (m *MemGuidelineStore) Search(_ context.Context, terms []string, limit int) ([]*models.GuidelineChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sources := make([]string, 0, len(m.chunks))
	for s := range m.chunks {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	var out []*models.GuidelineChunk
	for _, s := range sources {
		for _, c := range m.chunks[s] {
			if c.ContainsAll(terms) {
				cp := *c
				out = append(out, &cp)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemGuidelineStore) Sources(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.chunks))
	for s, chunks := range m.chunks {
		out[s] = len(chunks)
	}
	return out, nil
}
