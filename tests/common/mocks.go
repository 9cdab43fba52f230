package common

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
)

// MemStorage implements StorageManager with in-memory stores.
type MemStorage struct {
	Analyses   *MemAnalysisStore
	Profiles   *MemProfileStore
	Dishes     *MemDishStore
	Guidelines *MemGuidelineStore
}

// NewMemStorage creates empty in-memory stores.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		Analyses:   NewMemAnalysisStore(),
		Profiles:   NewMemProfileStore(),
		Dishes:     NewMemDishStore(),
		Guidelines: NewMemGuidelineStore(),
	}
}

func (m *MemStorage) AnalysisStore() interfaces.AnalysisStore   { return m.Analyses }
func (m *MemStorage) ProfileStore() interfaces.ProfileStore     { return m.Profiles }
func (m *MemStorage) DishStore() interfaces.DishStore           { return m.Dishes }
func (m *MemStorage) GuidelineStore() interfaces.GuidelineStore { return m.Guidelines }
func (m *MemStorage) Close() error                              { return nil }

// MemAnalysisStore implements AnalysisStore for testing.
type MemAnalysisStore struct {
	mu      sync.Mutex
	records map[string]*models.Analysis
	SaveErr error
}

func NewMemAnalysisStore() *MemAnalysisStore {
	return &MemAnalysisStore{records: make(map[string]*models.Analysis)}
}

func (m *MemAnalysisStore) Save(_ context.Context, a *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if a.ID == "" {
		a.ID = "an_" + time.Now().Format("150405.000000000")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	m.records[a.ID] = &cp
	return nil
}

func (m *MemAnalysisStore) Get(_ context.Context, id string) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemAnalysisStore) byUser(username string) []*models.Analysis {
	var out []*models.Analysis
	for _, a := range m.records {
		if a.Username == username {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemAnalysisStore) ListByUser(_ context.Context, username string, limit int) ([]*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asc := m.byUser(username)
	out := make([]*models.Analysis, 0, len(asc))
	for i := len(asc) - 1; i >= 0; i-- {
		out = append(out, asc[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemAnalysisStore) ListByUserSince(_ context.Context, username string, since time.Time) ([]*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Analysis
	for _, a := range m.byUser(username) {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemAnalysisStore) DeleteByUser(_ context.Context, username string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, a := range m.records {
		if a.Username == username {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored analyses.
func (m *MemAnalysisStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// MemProfileStore implements ProfileStore for testing.
type MemProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func NewMemProfileStore() *MemProfileStore {
	return &MemProfileStore{profiles: make(map[string]*models.Profile)}
}

func (m *MemProfileStore) Get(_ context.Context, username string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[username]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemProfileStore) Put(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if existing, ok := m.profiles[p.Username]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	m.profiles[p.Username] = &cp
	return nil
}

// MemImageStore implements ImageStore for testing.
type MemImageStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	PutErr error
}

func NewMemImageStore() *MemImageStore {
	return &MemImageStore{blobs: make(map[string][]byte)}
}

func (m *MemImageStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemImageStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return data, nil
}

func (m *MemImageStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemImageStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

// Keys returns the stored keys in sorted order.
func (m *MemImageStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MockVisionClient implements VisionClient for testing.
type MockVisionClient struct {
	mu sync.Mutex

	Vision       *models.VisionReport
	Report       *models.Report
	AnalyzeErr   error
	SummarizeErr error

	// Block, when set, is waited on inside AnalyzeImage.
	Block chan struct{}

	AnalyzeCalls   int
	SummarizeCalls int
}

// NewMockVisionClient returns a client that recognises a tomato and egg dish.
func NewMockVisionClient() *MockVisionClient {
	return &MockVisionClient{
		Vision: &models.VisionReport{IsValid: true, Report: "西红柿炒鸡蛋：西红柿200g，鸡蛋100g，油10g，盐2g"},
		Report: SampleReport(),
	}
}

func (m *MockVisionClient) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*models.VisionReport, error) {
	m.mu.Lock()
	m.AnalyzeCalls++
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.AnalyzeErr != nil {
		return nil, m.AnalyzeErr
	}
	vr := *m.Vision
	return &vr, nil
}

func (m *MockVisionClient) Summarize(ctx context.Context, visionReport string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummarizeCalls++
	if m.SummarizeErr != nil {
		return nil, m.SummarizeErr
	}
	r := *m.Report
	return &r, nil
}

// SampleReport is a tomato and egg stir-fry with L2, L3 and condiments.
func SampleReport() *models.Report {
	return &models.Report{
		DishName:        "西红柿炒鸡蛋",
		MainIngredients: []string{"西红柿", "鸡蛋"},
		Seasonings:      []string{"食用油", "盐", "葱"},
		Vector: models.PagodaVector{
			L2: models.Level{TotalValue: 200, Ingredients: []string{"西红柿"}, Details: map[string]models.Amount{"西红柿": 200}},
			L3: models.Level{TotalValue: 100, Ingredients: []string{"鸡蛋"}, Details: map[string]models.Amount{"鸡蛋": 100}},
			L5: models.CondimentLevel{Ingredients: []string{"食用油", "盐"}, Oil: 10, Salt: 2},
		},
		FeatureTags: []string{"家常菜", "快手菜"},
		Description: "酸甜可口的家常菜",
	}
}

var (
	_ interfaces.StorageManager = (*MemStorage)(nil)
	_ interfaces.ImageStore     = (*MemImageStore)(nil)
	_ interfaces.VisionClient   = (*MockVisionClient)(nil)
)
