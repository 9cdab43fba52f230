package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis(username string, created time.Time) *models.Analysis {
	return &models.Analysis{
		Username: username,
		Report: models.Report{
			DishName:        "西红柿炒鸡蛋",
			MainIngredients: []string{"西红柿", "鸡蛋"},
			Seasonings:      []string{"盐", "油"},
			Vector: models.PagodaVector{
				L2: models.Level{TotalValue: 200, Ingredients: []string{"西红柿"}},
				L3: models.Level{TotalValue: 100, Ingredients: []string{"鸡蛋"}},
				L5: models.CondimentLevel{Oil: 10, Salt: 2},
			},
		},
		CreatedAt: created.Truncate(time.Second),
	}
}

func TestAnalysisStore_SaveAndGet(t *testing.T) {
	store := NewAnalysisStore(testDB(t), testLogger())
	ctx := context.Background()

	a := sampleAnalysis("alice", time.Now())
	require.NoError(t, store.Save(ctx, a))
	require.NotEmpty(t, a.ID)
	assert.Equal(t, "西红柿炒鸡蛋", a.DishName, "dish name defaults from report")

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{"西红柿", "鸡蛋"}, got.Report.MainIngredients)
	assert.InDelta(t, 200, got.Report.Pyramid().L2, 1e-9)
	assert.InDelta(t, 2, got.Report.Pyramid().Salt, 1e-9)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
}

func TestAnalysisStore_GetNotFound(t *testing.T) {
	store := NewAnalysisStore(testDB(t), testLogger())

	_, err := store.Get(context.Background(), "an_missing")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestAnalysisStore_ListByUser(t *testing.T) {
	store := NewAnalysisStore(testDB(t), testLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		a := sampleAnalysis("alice", base.Add(time.Duration(i)*time.Minute))
		a.ID = fmt.Sprintf("an_%d", i)
		require.NoError(t, store.Save(ctx, a))
	}
	require.NoError(t, store.Save(ctx, sampleAnalysis("bob", base)))

	list, err := store.ListByUser(ctx, "alice", 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "an_4", list[0].ID, "newest first")
	assert.Equal(t, "an_2", list[2].ID)

	all, err := store.ListByUser(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	since, err := store.ListByUserSince(ctx, "alice", base.Add(3*time.Minute).Truncate(time.Second))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "an_3", since[0].ID, "oldest first")
}

func TestAnalysisStore_DeleteByUser(t *testing.T) {
	store := NewAnalysisStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleAnalysis("alice", time.Now())))
	require.NoError(t, store.Save(ctx, sampleAnalysis("alice", time.Now())))
	require.NoError(t, store.Save(ctx, sampleAnalysis("bob", time.Now())))

	n, err := store.DeleteByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := store.ListByUser(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, left)

	bobs, err := store.ListByUser(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}
