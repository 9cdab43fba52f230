package surrealdb

import (
	"context"
	"testing"

	"github.com/bobmcallan/pagoda/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuidelineStore_ReplaceAndSearch(t *testing.T) {
	store := NewGuidelineStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, "guide.pdf", []*models.GuidelineChunk{
		{ID: "g1", Page: 1, Seq: 0, Text: "Eat 300-500g of Vegetables daily."},
		{ID: "g2", Page: 2, Seq: 1, Text: "Limit salt to 5g per day."},
	}))

	hits, err := store.Search(ctx, []string{"VEGETABLES"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "g1", hits[0].ID)
	assert.Equal(t, "guide.pdf", hits[0].Source)

	hits, err = store.Search(ctx, []string{"salt", "5g"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Page)

	require.NoError(t, store.ReplaceSource(ctx, "guide.pdf", []*models.GuidelineChunk{
		{ID: "g3", Page: 1, Seq: 0, Text: "Drink water."},
	}))
	hits, err = store.Search(ctx, []string{"salt"}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	sources, err := store.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"guide.pdf": 1}, sources)
}
