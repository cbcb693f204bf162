package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageViewStoreWithoutRedis(t *testing.T) {
	store := NewPageViewStore(nil, "")
	ctx := context.Background()

	n, err := store.Increment(ctx, 1, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Count(ctx, 1, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPageViewKeyUsesUTCDate(t *testing.T) {
	store := NewPageViewStore(nil, "lh").(*PageViewStoreImpl)
	tehran := time.FixedZone("IRST", 3*3600+1800)
	day := time.Date(2024, 3, 2, 1, 0, 0, 0, tehran)
	assert.Equal(t, "lh:pageviews:7:2024-03-01", store.key(7, day))
}
