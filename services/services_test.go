package services

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"skilltracker/model"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(hash, "$"))
	assert.NotContains(t, hash, "correct horse")

	ok, err := VerifyPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "battery staple")
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, stored := range []string{"", "nodollar", "a$b$c", "!!!$AAAA", "AAAA$", "AAAA$AAAA"} {
		_, err := VerifyPassword(stored, "pw")
		assert.Error(t, err, "stored %q", stored)
		assert.False(t, ComparePasswords(stored, "pw"))
	}

	_, err := VerifyPassword("nodollar", "pw")
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}

func TestNotesListCache(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping Redis test")
	}

	ctx := context.Background()
	cache, err := NewNotesListCache(ctx, url, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Invalidate(ctx))
	_, gen, err := cache.Get(ctx)
	assert.True(t, errors.Is(err, ErrCacheMiss), "got %v", err)

	uploaded := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	notes := []*model.Note{{ID: primitive.NewObjectID(), Title: "a", FileType: "pdf", FileSize: 3, UploadedAt: uploaded}}
	require.NoError(t, cache.Set(ctx, gen, notes))

	got, _, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, notes[0].ID, got[0].ID)
	assert.True(t, uploaded.Equal(got[0].UploadedAt))

	require.NoError(t, cache.Invalidate(ctx))
	_, next, err := cache.Get(ctx)
	assert.True(t, errors.Is(err, ErrCacheMiss), "got %v", err)
	assert.Greater(t, next, gen)

	// A listing read before the invalidation must not come back.
	require.NoError(t, cache.Set(ctx, gen, notes))
	_, _, err = cache.Get(ctx)
	assert.True(t, errors.Is(err, ErrCacheMiss), "got %v", err)
}
