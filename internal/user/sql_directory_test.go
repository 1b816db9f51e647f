package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearhere-auth/internal/db"
)

func newDirectory(t *testing.T) *SQLDirectory {
	t.Helper()
	d, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	dir := NewSQLDirectory(d)
	dir.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return dir
}

func TestFindByProviderIDAbsent(t *testing.T) {
	dir := newDirectory(t)

	u, err := dir.FindByProviderID(context.Background(), "google", "g-123")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	u := &User{ID: uuid.New(), Name: "Ada", Provider: "google", ProviderID: "g-123"}
	require.NoError(t, dir.Create(ctx, u))
	assert.Equal(t, int64(1_700_000_000), u.CreatedAt)

	found, err := dir.FindByProviderID(ctx, "google", "g-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, *u, *found)

	byID, err := dir.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "g-123", byID.ProviderID)
}

func TestCreateDuplicateProviderID(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	require.NoError(t, dir.Create(ctx, &User{ID: uuid.New(), Name: "Ada", Provider: "google", ProviderID: "g-123"}))

	err := dir.Create(ctx, &User{ID: uuid.New(), Name: "Ada again", Provider: "google", ProviderID: "g-123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateProviderID))
}

func TestSameRawIDAcrossProviders(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	require.NoError(t, dir.Create(ctx, &User{ID: uuid.New(), Name: "A", Provider: "kakao", ProviderID: "42"}))
	require.NoError(t, dir.Create(ctx, &User{ID: uuid.New(), Name: "B", Provider: "naver", ProviderID: "42"}))

	k, err := dir.FindByProviderID(ctx, "kakao", "42")
	require.NoError(t, err)
	n, err := dir.FindByProviderID(ctx, "naver", "42")
	require.NoError(t, err)
	assert.NotEqual(t, k.ID, n.ID)
}

func TestUpdateName(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	u := &User{ID: uuid.New(), Name: "Ada", Provider: "google", ProviderID: "g-123"}
	require.NoError(t, dir.Create(ctx, u))

	dir.now = func() time.Time { return time.Unix(1_700_000_500, 0) }
	require.NoError(t, dir.UpdateName(ctx, u.ID, "Ada Lovelace"))

	found, err := dir.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", found.Name)
	assert.Equal(t, int64(1_700_000_500), found.UpdatedAt)
	assert.Equal(t, int64(1_700_000_000), found.CreatedAt)
}

func TestCreateRequiresID(t *testing.T) {
	dir := newDirectory(t)
	require.Error(t, dir.Create(context.Background(), &User{Provider: "google", ProviderID: "g-1"}))
}
