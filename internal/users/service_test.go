package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standupdoc/standupdoc/internal/models"
)

type fakeRepo struct {
	lastUpsert *models.User
	upsertErr  error
}

func (f *fakeRepo) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.lastUpsert = u
	now := time.Now().UTC()
	ret := *u
	ret.ID = "abcd1234"
	ret.CreatedAt = now
	ret.UpdatedAt = now
	return &ret, nil
}

func (f *fakeRepo) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return nil, nil
}

func TestUpsertFromClaims(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.UpsertFromClaims(ctx, map[string]interface{}{
		"sub":   "sub-123",
		"email": "x@example.com",
		"name":  "X User",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "sub-123", u.Sub)
	require.Equal(t, "x@example.com", u.Email)
	require.Equal(t, "X User", u.Name)
	require.NotEmpty(t, u.ID)
	require.NotNil(t, repo.lastUpsert)
}

func TestUpsertFromClaimsNameFallback(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	u, err := svc.UpsertFromClaims(context.Background(), map[string]interface{}{
		"sub":                "sub-456",
		"preferred_username": "xuser",
	})
	require.NoError(t, err)
	require.Equal(t, "xuser", u.Name)
}

func TestUpsertFromClaimsMissingSub(t *testing.T) {
	svc := NewService(&fakeRepo{})

	u, err := svc.UpsertFromClaims(context.Background(), map[string]interface{}{"email": "y@e.com"})
	require.ErrorIs(t, err, ErrMissingSub)
	require.Nil(t, u)
}
