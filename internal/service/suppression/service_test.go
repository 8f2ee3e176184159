package suppression

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/cadence-api/internal/model"
)

type fakeSuppressionRepo struct {
	entries     map[string]*model.Suppression
	existsCalls int
}

func newFakeSuppressionRepo() *fakeSuppressionRepo {
	return &fakeSuppressionRepo{entries: make(map[string]*model.Suppression)}
}

func key(orgID uuid.UUID, email string) string {
	return orgID.String() + "|" + email
}

func (f *fakeSuppressionRepo) Exists(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	f.existsCalls++
	_, ok := f.entries[key(orgID, email)]
	return ok, nil
}

func (f *fakeSuppressionRepo) Create(ctx context.Context, s *model.Suppression) error {
	f.entries[key(s.OrganizationID, s.Email)] = s
	return nil
}

func (f *fakeSuppressionRepo) Delete(ctx context.Context, orgID uuid.UUID, email string) error {
	delete(f.entries, key(orgID, email))
	return nil
}

func (f *fakeSuppressionRepo) List(ctx context.Context, orgID uuid.UUID) ([]*model.Suppression, error) {
	var out []*model.Suppression
	for _, s := range f.entries {
		if s.OrganizationID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestIsSuppressedNormalizesCase(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSuppressionRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	require.NoError(t, svc.Suppress(ctx, orgID, "Dana@Example.COM", ReasonOptOut))

	got, err := svc.IsSuppressed(ctx, orgID, "dana@example.com")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = svc.IsSuppressed(ctx, orgID, "DANA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestIsSuppressedScopedPerOrganization(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSuppressionRepo()
	svc := NewService(repo)
	orgA, orgB := uuid.New(), uuid.New()

	require.NoError(t, svc.Suppress(ctx, orgA, "dana@example.com", ReasonBounce))

	got, err := svc.IsSuppressed(ctx, orgB, "dana@example.com")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestIsSuppressedCachedHitsStorageOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSuppressionRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	for i := 0; i < 5; i++ {
		got, err := svc.IsSuppressedCached(ctx, orgID, "dana@example.com")
		require.NoError(t, err)
		assert.False(t, got)
	}
	assert.Equal(t, 1, repo.existsCalls)
}

func TestSuppressInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSuppressionRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	got, err := svc.IsSuppressedCached(ctx, orgID, "dana@example.com")
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, svc.Suppress(ctx, orgID, "dana@example.com", ReasonOptOut))

	got, err = svc.IsSuppressedCached(ctx, orgID, "dana@example.com")
	require.NoError(t, err)
	assert.True(t, got, "cached negative must be invalidated by a new suppression")
}

func TestUnsuppress(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSuppressionRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	require.NoError(t, svc.Suppress(ctx, orgID, "dana@example.com", ""))

	list, err := svc.List(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ReasonManual, list[0].Reason, "empty reason defaults to manual")
	assert.Equal(t, strings.ToLower("dana@example.com"), list[0].Email)

	require.NoError(t, svc.Unsuppress(ctx, orgID, "Dana@example.com"))

	got, err := svc.IsSuppressedCached(ctx, orgID, "dana@example.com")
	require.NoError(t, err)
	assert.False(t, got)
}
