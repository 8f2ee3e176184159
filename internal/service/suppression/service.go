package suppression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute

	ReasonOptOut = "opt_out"
	ReasonBounce = "bounce"
	ReasonManual = "manual"
)

// Service answers suppression lookups. The worker path always hits storage
// (a fresh opt-out must block the very next send); the cached path is for the
// read-heavy HTTP surface only.
type Service struct {
	repo  repository.SuppressionRepository
	cache *cache.Cache
}

func NewService(repo repository.SuppressionRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cacheCleanup),
	}
}

// IsSuppressed checks the per-organization opt-out set, keyed by lowercased
// email. Used by the cadence processor; never cached.
func (s *Service) IsSuppressed(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	return s.repo.Exists(ctx, orgID, strings.ToLower(email))
}

// IsSuppressedCached serves API reads with a short TTL cache.
func (s *Service) IsSuppressedCached(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	key := cacheKey(orgID, email)
	if v, found := s.cache.Get(key); found {
		return v.(bool), nil
	}
	suppressed, err := s.repo.Exists(ctx, orgID, strings.ToLower(email))
	if err != nil {
		return false, err
	}
	s.cache.Set(key, suppressed, cache.DefaultExpiration)
	return suppressed, nil
}

// Suppress records an opt-out and invalidates the cached lookup.
func (s *Service) Suppress(ctx context.Context, orgID uuid.UUID, email, reason string) error {
	if reason == "" {
		reason = ReasonManual
	}
	err := s.repo.Create(ctx, &model.Suppression{
		OrganizationID: orgID,
		Email:          strings.ToLower(email),
		Reason:         reason,
	})
	if err != nil {
		return fmt.Errorf("failed to suppress %s: %w", email, err)
	}
	s.cache.Delete(cacheKey(orgID, email))
	return nil
}

// Unsuppress removes an opt-out record.
func (s *Service) Unsuppress(ctx context.Context, orgID uuid.UUID, email string) error {
	if err := s.repo.Delete(ctx, orgID, strings.ToLower(email)); err != nil {
		return fmt.Errorf("failed to unsuppress %s: %w", email, err)
	}
	s.cache.Delete(cacheKey(orgID, email))
	return nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]*model.Suppression, error) {
	return s.repo.List(ctx, orgID)
}

func cacheKey(orgID uuid.UUID, email string) string {
	return orgID.String() + ":" + strings.ToLower(email)
}
