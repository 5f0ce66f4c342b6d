package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProfileCacheConfig cache settings
type ProfileCacheConfig struct {
	ProfileTTL    time.Duration
	MembershipTTL time.Duration
	KeyPrefix     string
}

// DefaultProfileCacheConfig default cache settings
func DefaultProfileCacheConfig() *ProfileCacheConfig {
	return &ProfileCacheConfig{
		ProfileTTL:    10 * time.Minute,
		MembershipTTL: time.Minute,
		KeyPrefix:     "boostflow:profile:",
	}
}

// CachedProfileRepository read-through Redis cache over a ProfileRepository
type CachedProfileRepository struct {
	repo   ProfileRepository
	redis  *redis.Client
	config *ProfileCacheConfig
}

// NewCachedProfileRepository wraps repo with a Redis cache
func NewCachedProfileRepository(repo ProfileRepository, redisClient *redis.Client, config *ProfileCacheConfig) ProfileRepository {
	if config == nil {
		config = DefaultProfileCacheConfig()
	}
	return &CachedProfileRepository{
		repo:   repo,
		redis:  redisClient,
		config: config,
	}
}

func (r *CachedProfileRepository) keyProfile(userID string) string {
	return fmt.Sprintf("%sid:%s", r.config.KeyPrefix, userID)
}

func (r *CachedProfileRepository) keyOrgMember(orgID, userID string) string {
	return fmt.Sprintf("%sorg:%s:%s", r.config.KeyPrefix, orgID, userID)
}

// Invalidate drops the cached profile of a user
func (r *CachedProfileRepository) Invalidate(ctx context.Context, userID string) error {
	return r.redis.Del(ctx, r.keyProfile(userID)).Err()
}

// FindByID returns the profile, consulting the cache first.
// Cache errors fall through to the underlying repository.
func (r *CachedProfileRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	key := r.keyProfile(userID)

	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var p domain.UserProfile
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := r.repo.FindByID(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}

	if data, err := json.Marshal(p); err == nil {
		r.redis.Set(ctx, key, data, r.config.ProfileTTL)
	}
	return p, nil
}

// IsOrganizationMember caches positive and negative answers for a short TTL
func (r *CachedProfileRepository) IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error) {
	key := r.keyOrgMember(orgID, userID)

	if v, err := r.redis.Get(ctx, key).Result(); err == nil {
		return v == "1", nil
	}

	ok, err := r.repo.IsOrganizationMember(ctx, orgID, userID)
	if err != nil {
		return false, err
	}

	val := "0"
	if ok {
		val = "1"
	}
	r.redis.Set(ctx, key, val, r.config.MembershipTTL)
	return ok, nil
}
