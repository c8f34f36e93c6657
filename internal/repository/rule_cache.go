package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
)

const ruleCacheKey = "crm:routing_rules:all"

// cachedRuleRepository decorates a RoutingRuleRepository with a Redis
// snapshot cache for List. The cache is an optimization only: misses
// and Redis outages fall back to the inner repository, and every write
// invalidates the snapshot.
type cachedRuleRepository struct {
	inner  RoutingRuleRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRuleRepository wraps inner with the Redis snapshot cache.
// A nil client or non-positive TTL disables caching.
func NewCachedRuleRepository(inner RoutingRuleRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) RoutingRuleRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	return &cachedRuleRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedRuleRepository) List(ctx context.Context) ([]domain.RoutingRule, error) {
	raw, err := r.client.Get(ctx, ruleCacheKey).Bytes()
	if err == nil {
		var rules []domain.RoutingRule
		if jsonErr := json.Unmarshal(raw, &rules); jsonErr == nil {
			return rules, nil
		}
		// corrupt snapshot; drop it and reload
		r.client.Del(ctx, ruleCacheKey)
	} else if err != redis.Nil {
		r.logger.Warn("rule cache read failed", zap.Error(err))
	}

	rules, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if raw, jsonErr := json.Marshal(rules); jsonErr == nil {
		if setErr := r.client.Set(ctx, ruleCacheKey, raw, r.ttl).Err(); setErr != nil {
			r.logger.Warn("rule cache write failed", zap.Error(setErr))
		}
	}
	return rules, nil
}

func (r *cachedRuleRepository) Create(ctx context.Context, rule *domain.RoutingRule) error {
	if err := r.inner.Create(ctx, rule); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRuleRepository) Update(ctx context.Context, rule *domain.RoutingRule) error {
	if err := r.inner.Update(ctx, rule); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRuleRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRuleRepository) GetByID(ctx context.Context, id string) (*domain.RoutingRule, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *cachedRuleRepository) FindActiveByCountry(ctx context.Context, country string) (*domain.RoutingRule, error) {
	return r.inner.FindActiveByCountry(ctx, country)
}

func (r *cachedRuleRepository) invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, ruleCacheKey).Err(); err != nil {
		r.logger.Warn("rule cache invalidation failed", zap.Error(err))
	}
}
