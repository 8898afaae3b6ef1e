package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"application-documents/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

var ErrTemplateNotFound = errors.New("TEMPLATE_NOT_FOUND")

// StaticResolver maps logical template names to path fragments from config.
// Lookups ignore case because viper lowercases map keys.
type StaticResolver struct {
	paths map[string]string
}

func NewStaticResolver(paths map[string]string) *StaticResolver {
	normalized := make(map[string]string, len(paths))
	for name, p := range paths {
		normalized[strings.ToLower(name)] = p
	}
	return &StaticResolver{paths: normalized}
}

func (r *StaticResolver) Resolve(_ context.Context, name string) (string, error) {
	p, ok := r.paths[strings.ToLower(name)]
	if !ok || p == "" {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return p, nil
}

// Resolver is satisfied by StaticResolver and RedisResolver.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// RedisResolver checks a Redis hash for a per-template override before
// falling back. Redis being unavailable never fails resolution.
type RedisResolver struct {
	client   *redis.Client
	key      string
	fallback Resolver
	logger   logger.Logger
}

func NewRedisResolver(client *redis.Client, key string, fallback Resolver, log logger.Logger) *RedisResolver {
	return &RedisResolver{
		client:   client,
		key:      key,
		fallback: fallback,
		logger:   log.WithFields(map[string]interface{}{"component": "template-resolver"}),
	}
}

func (r *RedisResolver) Resolve(ctx context.Context, name string) (string, error) {
	override, err := r.client.HGet(ctx, r.key, name).Result()
	switch {
	case err == nil && override != "":
		r.logger.Debug("template override in use", map[string]interface{}{
			"template": name,
			"path":     override,
		})
		return override, nil
	case err != nil && !errors.Is(err, redis.Nil):
		r.logger.Debug("template override lookup failed", map[string]interface{}{
			"template": name,
			"error":    err.Error(),
		})
	}
	return r.fallback.Resolve(ctx, name)
}

// SetOverride points name at path until ClearOverride is called.
func (r *RedisResolver) SetOverride(ctx context.Context, name, path string) error {
	return r.client.HSet(ctx, r.key, name, path).Err()
}

func (r *RedisResolver) ClearOverride(ctx context.Context, name string) error {
	return r.client.HDel(ctx, r.key, name).Err()
}
