// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"innovative-sphere-api/internal/application/catalog"
	"innovative-sphere-api/internal/application/idea"
	"innovative-sphere-api/internal/config"
	"innovative-sphere-api/internal/domain/repository"
	"innovative-sphere-api/internal/infrastructure/llm"
	"innovative-sphere-api/internal/infrastructure/persistence/postgres"
	"innovative-sphere-api/internal/infrastructure/persistence/redis"
	"innovative-sphere-api/internal/interfaces/http/handler"
	"innovative-sphere-api/internal/interfaces/http/middleware"
	"innovative-sphere-api/internal/interfaces/http/router"
	"innovative-sphere-api/pkg/logger"
)

// catalogCachePrefix 目录缓存键前缀
const catalogCachePrefix = "catalog"

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient  *postgres.Client
	TxManager *postgres.TxManager
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
)

// RedisSet Redis 提供者集合，Redis 不可用时缓存与限流降级关闭
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideCatalogCache,
	ProvideRateLimiter,
)

// CatalogSet 目录服务提供者集合
var CatalogSet = wire.NewSet(
	ProvideCatalogRegistry,
)

// IdeaSet 创意生成提供者集合
var IdeaSet = wire.NewSet(
	ProvideIdeaGenerator,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideHandlers,
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClientOptional 提供 Redis 客户端，未启用或不可达时返回 nil
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func()) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, cache and rate limiting disabled", "error", err.Error())
		return nil, func() {}
	}
	return client, func() {
		_ = client.Close()
	}
}

// ProvideCatalogCache 提供目录缓存
func ProvideCatalogCache(client *redis.Client) catalog.Cache {
	if client == nil {
		return nil
	}
	return redis.NewCache(client, catalogCachePrefix)
}

// ProvideRateLimiter 提供限流器
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideCatalogRegistry 提供行业与项目类型目录服务
func ProvideCatalogRegistry(pg *postgres.Client, cache catalog.Cache, cfg *config.Config) *catalog.Registry {
	ttl := cfg.Catalog.CacheTTL
	return catalog.NewRegistry(
		catalog.NewService(postgres.NewIndustryRepository(pg), cache, ttl),
		catalog.NewService(postgres.NewProjectTypeRepository(pg), cache, ttl),
	)
}

// ProvideIdeaGenerator 提供创意生成服务，功能关闭时返回 nil
func ProvideIdeaGenerator(ctx context.Context, cfg *config.Config, registry *catalog.Registry) (handler.IdeaGenerator, error) {
	feature := cfg.Features.IdeaGeneration
	if !feature.Enabled {
		logger.Info(ctx, "idea generation disabled by configuration")
		return nil, nil
	}

	client, err := llm.NewCompletionClientFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []idea.Option
	if feature.ValidateCatalog {
		opts = append(opts, idea.WithCatalogChecker(registry))
	}
	return idea.NewService(idea.NewComposer(nil), client, opts...), nil
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client) *handler.HealthHandler {
	var redisChecker handler.HealthChecker
	if redisClient != nil {
		redisChecker = redisClient
	}
	return handler.NewHealthHandler(pg, redisChecker, cfg.App.Env)
}

// ProvideHandlers 组装路由处理器
func ProvideHandlers(health *handler.HealthHandler, generator handler.IdeaGenerator, registry *catalog.Registry) router.Handlers {
	return router.Handlers{
		Health:       health,
		Idea:         handler.NewIdeaHandler(generator),
		Industries:   handler.NewCatalogHandler(registry.Industries()),
		ProjectTypes: handler.NewCatalogHandler(registry.ProjectTypes()),
	}
}
