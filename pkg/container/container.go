package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"voucher-backend/internal/config"
	voucherHandler "voucher-backend/internal/domains/voucher/handler"
	voucherJob "voucher-backend/internal/domains/voucher/job"
	voucherRepo "voucher-backend/internal/domains/voucher/repository"
	voucherService "voucher-backend/internal/domains/voucher/service"
	infraCache "voucher-backend/internal/infrastructure/cache"
	"voucher-backend/internal/infrastructure/database"
	"voucher-backend/pkg/cache"
	"voucher-backend/pkg/jwt"
	"voucher-backend/pkg/logger"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every long-lived dependency of the API and the worker.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Location    *time.Location

	// Repositories
	VoucherStore *voucherRepo.PostgresRepository
	VoucherRepo  *voucherRepo.CachedRepository

	// Services
	DefinitionValidator *voucherService.DefinitionValidator
	VoucherService      voucherService.ServiceInterface
	RedemptionEngine    *voucherService.RedemptionEngine

	// Handlers
	VoucherAdminHandler  *voucherHandler.AdminHandler
	VoucherPublicHandler *voucherHandler.PublicHandler

	// Jobs
	SweepExpiredHandler *voucherJob.SweepExpiredHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI container...")

	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment)
	log.Info().Str("env", cfg.App.Environment).Msg("Config loaded")

	if c.Location, err = cfg.Voucher.Location(); err != nil {
		return nil, fmt.Errorf("failed to load voucher timezone: %w", err)
	}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initCache()

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	c.AsynqClient = asynq.NewClient(c.RedisConnOpt())

	c.initRepositories()
	c.initServices()
	c.initHandlers()
	c.initJobs()

	log.Info().Msg("DI container initialized")
	return c, nil
}

// RedisConnOpt is shared by the asynq client, server and scheduler.
func (c *Container) RedisConnOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// ========================================
// INFRASTRUCTURE
// ========================================

func (c *Container) initDatabase() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Info().Str("host", dbConfig.Host).Str("db", dbConfig.DBName).Msg("Database connected")
	return nil
}

// initCache connects Redis. A dead Redis is not fatal: voucher reads fall
// through to Postgres.
func (c *Container) initCache() {
	redisCache := infraCache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)

	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := rc.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis connection failed (non-critical)")
		}
	}

	c.Cache = redisCache
}

// ========================================
// DOMAIN
// ========================================

func (c *Container) initRepositories() {
	c.VoucherStore = voucherRepo.NewPostgresRepository(c.DB.Pool)
	c.VoucherRepo = voucherRepo.NewCachedRepository(
		c.VoucherStore,
		c.Cache,
		c.Config.Voucher.CacheTTL,
		logger.Component("voucher_cache"),
	)
}

func (c *Container) initServices() {
	c.DefinitionValidator = voucherService.NewDefinitionValidator(c.VoucherRepo, time.Now)
	c.VoucherService = voucherService.NewVoucherService(
		c.VoucherRepo,
		c.DefinitionValidator,
		logger.Component("voucher_service"),
	)
	c.RedemptionEngine = voucherService.NewRedemptionEngine(
		c.VoucherRepo,
		time.Now,
		c.Location,
		logger.Component("redemption_engine"),
	)
}

func (c *Container) initHandlers() {
	c.VoucherAdminHandler = voucherHandler.NewAdminHandler(c.VoucherService, c.AsynqClient, time.Now)
	c.VoucherPublicHandler = voucherHandler.NewPublicHandler(c.VoucherService, c.RedemptionEngine, time.Now)
}

func (c *Container) initJobs() {
	c.SweepExpiredHandler = voucherJob.NewSweepExpiredHandler(
		c.VoucherRepo,
		c.VoucherRepo,
		time.Now,
		logger.Component("voucher_sweep"),
	)
}

// ========================================
// CLEANUP
// ========================================

func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
