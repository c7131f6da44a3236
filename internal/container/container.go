package container

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/oksasatya/user-account-api/config"
	"github.com/oksasatya/user-account-api/internal/application"
	"github.com/oksasatya/user-account-api/internal/domain/repository"
	mongoinfra "github.com/oksasatya/user-account-api/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/user-account-api/internal/infrastructure/postgres"
	"github.com/oksasatya/user-account-api/internal/infrastructure/search"
	"github.com/oksasatya/user-account-api/internal/infrastructure/storage"
	"github.com/oksasatya/user-account-api/pkg/cache"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

// Container holds the process-wide clients and the components built on them.
// It is constructed once in main and passed to the router; nothing here is a
// package global.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Redis *redis.Client
	Mongo *mongo.Client
	PG    *pgxpool.Pool
	GCS   *gcs.Client
	ES    *elasticsearch.Client

	JWT         *helpers.JWTManager
	Cookies     *helpers.Manager
	Cache       *cache.Cache
	Users       repository.UserRepository
	Uploader    storage.Uploader
	UserService *application.Service

	closers []func()
}

// New connects to every configured backend and wires the user components.
// On error, whatever was already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	if err := c.wire(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context) error {
	cfg := c.Config
	var err error

	c.Redis, err = helpers.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.onClose(func() { _ = c.Redis.Close() })

	if c.Users, err = c.openUserStore(ctx); err != nil {
		return err
	}
	if c.Uploader, err = c.openUploader(ctx); err != nil {
		return err
	}

	var index application.UserIndex
	c.ES, err = helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		return fmt.Errorf("elasticsearch: %w", err)
	}
	if c.ES != nil {
		index = search.NewUserIndex(c.ES, cfg.ESUsersIndex)
	} else {
		c.Logger.Info("elasticsearch not configured, user search disabled")
	}

	c.JWT = helpers.NewJWTManager(cfg.TokenSecret())
	c.Cookies = helpers.NewCookie("", cfg.IsProduction())
	c.Cache = cache.New(c.Redis)
	c.UserService = application.NewService(c.Users, helpers.NewPasswordHasher(helpers.DefaultPasswordCost), c.JWT, index, c.Logger)
	return nil
}

func (c *Container) openUserStore(ctx context.Context) (repository.UserRepository, error) {
	cfg := c.Config
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:         cfg.DBConnectionString,
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.PG = pool
		c.onClose(pool.Close)
		if err := pginfra.RunMigrations(cfg.DBConnectionString, cfg.MigrationsDir, c.Logger); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		return pginfra.NewUserRepository(pool), nil

	case config.DriverMongo:
		client, err := mongoinfra.NewClient(ctx, cfg.DBConnectionString, uint64(max(cfg.DBMaxConns, 1)), uint64(max(cfg.DBMinConns, 0)))
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		c.Mongo = client
		c.onClose(func() { _ = client.Disconnect(context.Background()) })
		repo := mongoinfra.NewUserRepository(client.Database(cfg.DBName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

func (c *Container) openUploader(ctx context.Context) (storage.Uploader, error) {
	cfg := c.Config
	var (
		up  storage.Uploader
		err error
	)
	switch cfg.StorageProvider {
	case config.StorageGCS:
		if cfg.GCSBucket == "" {
			err = storage.ErrNotConfigured
			break
		}
		client, cerr := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSON)
		if cerr != nil {
			return nil, fmt.Errorf("gcs: %w", cerr)
		}
		c.GCS = client
		c.onClose(func() { _ = client.Close() })
		up, err = storage.NewGCSUploader(client, cfg.GCSBucket)
	default:
		up, err = storage.NewCloudinaryUploader(cfg.CloudinaryCloud, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}

	if errors.Is(err, storage.ErrNotConfigured) && !cfg.IsProduction() {
		c.Logger.WithField("provider", cfg.StorageProvider).Warn("object storage not configured, uploads disabled")
		return storage.Disabled{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return up, nil
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
