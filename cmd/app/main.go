package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/inkpost/internal/blogservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/mailservice"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	userService *userservice.UserService
	blogService *blogservice.BlogService
}

// stores bundles the backends selected by DB_DRIVER.
type stores struct {
	driver string
	users  userservice.Store
	blogs  blogservice.Store
	close  func() error
}

// shutdown releases the backend connections and logs a failed close.
func (st *stores) shutdown(logger *slog.Logger) {
	if err := st.close(); err != nil {
		logger.Error("could not close store", slog.String("driver", st.driver), slog.String("error", err.Error()))
	}
}

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", ".env", "path to the dotenv configuration file")
	flag.Parse()

	cfg, err := loadConfig(configFile)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Environment)

	if err := run(cfg, logger); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(cfg *Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.shutdown(logger)

	tokens, err := userservice.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		return err
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	revoked := userservice.NewCacheDenylist(cache)
	if cfg.Redis.Addr != "" {
		rdb, err := common.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()

		revoked = userservice.NewRedisDenylist(rdb)
	}

	var producer common.MessageProducer
	if cfg.RabbitMQ.Host != "" {
		broker, err := common.NewMessageBroker(common.BrokerURI(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password))
		if err != nil {
			return err
		}
		defer broker.Close()

		if err := common.SetupUserExchange(broker); err != nil {
			return fmt.Errorf("setup user exchange: %w", err)
		}
		producer = broker

		if cfg.Mail.Host != "" {
			mailService := mailservice.NewMailService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger)
			if err := mailService.SendWelcomeEmails(); err != nil {
				return err
			}
			defer mailService.Close()
		}
	}

	userService := userservice.NewUserService(st.users, tokens, revoked, cache, producer, logger)

	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userService,
		blogService: blogservice.NewBlogService(st.blogs, userService),
	}

	return app.serve()
}

func openStores(ctx context.Context, cfg *Config) (*stores, error) {
	switch cfg.DBDriver {
	case driverPostgres:
		dsn := common.PostgresDSN(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name)

		if err := common.MigrateUp(dsn); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}

		db, err := common.NewDB(dsn, 25, 25, 15*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return &stores{
			driver: driverPostgres,
			users:  userservice.NewPostgresStore(db),
			blogs:  blogservice.NewPostgresStore(db),
			close:  func() error { return common.CloseDB(db) },
		}, nil

	case driverMongo:
		db, err := common.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Name)
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}

		users, err := userservice.NewMongoStore(ctx, db)
		if err != nil {
			_ = common.CloseMongo(db)
			return nil, err
		}

		blogs, err := blogservice.NewMongoStore(ctx, db)
		if err != nil {
			_ = common.CloseMongo(db)
			return nil, err
		}

		return &stores{
			driver: driverMongo,
			users:  users,
			blogs:  blogs,
			close:  func() error { return common.CloseMongo(db) },
		}, nil

	default:
		return &stores{
			driver: driverMemory,
			users:  userservice.NewMemoryStore(),
			blogs:  blogservice.NewMemoryStore(),
			close:  func() error { return nil },
		}, nil
	}
}
