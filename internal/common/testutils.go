package common

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}

func TestRabbitMQ(t *testing.T) string {
	skipShort(t)
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12.11-management-alpine", rabbitmq.WithAdminUsername("guest"), rabbitmq.WithAdminPassword("guest"))
	if err != nil {
		t.Fatalf("could not start rabbitmq container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("could not terminate rabbitmq container: %v", err)
		}
	})

	connURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("could not get rabbitmq connection URL: %v", err)
	}

	return connURL
}

// TestDB starts a postgres container with the embedded migrations applied.
func TestDB(t *testing.T) *sql.DB {
	skipShort(t)
	ctx := context.Background()

	c, err := postgres.Run(ctx,
		"docker.io/postgres:14.11-bookworm",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)))
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("could not terminate postgres container: %v", err)
		}
	})

	connURL, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	if err := MigrateUp(connURL); err != nil {
		t.Fatalf("could not run migrations: %v", err)
	}

	db, err := NewDB(connURL, 10, 5, time.Minute)
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMongo(t *testing.T) *mongo.Database {
	skipShort(t)
	ctx := context.Background()

	c, err := mongodb.Run(ctx, "mongo:7.0")
	if err != nil {
		t.Fatalf("could not start mongodb container: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("could not terminate mongodb container: %v", err)
		}
	})

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := NewMongo(ctx, uri, "testdb")
	if err != nil {
		t.Fatalf("could not connect to mongodb: %v", err)
	}
	t.Cleanup(func() { CloseMongo(db) })

	return db
}

func TestRedis(t *testing.T) *redis.Client {
	skipShort(t)
	ctx := context.Background()

	c, err := tcredis.Run(ctx, "docker.io/redis:7.2-alpine")
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("could not terminate redis container: %v", err)
		}
	})

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("could not parse redis url: %v", err)
	}

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })

	return rdb
}
