package persistent

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

// Dsn of the postgres container, empty in short mode.
var pgTestDsn string

func TestMain(m *testing.M) {
	flag.Parse()

	if !testing.Short() {
		logrus.Infoln("Starting db")
		dsn, shutdownDb, err := createTestDb()
		if err != nil {
			logrus.WithError(err).Fatalln("Could not create test database.")
			return
		}
		pgTestDsn = dsn
		code := m.Run()
		shutdownDb()
		os.Exit(code)
	}
	os.Exit(m.Run())
}

// Start postgres docker container.
// Returns its dsn and shutdown func OR error.
func createTestDb() (string, func(), error) {
	psgPassB := make([]byte, 30)
	if _, err := rand.Read(psgPassB); err != nil {
		return "", nil, fmt.Errorf("password generate: %w", err)
	}
	psgPass := base32.StdEncoding.EncodeToString(psgPassB)

	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, fmt.Errorf("docker connect: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "14.1",
		Env:        []string{"POSTGRES_PASSWORD=" + psgPass},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", nil, fmt.Errorf("resource start: %w", err)
	}
	resource.Expire(120)
	shutdownResource := func() {
		if err = pool.Purge(resource); err != nil {
			logrus.WithError(err).Warningln("Could not purge resource.")
		}
	}

	dsn := fmt.Sprintf("postgresql://postgres:%s@localhost:%s/postgres?sslmode=disable",
		psgPass, resource.GetPort("5432/tcp"))
	err = pool.Retry(func() error {
		db, err := PgOpen(context.Background(), dsn)
		if err != nil {
			return err
		}
		return db.Close()
	})
	if err != nil {
		shutdownResource()
		return "", nil, fmt.Errorf("database connect: %w", err)
	}
	return dsn, shutdownResource, nil
}

func withVerbose(db *bun.DB) *bun.DB {
	if os.Getenv("DB_VERBOSE") == "true" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// PgOpenTest opens the test container database with a fresh schema.
func PgOpenTest(ctx context.Context) *bun.DB {
	db, err := PgOpen(ctx, pgTestDsn)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open test database.")
	}
	if err := DropSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatalln("Could not drop test schema.")
	}
	if err := CreateSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatalln("Could not create test schema.")
	}
	return withVerbose(db)
}

// SqliteOpenTest opens a new in memory database with schema.
func SqliteOpenTest(ctx context.Context) *bun.DB {
	db, err := SqliteOpen(ctx, ":memory:")
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open sqlite database.")
	}
	if err := CreateSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatalln("Could not create sqlite schema.")
	}
	return withVerbose(db)
}

// forEachDB runs test against sqlite and, outside of short mode, postgres.
func forEachDB(t *testing.T, test func(t *testing.T, db *bun.DB)) {
	ctx := context.Background()
	t.Run("sqlite", func(t *testing.T) {
		db := SqliteOpenTest(ctx)
		defer db.Close()
		test(t, db)
	})
	if testing.Short() {
		return
	}
	t.Run("pg", func(t *testing.T) {
		db := PgOpenTest(ctx)
		defer db.Close()
		test(t, db)
	})
}
