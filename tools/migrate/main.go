// Command migrate applies the embedded schema to DATABASE_URL.
//
//	migrate            apply all pending migrations
//	migrate down       roll back one step
//	migrate force N    mark version N as clean
package main

import (
	"database/sql"
	"errors"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/minerva-salon/salonbook/libs/config"
	"github.com/minerva-salon/salonbook/libs/runtime"
	"github.com/minerva-salon/salonbook/migrations"
)

func main() {
	_ = config.LoadDotenv()
	logger := runtime.NewLogger("migrate")

	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("open db", "err", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()
	if err := conn.Ping(); err != nil {
		logger.Error("ping db", "err", err)
		os.Exit(1)
	}

	dbDriver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		logger.Error("db driver", "err", err)
		os.Exit(1)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Error("source driver", "err", err)
		os.Exit(1)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logger.Error("create migrator", "err", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	args := os.Args[1:]
	switch {
	case len(args) >= 2 && args[0] == "force":
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Error("invalid version", "value", args[1])
			os.Exit(2)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force version", "err", err)
			os.Exit(1)
		}
		logger.Info("forced version", "version", version)
	case len(args) >= 1 && args[0] == "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("migrate down", "err", err)
			os.Exit(1)
		}
		logger.Info("rolled back one migration")
	default:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("migrate up", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations complete")
	}
}
