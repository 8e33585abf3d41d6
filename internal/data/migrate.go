package data

import (
	"database/sql"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/file"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/conf"
)

func RunMigrate(conf *conf.Data, db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	src, err := (&file.File{}).Open("internal/data/migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance(
		"file",
		src,
		conf.Database.Driver,
		driver,
	)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
