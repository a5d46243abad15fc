// Package database implements the catalog record store on PostgreSQL with
// go-pg.
package database

import (
	"github.com/go-pg/pg"

	"dicom-archive/config"
)

// DBConn returns a postgres connection pool.
func DBConn(cfg *config.Config) (*pg.DB, error) {
	db := pg.Connect(&pg.Options{
		Network:  cfg.DBNetwork,
		Addr:     cfg.DBAddr,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBDatabase,
	})

	if err := checkConn(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func checkConn(db *pg.DB) error {
	var n int
	_, err := db.QueryOne(pg.Scan(&n), "SELECT 1")
	return err
}
